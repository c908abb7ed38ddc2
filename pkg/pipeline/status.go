// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/kraklabs/grouphunter/internal/ui"
	"github.com/schollz/progressbar/v3"
)

// StatusBar is the 1Hz live status renderer: an indeterminate
// progressbar.ProgressBar driven purely through Describe, never Set64,
// since there is no fixed total to the scan. It doubles as the
// suspend-during-write hook the logging sink uses so log lines never
// interleave with the status line.
type StatusBar struct {
	bar *progressbar.ProgressBar
}

// NewStatusBar builds an indeterminate progress bar (no total, spinner
// type 14) whose description carries the RunStats line.
func NewStatusBar() *StatusBar {
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(progressbarWriter{}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &StatusBar{bar: bar}
}

// progressbarWriter satisfies io.Writer by writing to stdout; kept as a
// distinct type so StatusBar's construction doesn't depend on os import
// ordering elsewhere in the file.
type progressbarWriter struct{}

func (progressbarWriter) Write(p []byte) (int, error) {
	return fmt.Print(string(p))
}

// Suspend runs fn with the status line cleared, then redraws it —
// the mechanism the slog handler calls around every log write.
func (s *StatusBar) Suspend(fn func()) {
	s.bar.Clear()
	fn()
	s.bar.RenderBlank()
}

// Render formats stats into the single status line described by §4.8:
// queue depths, throughput, and the claim counters, colorized per the
// terminal's label/count conventions.
func (s *StatusBar) Render(stats RunStats) {
	line := fmt.Sprintf(
		"%s %s  %s %s  %s %s  %s %s  %s %s  %s %s  %s %s  %s %s",
		ui.Label("owned"), ui.CountText(stats.GroupsOwned),
		ui.Label("claimed"), ui.CountText(stats.GroupsClaimed),
		ui.Label("robux"), ui.CountText(stats.RobuxClaimed),
		ui.Label("proxies"), ui.CountText(stats.BatchProxies),
		ui.Label("checks/s"), ui.CountText(fmt.Sprintf("%.1f", stats.ChecksPerSecond)),
		ui.Label("batch queue"), ui.CountText(stats.BatchQueueDepth),
		ui.Label("detailed queue"), ui.CountText(stats.DetailedQueueDepth),
		ui.Label("claim queue"), ui.CountText(stats.ClaimQueueDepth),
	)
	s.bar.Describe(line)
	_ = s.bar.RenderBlank()
}

// Finish stops the status bar and clears the line.
func (s *StatusBar) Finish() {
	_ = s.bar.Finish()
	s.bar.Clear()
}

// RunStatusLoop renders stats once per second until ctx is cancelled.
func RunStatusLoop(ctx context.Context, m *Metrics, q *Queues, start time.Time, bar *StatusBar) {
	tp := &Throughput{}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			bar.Finish()
			return
		case <-ticker.C:
			bar.Render(Snapshot(m, q, start, tp))
		}
	}
}
