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
	"sync"
	"sync/atomic"
	"time"
)

// Metrics is the explicit counters value threaded through every worker
// constructor, the alternative the original design notes called out as
// preferred over package-level globals: identical relaxed-atomic
// behavior, but a worker under test gets its own Metrics instead of
// reaching into process state.
type Metrics struct {
	GroupsOwned   atomic.Int64
	GroupsClaimed atomic.Int64
	BatchChecks   atomic.Int64
	BatchProxies  atomic.Int64
	RobuxClaimed  atomic.Uint64
}

// NewMetrics builds a Metrics snapshot seeded from the account's
// current group count, per the claim worker's GROUPS_OWNED initializer.
func NewMetrics(currentGroupCount uint16) *Metrics {
	m := &Metrics{}
	m.GroupsOwned.Store(int64(currentGroupCount))
	return m
}

// RunStats is a point-in-time snapshot of every counter plus derived
// throughput, rendered by the live status line. No end-of-run summary is
// printed from it.
type RunStats struct {
	GroupsOwned       int64
	GroupsClaimed     int64
	BatchChecks       int64
	BatchProxies      int64
	RobuxClaimed      uint64
	ChecksPerSecond   float64
	Elapsed           time.Duration
	BatchQueueDepth   int
	DetailedQueueDepth int
	ClaimQueueDepth   int
}

// sampleWindow is the simple-moving-average depth for checks-per-second,
// fixed at 10 samples per the spec.
const sampleWindow = 10

// Throughput turns the raw BATCH_CHECK_COUNTER into a checks-per-second
// simple moving average, sampled once per second by the status loop.
type Throughput struct {
	mu      sync.Mutex
	samples []int64
	last    int64
}

// Sample records the counter's current value and returns the SMA of the
// per-second deltas observed so far (up to the last 10).
func (t *Throughput) Sample(current int64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	delta := current - t.last
	t.last = current
	t.samples = append(t.samples, delta)
	if len(t.samples) > sampleWindow {
		t.samples = t.samples[len(t.samples)-sampleWindow:]
	}

	var sum int64
	for _, s := range t.samples {
		sum += s
	}
	return float64(sum) / float64(len(t.samples))
}

// Snapshot assembles a RunStats from the current counters, queue depths,
// start time, and throughput tracker.
func Snapshot(m *Metrics, q *Queues, start time.Time, tp *Throughput) RunStats {
	checks := m.BatchChecks.Load()
	return RunStats{
		GroupsOwned:        m.GroupsOwned.Load(),
		GroupsClaimed:      m.GroupsClaimed.Load(),
		BatchChecks:        checks,
		BatchProxies:       m.BatchProxies.Load(),
		RobuxClaimed:       m.RobuxClaimed.Load(),
		ChecksPerSecond:    tp.Sample(checks),
		Elapsed:            time.Since(start),
		BatchQueueDepth:    len(q.BatchMain) + len(q.BatchPriority),
		DetailedQueueDepth: len(q.DetailedMain) + len(q.DetailedPriority),
		ClaimQueueDepth:    len(q.Claim),
	}
}
