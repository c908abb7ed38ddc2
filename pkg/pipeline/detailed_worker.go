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
	"log/slog"
	"runtime"
	"time"

	"github.com/kraklabs/grouphunter/pkg/groupsapi"
)

// DetailedInfoClient is the capability a detailed worker needs.
// Satisfied by *groupsapi.Client — the same client its batch twin uses.
type DetailedInfoClient interface {
	GetDetailedInfo(ctx context.Context, id groupsapi.GroupId) (groupsapi.DetailedInfo, error)
}

// DetailedWorkerConfig carries the per-worker tunables from config.
type DetailedWorkerConfig struct {
	RetryLimit   int
	DetailedWait time.Duration
	ProxyName    string
}

// DetailedWorker owns one proxy's detailed-stage loop: one id per call,
// gating eligible candidates into the claim channel.
type DetailedWorker struct {
	client  DetailedInfoClient
	queues  *Queues
	metrics *Metrics
	logger  *slog.Logger
	cfg     DetailedWorkerConfig
}

// NewDetailedWorker constructs a detailed worker bound to one proxy's
// client.
func NewDetailedWorker(client DetailedInfoClient, queues *Queues, metrics *Metrics, logger *slog.Logger, cfg DetailedWorkerConfig) *DetailedWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetailedWorker{client: client, queues: queues, metrics: metrics, logger: logger, cfg: cfg}
}

// Run drains the detailed queues until ctx is cancelled or the retry
// budget is exhausted.
func (w *DetailedWorker) Run(ctx context.Context) {
	retries := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		id, ok := drainPriorityThenMain(w.queues.DetailedPriority, w.queues.DetailedMain)
		if !ok {
			runtime.Gosched()
			continue
		}

		start := time.Now()
		info, err := w.client.GetDetailedInfo(ctx, id)
		if err != nil {
			w.queues.DetailedPriority <- id
			if !groupsapi.IsRateLimited(err) {
				retries++
				w.logger.Warn("pipeline.detailed.failure", "proxy", w.cfg.ProxyName, "id", id, "err", err, "retries", retries)
				if retries >= w.cfg.RetryLimit {
					w.logger.Warn("pipeline.detailed.retry_limit", "proxy", w.cfg.ProxyName, "retries", retries)
					return
				}
			}
			if !groupsapi.IsRateLimited(err) {
				w.pace(start)
			}
			continue
		}

		retries = 0
		if info.ClaimEligible() && !w.queues.ClaimIsFull() {
			w.queues.Claim <- id
		}
		w.pace(start)
	}
}

func (w *DetailedWorker) pace(start time.Time) {
	elapsed := time.Since(start)
	if remaining := w.cfg.DetailedWait - elapsed; remaining > 0 {
		time.Sleep(remaining)
	}
}
