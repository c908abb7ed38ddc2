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

// BatchInfoClient is the capability a batch worker needs: the anonymous
// batch-info lookup. Satisfied by *groupsapi.Client.
type BatchInfoClient interface {
	GetBatchInfo(ctx context.Context, ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error)
}

// BatchWorkerConfig carries the per-worker tunables that come from the
// merged CLI/file config rather than the queue fabric or client.
type BatchWorkerConfig struct {
	RetryLimit int
	BatchWait  time.Duration
	ProxyName  string
}

// BatchWorker owns one proxy's batch-stage loop: assemble up to 100
// distinct ids from the priority/main channels, call batch-info, classify
// each result, requeue or promote accordingly, and pace itself just under
// the configured rate.
type BatchWorker struct {
	client  BatchInfoClient
	queues  *Queues
	metrics *Metrics
	logger  *slog.Logger
	cfg     BatchWorkerConfig
}

// NewBatchWorker constructs a batch worker bound to one proxy's client.
func NewBatchWorker(client BatchInfoClient, queues *Queues, metrics *Metrics, logger *slog.Logger, cfg BatchWorkerConfig) *BatchWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWorker{client: client, queues: queues, metrics: metrics, logger: logger, cfg: cfg}
}

// Run drains the batch queues until ctx is cancelled or the worker's
// retry budget is exhausted, at which point it decrements BatchProxies
// and returns — this proxy is deemed dead.
func (w *BatchWorker) Run(ctx context.Context) {
	w.metrics.BatchProxies.Add(1)
	defer w.metrics.BatchProxies.Add(-1)

	retries := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch := w.fillBatch(ctx, groupsapi.MaxBatchSize)
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		ids := make([]groupsapi.GroupId, len(batch))
		for i, tg := range batch {
			ids[i] = tg.ID
		}

		results, err := w.client.GetBatchInfo(ctx, ids)
		if err != nil {
			w.handleFailure(batch, err, &retries)
			if retries >= w.cfg.RetryLimit {
				w.logger.Warn("pipeline.batch.retry_limit", "proxy", w.cfg.ProxyName, "retries", retries)
				return
			}
			if !groupsapi.IsRateLimited(err) {
				w.pace(start)
			}
			continue
		}

		retries = 0
		w.classify(batch, results)
		w.metrics.BatchChecks.Add(int64(len(results)))
		w.pace(start)
	}
}

// fillBatch assembles up to size distinct TrackedGroups by draining
// priority then main until size are held, or until both drains are
// momentarily empty and the batch is already non-empty. When both are
// empty and the batch is still empty, it cooperatively yields and
// retries rather than spinning the scheduler.
func (w *BatchWorker) fillBatch(ctx context.Context, size int) []TrackedGroup {
	batch := make([]TrackedGroup, 0, size)
	for len(batch) < size {
		select {
		case <-ctx.Done():
			return batch
		default:
		}

		tg, ok := drainPriorityThenMain(w.queues.BatchPriority, w.queues.BatchMain)
		if !ok {
			if len(batch) > 0 {
				return batch
			}
			runtime.Gosched()
			continue
		}
		batch = append(batch, tg)
	}
	return batch
}

// classify applies §4.5's per-entry rules: ids present in the request but
// absent from the response are non-existent and dropped.
func (w *BatchWorker) classify(requested []TrackedGroup, results []groupsapi.BatchInfo) {
	present := make(map[groupsapi.GroupId]groupsapi.BatchInfo, len(results))
	for _, r := range results {
		present[r.ID] = r
	}

	for _, tg := range requested {
		info, ok := present[tg.ID]
		if !ok {
			continue
		}
		switch {
		case info.Owner == nil && tg.ProcessedBefore:
			w.queues.DetailedMain <- tg.ID
		case info.Owner == nil && !tg.ProcessedBefore:
			w.queues.BatchMain <- TrackedGroup{ID: tg.ID, ProcessedBefore: true}
		default:
			w.queues.BatchMain <- TrackedGroup{ID: tg.ID, ProcessedBefore: true}
		}
	}
}

// handleFailure re-enqueues the whole batch to batch_priority and applies
// the rate-limit-is-free / retry-limit policy.
func (w *BatchWorker) handleFailure(batch []TrackedGroup, err error, retries *int) {
	for _, tg := range batch {
		w.queues.BatchPriority <- tg
	}
	if groupsapi.IsRateLimited(err) {
		return
	}
	*retries++
	w.logger.Warn("pipeline.batch.failure", "proxy", w.cfg.ProxyName, "err", err, "retries", *retries)
}

// pace sleeps out the remainder of BatchWait since start, saturating at
// zero.
func (w *BatchWorker) pace(start time.Time) {
	elapsed := time.Since(start)
	if remaining := w.cfg.BatchWait - elapsed; remaining > 0 {
		time.Sleep(remaining)
	}
}
