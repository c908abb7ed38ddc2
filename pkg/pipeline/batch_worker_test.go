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
	"sync"
	"testing"
	"time"

	"github.com/kraklabs/grouphunter/pkg/groupsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBatchClient replays a fixed sequence of responses, one per call,
// and records every request's ids for assertions.
type scriptedBatchClient struct {
	mu       sync.Mutex
	calls    [][]groupsapi.GroupId
	script   []func([]groupsapi.GroupId) ([]groupsapi.BatchInfo, error)
	callIdx  int
}

func (c *scriptedBatchClient) GetBatchInfo(_ context.Context, ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]groupsapi.GroupId(nil), ids...))
	idx := c.callIdx
	c.callIdx++
	if idx >= len(c.script) {
		return nil, nil
	}
	return c.script[idx](ids)
}

func owned(id groupsapi.GroupId) groupsapi.BatchInfo {
	return groupsapi.BatchInfo{ID: id, Owner: &groupsapi.OwnerRef{ID: groupsapi.MustGroupId(1), Type: groupsapi.OwnerTypeUser}}
}

func unowned(id groupsapi.GroupId) groupsapi.BatchInfo {
	return groupsapi.BatchInfo{ID: id}
}

// TestBatchWorker_DiscoveryPath matches spec end-to-end scenario 1: after
// two passes, ids 1 and 3 (seen owner-less twice) reach the detailed
// queue, and id 2 (absent from every response) never does.
func TestBatchWorker_DiscoveryPath(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(3), 0)
	q.Seed(groupsapi.MustGroupId(3))

	client := &scriptedBatchClient{
		script: []func([]groupsapi.GroupId) ([]groupsapi.BatchInfo, error){
			func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) {
				return []groupsapi.BatchInfo{unowned(groupsapi.MustGroupId(1)), unowned(groupsapi.MustGroupId(3))}, nil
			},
			func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) {
				return []groupsapi.BatchInfo{unowned(groupsapi.MustGroupId(1)), unowned(groupsapi.MustGroupId(3))}, nil
			},
		},
	}

	w := NewBatchWorker(client, q, NewMetrics(0), nil, BatchWorkerConfig{RetryLimit: 5, BatchWait: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go w.Run(ctx)

	got := map[int64]bool{}
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case id := <-q.DetailedMain:
			got[int64(id)] = true
		case <-timeout:
			t.Fatalf("timed out waiting for detailed promotions, got %v", got)
		}
	}
	assert.Equal(t, map[int64]bool{1: true, 3: true}, got)

	select {
	case id := <-q.DetailedMain:
		t.Fatalf("unexpected extra promotion: %v", id)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestBatchWorker_RateLimitPacing matches scenario 4: three rate-limited
// failures then success never trip the retry counter or exit the worker.
func TestBatchWorker_RateLimitPacing(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	q.BatchMain <- TrackedGroup{ID: groupsapi.MustGroupId(1)}

	rateLimited := &groupsapi.ApiError{Code: 0, Message: groupsapi.RateLimitedMessage}
	calls := 0
	client := &scriptedBatchClient{}
	client.script = []func([]groupsapi.GroupId) ([]groupsapi.BatchInfo, error){
		func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) { calls++; return nil, rateLimited },
		func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) { calls++; return nil, rateLimited },
		func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) { calls++; return nil, rateLimited },
		func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) {
			calls++
			return []groupsapi.BatchInfo{unowned(groupsapi.MustGroupId(1))}, nil
		},
	}

	metrics := NewMetrics(0)
	w := NewBatchWorker(client, q, metrics, nil, BatchWorkerConfig{RetryLimit: 1, BatchWait: 0})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() { w.Run(ctx); close(done) }()

	select {
	case tg := <-q.BatchMain:
		assert.Equal(t, groupsapi.MustGroupId(1), tg.ID)
		assert.True(t, tg.ProcessedBefore)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for successful re-enqueue")
	}
	assert.Equal(t, int64(1), metrics.BatchProxies.Load())
	cancel()
	<-done
}

// TestBatchWorker_DeadProxy matches scenario 5: retry_limit+1 consecutive
// transport failures exit the worker, decrementing BatchProxies, leaving
// the batch on batch_priority.
func TestBatchWorker_DeadProxy(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	q.BatchMain <- TrackedGroup{ID: groupsapi.MustGroupId(1)}

	transportErr := &groupsapi.TransportError{Err: assertDialErr}
	client := &scriptedBatchClient{}
	for i := 0; i < 3; i++ {
		client.script = append(client.script, func(ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error) {
			return nil, transportErr
		})
	}

	metrics := NewMetrics(0)
	w := NewBatchWorker(client, q, metrics, nil, BatchWorkerConfig{RetryLimit: 2, BatchWait: 0})

	done := make(chan struct{})
	go func() { w.Run(context.Background()); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit after exhausting retry budget")
	}
	assert.Equal(t, int64(0), metrics.BatchProxies.Load())

	require.Len(t, q.BatchPriority, 1)
	tg := <-q.BatchPriority
	assert.Equal(t, groupsapi.MustGroupId(1), tg.ID)
}

type dialErr string

func (e dialErr) Error() string { return string(e) }

var assertDialErr = dialErr("connection refused")
