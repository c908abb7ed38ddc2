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

type scriptedDetailedClient struct {
	mu      sync.Mutex
	script  []func(groupsapi.GroupId) (groupsapi.DetailedInfo, error)
	callIdx int
}

func (c *scriptedDetailedClient) GetDetailedInfo(_ context.Context, id groupsapi.GroupId) (groupsapi.DetailedInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.callIdx
	c.callIdx++
	if idx >= len(c.script) {
		return groupsapi.DetailedInfo{}, nil
	}
	return c.script[idx](id)
}

func TestDetailedWorker_PromotesEligibleCandidate(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	q.DetailedMain <- groupsapi.MustGroupId(42)

	client := &scriptedDetailedClient{script: []func(groupsapi.GroupId) (groupsapi.DetailedInfo, error){
		func(id groupsapi.GroupId) (groupsapi.DetailedInfo, error) {
			return groupsapi.DetailedInfo{ID: id, PublicEntryAllowed: true}, nil
		},
	}}

	w := NewDetailedWorker(client, q, NewMetrics(0), nil, DetailedWorkerConfig{RetryLimit: 5, DetailedWait: 0})
	go w.Run(context.Background())

	select {
	case id := <-q.Claim:
		assert.Equal(t, groupsapi.MustGroupId(42), id)
	case <-time.After(time.Second):
		t.Fatal("candidate was not promoted to claim")
	}
}

func TestDetailedWorker_DropsIneligibleCandidate(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	q.DetailedMain <- groupsapi.MustGroupId(7)

	client := &scriptedDetailedClient{script: []func(groupsapi.GroupId) (groupsapi.DetailedInfo, error){
		func(id groupsapi.GroupId) (groupsapi.DetailedInfo, error) {
			return groupsapi.DetailedInfo{ID: id, IsLocked: true, PublicEntryAllowed: true}, nil
		},
	}}

	w := NewDetailedWorker(client, q, NewMetrics(0), nil, DetailedWorkerConfig{RetryLimit: 5, DetailedWait: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go w.Run(ctx)
	<-ctx.Done()

	select {
	case id := <-q.Claim:
		t.Fatalf("locked group should not reach claim, got %v", id)
	default:
	}
}

func TestDetailedWorker_DoesNotPromoteWhenClaimIsFull(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(1), 1)
	q.Claim <- groupsapi.MustGroupId(1)
	q.DetailedMain <- groupsapi.MustGroupId(99)

	client := &scriptedDetailedClient{script: []func(groupsapi.GroupId) (groupsapi.DetailedInfo, error){
		func(id groupsapi.GroupId) (groupsapi.DetailedInfo, error) {
			return groupsapi.DetailedInfo{ID: id, PublicEntryAllowed: true}, nil
		},
	}}

	w := NewDetailedWorker(client, q, NewMetrics(0), nil, DetailedWorkerConfig{RetryLimit: 5, DetailedWait: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go w.Run(ctx)
	<-ctx.Done()

	require.Len(t, q.Claim, 1)
	assert.Equal(t, groupsapi.MustGroupId(1), <-q.Claim)
}

func TestDetailedWorker_RequeuesOnFailure(t *testing.T) {
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	q.DetailedMain <- groupsapi.MustGroupId(5)

	apiErr := &groupsapi.ApiError{Code: 9, Message: "boom"}
	client := &scriptedDetailedClient{script: []func(groupsapi.GroupId) (groupsapi.DetailedInfo, error){
		func(id groupsapi.GroupId) (groupsapi.DetailedInfo, error) { return groupsapi.DetailedInfo{}, apiErr },
	}}

	w := NewDetailedWorker(client, q, NewMetrics(0), nil, DetailedWorkerConfig{RetryLimit: 5, DetailedWait: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go w.Run(ctx)

	select {
	case id := <-q.DetailedPriority:
		assert.Equal(t, groupsapi.MustGroupId(5), id)
	case <-time.After(time.Second):
		t.Fatal("failed id was not requeued to detailed_priority")
	}
}
