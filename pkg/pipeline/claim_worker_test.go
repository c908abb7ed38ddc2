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
	"testing"
	"time"

	"github.com/kraklabs/grouphunter/pkg/groupsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaimClient struct {
	joinErr   error
	claimErr  error
	funds     groupsapi.Funds
	fundsErr  error
	removed   []groupsapi.GroupId
	removeErr error
}

func (c *fakeClaimClient) JoinGroup(context.Context, groupsapi.GroupId) error  { return c.joinErr }
func (c *fakeClaimClient) ClaimGroup(context.Context, groupsapi.GroupId) error { return c.claimErr }
func (c *fakeClaimClient) GetGroupFunds(context.Context, groupsapi.GroupId) (groupsapi.Funds, error) {
	return c.funds, c.fundsErr
}
func (c *fakeClaimClient) RemoveUserFromGroup(_ context.Context, id, _ groupsapi.GroupId) error {
	c.removed = append(c.removed, id)
	return c.removeErr
}

// TestClaimWorker_HappyPath matches scenario 2.
func TestClaimWorker_HappyPath(t *testing.T) {
	client := &fakeClaimClient{funds: 500}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	metrics := NewMetrics(0)

	w := NewClaimWorker(client, q, metrics, nil, ClaimWorkerConfig{FundsThreshold: 100, GroupLimit: 100, SelfID: groupsapi.MustGroupId(1)})
	err := w.process(context.Background(), groupsapi.MustGroupId(42))

	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.GroupsClaimed.Load())
	assert.Equal(t, uint64(500), metrics.RobuxClaimed.Load())
	assert.Equal(t, int64(1), metrics.GroupsOwned.Load())
	assert.Empty(t, client.removed)
}

// TestClaimWorker_LowFundsSweep matches scenario 3.
func TestClaimWorker_LowFundsSweep(t *testing.T) {
	client := &fakeClaimClient{funds: 5}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	metrics := NewMetrics(0)

	w := NewClaimWorker(client, q, metrics, nil, ClaimWorkerConfig{FundsThreshold: 100, GroupLimit: 100, SelfID: groupsapi.MustGroupId(1)})
	err := w.process(context.Background(), groupsapi.MustGroupId(42))

	require.NoError(t, err)
	assert.Equal(t, []groupsapi.GroupId{groupsapi.MustGroupId(42)}, client.removed)
	assert.Equal(t, int64(0), metrics.GroupsOwned.Load())
	assert.Equal(t, int64(0), metrics.GroupsClaimed.Load())
}

// TestClaimWorker_CapReached matches scenario 6.
func TestClaimWorker_CapReached(t *testing.T) {
	client := &fakeClaimClient{funds: 1000}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	metrics := NewMetrics(4)

	w := NewClaimWorker(client, q, metrics, nil, ClaimWorkerConfig{FundsThreshold: 0, GroupLimit: 5, SelfID: groupsapi.MustGroupId(1)})
	err := w.process(context.Background(), groupsapi.MustGroupId(42))

	assert.ErrorIs(t, err, ErrGroupLimitReached)
	assert.Equal(t, int64(5), metrics.GroupsOwned.Load())
}

func TestClaimWorker_CaptchaOnJoinIsFatal(t *testing.T) {
	client := &fakeClaimClient{joinErr: &groupsapi.ApiError{Message: groupsapi.CaptchaMessage}}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	w := NewClaimWorker(client, q, NewMetrics(0), nil, ClaimWorkerConfig{GroupLimit: 100})

	err := w.process(context.Background(), groupsapi.MustGroupId(1))
	assert.ErrorIs(t, err, ErrCaptcha)
}

func TestClaimWorker_NonCaptchaJoinFailureDropsCandidate(t *testing.T) {
	client := &fakeClaimClient{joinErr: &groupsapi.ApiError{Message: "some other error"}}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	w := NewClaimWorker(client, q, NewMetrics(0), nil, ClaimWorkerConfig{GroupLimit: 100})

	err := w.process(context.Background(), groupsapi.MustGroupId(1))
	assert.NoError(t, err)
}

func TestClaimWorker_FundsFailureAfterClaimIsDroppedNotRetried(t *testing.T) {
	client := &fakeClaimClient{fundsErr: &groupsapi.ApiError{Message: "boom"}}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	metrics := NewMetrics(0)
	w := NewClaimWorker(client, q, metrics, nil, ClaimWorkerConfig{GroupLimit: 100})

	err := w.process(context.Background(), groupsapi.MustGroupId(1))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), metrics.GroupsClaimed.Load())
	assert.Empty(t, client.removed)
}

func TestClaimWorker_RunStopsOnGroupLimit(t *testing.T) {
	client := &fakeClaimClient{funds: 1000}
	q := NewQueues(groupsapi.MustGroupId(1), 0)
	metrics := NewMetrics(4)
	w := NewClaimWorker(client, q, metrics, nil, ClaimWorkerConfig{GroupLimit: 5, SelfID: groupsapi.MustGroupId(1)})

	q.Claim <- groupsapi.MustGroupId(1)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrGroupLimitReached)
	case <-time.After(time.Second):
		t.Fatal("Run did not terminate on reaching the group limit")
	}
}
