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
	"errors"
	"log/slog"

	"github.com/kraklabs/grouphunter/pkg/groupsapi"
)

// ClaimClient is the capability the claim worker needs: the authenticated
// join/claim/funds/remove quartet. Satisfied by *groupsapi.AuthClient.
type ClaimClient interface {
	JoinGroup(ctx context.Context, id groupsapi.GroupId) error
	ClaimGroup(ctx context.Context, id groupsapi.GroupId) error
	GetGroupFunds(ctx context.Context, id groupsapi.GroupId) (groupsapi.Funds, error)
	RemoveUserFromGroup(ctx context.Context, id groupsapi.GroupId, target groupsapi.GroupId) error
}

// ErrCaptcha is returned by Run when the platform answers a join with its
// identity-challenge error: the browser-identity cookie is no longer
// trusted and the process must terminate.
var ErrCaptcha = errors.New("pipeline: claim worker hit a captcha challenge, browser identity invalid")

// ErrGroupLimitReached is returned by Run when a successful claim brings
// GroupsOwned to the account's group limit: a clean, expected exit.
var ErrGroupLimitReached = errors.New("pipeline: account group limit reached")

// ClaimWorkerConfig carries the tunables the claim state machine needs
// beyond its client and metrics.
type ClaimWorkerConfig struct {
	FundsThreshold groupsapi.Funds
	GroupLimit     uint16
	SelfID         groupsapi.GroupId
}

// ClaimWorker is the single consumer of the claim channel, running the
// join -> claim -> evaluate funds -> (keep|leave) state machine.
type ClaimWorker struct {
	client  ClaimClient
	queues  *Queues
	metrics *Metrics
	logger  *slog.Logger
	cfg     ClaimWorkerConfig
}

// NewClaimWorker constructs the claim worker. metrics.GroupsOwned must
// already be seeded with metadata.CurrentGroupCount (see NewMetrics).
func NewClaimWorker(client ClaimClient, queues *Queues, metrics *Metrics, logger *slog.Logger, cfg ClaimWorkerConfig) *ClaimWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimWorker{client: client, queues: queues, metrics: metrics, logger: logger, cfg: cfg}
}

// Run consumes the claim channel until ctx is cancelled, ErrCaptcha fires,
// or ErrGroupLimitReached fires. Both sentinel errors are the worker's
// only non-nil returns; a nil return means ctx was cancelled.
func (w *ClaimWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id := <-w.queues.Claim:
			if err := w.process(ctx, id); err != nil {
				return err
			}
		}
	}
}

// process runs the state machine for one candidate id.
func (w *ClaimWorker) process(ctx context.Context, id groupsapi.GroupId) error {
	if err := w.client.JoinGroup(ctx, id); err != nil {
		if groupsapi.IsCaptcha(err) {
			return ErrCaptcha
		}
		w.logger.Warn("pipeline.claim.join_failed", "id", id, "err", err)
		return nil
	}

	if err := w.client.ClaimGroup(ctx, id); err != nil {
		w.logger.Warn("pipeline.claim.claim_failed", "id", id, "err", err)
		return nil
	}

	funds, err := w.client.GetGroupFunds(ctx, id)
	if err != nil {
		// Funds-fetch failure after a successful claim is logged and
		// dropped, not retried, per the spec's stated (if acknowledged
		// risky) behavior: the account now owns this group regardless.
		w.logger.Warn("pipeline.claim.funds_failed", "id", id, "err", err)
		return nil
	}

	if funds < w.cfg.FundsThreshold {
		if err := w.client.RemoveUserFromGroup(ctx, id, w.cfg.SelfID); err != nil {
			w.logger.Warn("pipeline.claim.leave_failed", "id", id, "err", err)
		}
		w.logger.Info("pipeline.claim.abandoned_low_funds", "id", id, "funds", funds, "threshold", w.cfg.FundsThreshold)
		return nil
	}

	w.metrics.RobuxClaimed.Add(uint64(funds))
	w.metrics.GroupsClaimed.Add(1)
	owned := w.metrics.GroupsOwned.Add(1)
	w.logger.Info("pipeline.claim.kept", "id", id, "funds", funds, "owned", owned)

	if owned >= int64(w.cfg.GroupLimit) {
		return ErrGroupLimitReached
	}
	return nil
}
