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

package groupsapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// MaxBatchSize is the most group IDs a single batch-info call may carry.
const MaxBatchSize = 100

const (
	groupsBaseURL  = "https://groups.roblox.com/"
	usersBaseURL   = "https://users.roblox.com/"
	economyBaseURL = "https://economy.roblox.com/"
)

// baseClient is the capability every scanner worker needs: cheap,
// unauthenticated lookups. It is intentionally not a superset of
// authClient and vice versa: scanner workers are constructed from a
// *Client and never see the authenticated surface, and the claim worker
// is constructed from an *AuthClient and never sees the scanning surface.
// There is no interface embedding between them.
type baseClient interface {
	GetBatchInfo(ctx context.Context, ids []GroupId) ([]BatchInfo, error)
	GetDetailedInfo(ctx context.Context, id GroupId) (DetailedInfo, error)
}

// authClient is the capability the claim worker and startup sequence
// need: account-scoped reads and the mutating join/claim/leave calls.
type authClient interface {
	GetMetadata(ctx context.Context) (Metadata, error)
	GetAuthenticatedUser(ctx context.Context) (AuthenticatedUser, error)
	GetGroupFunds(ctx context.Context, id GroupId) (Funds, error)
	JoinGroup(ctx context.Context, id GroupId) error
	ClaimGroup(ctx context.Context, id GroupId) error
	RemoveUserFromGroup(ctx context.Context, id GroupId, target GroupId) error
}

var (
	_ baseClient = (*Client)(nil)
	_ authClient = (*AuthClient)(nil)
)

// GetBatchInfo calls v2/groups?groupIds=... and returns the subset of ids
// that exist, ordered ascending by id (an invariant the platform upholds
// and the prober and batch scanner both rely on).
func (c *Client) GetBatchInfo(ctx context.Context, ids []GroupId) ([]BatchInfo, error) {
	return getBatchInfo(ctx, c.engine, ids)
}

func getBatchInfo(ctx context.Context, e *engine, ids []GroupId) ([]BatchInfo, error) {
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("groupsapi: batch request with %d ids exceeds max of %d", len(ids), MaxBatchSize)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	query := url.Values{"groupIds": {strings.Join(parts, ",")}}
	resp, err := get[batchResponse](ctx, e, groupsBaseURL+"v2/groups", query)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetDetailedInfo calls v1/groups/{id}.
func (c *Client) GetDetailedInfo(ctx context.Context, id GroupId) (DetailedInfo, error) {
	url := fmt.Sprintf("%sv1/groups/%d", groupsBaseURL, id)
	return get[DetailedInfo](ctx, c.engine, url, nil)
}

// GetMetadata calls v1/groups/metadata.
func (c *AuthClient) GetMetadata(ctx context.Context) (Metadata, error) {
	return get[Metadata](ctx, c.engine, groupsBaseURL+"v1/groups/metadata", nil)
}

// GetAuthenticatedUser calls v1/users/authenticated.
func (c *AuthClient) GetAuthenticatedUser(ctx context.Context) (AuthenticatedUser, error) {
	return get[AuthenticatedUser](ctx, c.engine, usersBaseURL+"v1/users/authenticated", nil)
}

// GetGroupFunds calls v1/groups/{id}/currency.
func (c *AuthClient) GetGroupFunds(ctx context.Context, id GroupId) (Funds, error) {
	url := fmt.Sprintf("%sv1/groups/%d/currency", economyBaseURL, id)
	resp, err := get[fundsResponse](ctx, c.engine, url, nil)
	if err != nil {
		return 0, err
	}
	return resp.Robux, nil
}

// JoinGroup calls POST v1/groups/{id}/users.
func (c *AuthClient) JoinGroup(ctx context.Context, id GroupId) error {
	url := fmt.Sprintf("%sv1/groups/%d/users", groupsBaseURL, id)
	_, err := mutate[Empty](ctx, c.engine, http.MethodPost, url, nil)
	return err
}

// ClaimGroup calls POST v1/groups/{id}/claim-ownership.
func (c *AuthClient) ClaimGroup(ctx context.Context, id GroupId) error {
	url := fmt.Sprintf("%sv1/groups/%d/claim-ownership", groupsBaseURL, id)
	_, err := mutate[Empty](ctx, c.engine, http.MethodPost, url, nil)
	return err
}

// RemoveUserFromGroup calls DELETE v1/groups/{id}/users/{target}.
func (c *AuthClient) RemoveUserFromGroup(ctx context.Context, id GroupId, target GroupId) error {
	url := fmt.Sprintf("%sv1/groups/%d/users/%d", groupsBaseURL, id, target)
	_, err := mutate[Empty](ctx, c.engine, http.MethodDelete, url, nil)
	return err
}
