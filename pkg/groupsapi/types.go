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

// Package groupsapi is a typed client for the remote group-platform API
// surface the scanner and claim pipeline depend on: batch/detailed group
// lookups, account metadata, and the join/claim/leave mutation trio.
package groupsapi

import (
	"fmt"
	"math"
	"time"
)

// maxGroupID is the largest value a GroupId may hold (the platform's ID
// space is a signed 63-bit counter in practice).
const maxGroupID = math.MaxInt64

// GroupId is a validated positive group identifier. The zero value is not
// a valid GroupId; always construct one with NewGroupId.
type GroupId int64

// NewGroupId validates and constructs a GroupId from a raw integer.
func NewGroupId(v int64) (GroupId, error) {
	if v < 1 || v > maxGroupID {
		return 0, fmt.Errorf("groupsapi: group id %d out of range [1, %d]", v, int64(maxGroupID))
	}
	return GroupId(v), nil
}

// MustGroupId panics if v is not a valid GroupId. Intended for literals in
// tests and startup code where the value is known to be valid.
func MustGroupId(v int64) GroupId {
	id, err := NewGroupId(v)
	if err != nil {
		panic(err)
	}
	return id
}

func (id GroupId) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// OwnerType mirrors the "type" discriminator the batch endpoint embeds in
// an owner reference. The platform only ever returns "User" today but the
// field is kept as a string rather than a bool so a new owner kind doesn't
// require a wire-format break.
type OwnerType string

// OwnerTypeUser is the only owner kind the platform currently returns.
const OwnerTypeUser OwnerType = "User"

// OwnerRef identifies the user who owns a group, as returned by the batch
// endpoint (a thin reference, not the full user record).
type OwnerRef struct {
	ID   GroupId   `json:"id"`
	Type OwnerType `json:"type"`
}

// DetailedOwner is the richer owner record returned by the detailed-info
// endpoint.
type DetailedOwner struct {
	HasVerifiedBadge bool    `json:"hasVerifiedBadge"`
	UserID           GroupId `json:"userId"`
	Username         string  `json:"username"`
	DisplayName      string  `json:"displayName"`
}

// BatchInfo is one entry from the batch-info endpoint. Only Owner drives
// pipeline decisions; the rest is carried through for callers that render
// it.
type BatchInfo struct {
	ID               GroupId   `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Owner            *OwnerRef `json:"owner"`
	Created          time.Time `json:"created"`
	HasVerifiedBadge bool      `json:"hasVerifiedBadge"`
}

type batchResponse struct {
	Data []BatchInfo `json:"data"`
}

// DetailedInfo is the full per-group record from the detailed-info
// endpoint.
type DetailedInfo struct {
	ID                  GroupId        `json:"id"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	Owner               *DetailedOwner `json:"owner"`
	MemberCount         uint64         `json:"memberCount"`
	IsBuildersClubOnly  bool           `json:"isBuildersClubOnly"`
	PublicEntryAllowed  bool           `json:"publicEntryAllowed"`
	HasVerifiedBadge    bool           `json:"hasVerifiedBadge"`
	IsLocked            bool           `json:"isLocked"`
}

// ClaimEligible reports whether a just-fetched DetailedInfo is a valid
// claim candidate: unowned, publicly joinable, unlocked.
func (d DetailedInfo) ClaimEligible() bool {
	return d.Owner == nil && d.PublicEntryAllowed && !d.IsLocked
}

// Metadata is the account-level group metadata snapshot captured once at
// startup.
type Metadata struct {
	GroupLimit        uint16 `json:"groupLimit"`
	CurrentGroupCount uint16 `json:"currentGroupCount"`
}

// AuthenticatedUser identifies the account the authenticated client is
// acting as.
type AuthenticatedUser struct {
	ID          GroupId `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
}

// Funds is the liquid currency balance held by a group, as returned by the
// economy endpoint. Kept as a named type rather than a bare uint64 so the
// funds-threshold comparison in the claim worker reads as a domain
// comparison.
type Funds uint64

type fundsResponse struct {
	Robux Funds `json:"robux"`
}

// Empty is the decoded shape of the mutating endpoints (join, claim,
// remove-member), which return no payload on success.
type Empty struct{}
