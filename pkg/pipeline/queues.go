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

// Package pipeline is the discovery-and-claim engine: the queue fabric and
// the batch, detailed, and claim worker loops that drain it. It is the
// part of the program that turns a raw ID space into claimed groups.
package pipeline

import "github.com/kraklabs/grouphunter/pkg/groupsapi"

// TrackedGroup is an ID in flight through the batch stage, carrying
// whether it has already been through one batch-stage pass (owned or
// not). Promotion to the detailed stage requires an owner-less
// observation on a pass after the first.
type TrackedGroup struct {
	ID              groupsapi.GroupId
	ProcessedBefore bool
}

// Queues is the fabric wiring the pipeline together: a main/priority pair
// for each of the batch and detailed stages, plus the single claim lane.
// batch_main and batch_priority are sized to the id space (bounded, per
// the spec, though in practice this never applies backpressure since the
// prober seed fills the channel once); detailed (and claim, unless
// NewQueues is given a claim capacity) are large buffered channels
// standing in for "unbounded" — Go has no native
// unbounded channel, and a worker-owned growable ring would add
// complexity the pipeline's semantics don't need.
type Queues struct {
	BatchMain        chan TrackedGroup
	BatchPriority    chan TrackedGroup
	DetailedMain     chan groupsapi.GroupId
	DetailedPriority chan groupsapi.GroupId
	Claim            chan groupsapi.GroupId
}

// unboundedCapacity stands in for "unbounded" per TrackedGroup/GroupId
// channel, large enough that a full run never blocks a producer on it in
// practice.
const unboundedCapacity = 1 << 20

// NewQueues builds the queue fabric. highestID sizes the bounded batch
// channels; claimCapacity sizes the claim channel when the caller wants
// the bounded "claim channel full" gate from the detailed worker (§4.6)
// to be meaningful — pass 0 to get the unbounded variant.
func NewQueues(highestID groupsapi.GroupId, claimCapacity int) *Queues {
	batchCap := int(highestID)
	if batchCap <= 0 {
		batchCap = 1
	}
	claimCap := claimCapacity
	if claimCap <= 0 {
		claimCap = unboundedCapacity
	}
	return &Queues{
		BatchMain:        make(chan TrackedGroup, batchCap),
		BatchPriority:    make(chan TrackedGroup, batchCap),
		DetailedMain:     make(chan groupsapi.GroupId, unboundedCapacity),
		DetailedPriority: make(chan groupsapi.GroupId, unboundedCapacity),
		Claim:            make(chan groupsapi.GroupId, claimCap),
	}
}

// ClaimIsFull reports whether the claim channel is at capacity, the gate
// §4.6 uses to stop promoting detailed-stage candidates. It is always
// false when the claim channel is unbounded (cap == unboundedCapacity),
// matching the spec's "no-op in the unbounded variant" rule.
func (q *Queues) ClaimIsFull() bool {
	if cap(q.Claim) == unboundedCapacity {
		return false
	}
	return len(q.Claim) >= cap(q.Claim)
}

// Seed fills batch_main with one TrackedGroup per id in [1, highestID],
// the prober's one-shot production into the pipeline.
func (q *Queues) Seed(highestID groupsapi.GroupId) {
	for i := int64(1); i <= int64(highestID); i++ {
		q.BatchMain <- TrackedGroup{ID: groupsapi.GroupId(i)}
	}
}

// drainPriorityThenMain implements the priority discipline shared by the
// batch and detailed loops: try the priority channel first with a
// non-blocking receive, then main, returning ok=false if both are
// momentarily empty.
func drainPriorityThenMain[T any](priority, main <-chan T) (T, bool) {
	select {
	case v := <-priority:
		return v, true
	default:
	}
	select {
	case v := <-main:
		return v, true
	default:
	}
	var zero T
	return zero, false
}
