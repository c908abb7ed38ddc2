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

// Package prober locates the highest existing group ID by narrowing a
// [low, high] bracket with the batch-info endpoint, exactly as described
// for the ID-Range Prober component.
package prober

import (
	"context"
	"fmt"

	"github.com/kraklabs/grouphunter/pkg/groupsapi"
)

// BatchInfoFetcher is the one capability the prober needs: a batch-info
// lookup. *groupsapi.Client satisfies this directly.
type BatchInfoFetcher interface {
	GetBatchInfo(ctx context.Context, ids []groupsapi.GroupId) ([]groupsapi.BatchInfo, error)
}

const maxID = int64(1) << 62 // comfortably inside GroupId's valid range, used as the probe's initial "known absent" bound

// GetPartitioningIds picks up to k ids strictly inside (low, high), as
// evenly spaced as possible, ascending, with no duplicates. When the
// search space is small enough to enumerate outright it returns every id
// in (low, high) instead of partitioning.
func GetPartitioningIds(low, high groupsapi.GroupId, k int) ([]groupsapi.GroupId, error) {
	if low >= high {
		return nil, fmt.Errorf("prober: low (%d) must be less than high (%d)", low, high)
	}
	if k < 1 {
		return nil, fmt.Errorf("prober: k must be >= 1, got %d", k)
	}

	searchSpace := int64(high) - int64(low) - 1
	if searchSpace <= int64(k) {
		ids := make([]groupsapi.GroupId, 0, searchSpace)
		for id := int64(low) + 1; id < int64(high); id++ {
			ids = append(ids, groupsapi.GroupId(id))
		}
		return ids, nil
	}

	ids := make([]groupsapi.GroupId, 0, k)
	spaceToPartition := searchSpace - int64(k)
	numPartitions := int64(k) + 1
	partitionSize := spaceToPartition / numPartitions
	leftover := spaceToPartition % numPartitions

	last := int64(low)
	for i := 0; i < k; i++ {
		next := last + partitionSize + 1
		if leftover > 0 {
			next++
			leftover--
		}
		ids = append(ids, groupsapi.GroupId(next))
		last = next
	}
	return ids, nil
}

// FindHighestGroupID narrows [1, maxID] down to the largest existing
// GroupId, making O(log_101(N)) batch-info calls along the way.
func FindHighestGroupID(ctx context.Context, client BatchInfoFetcher, batchSize int) (groupsapi.GroupId, error) {
	low := groupsapi.GroupId(1)
	high := groupsapi.GroupId(maxID)

	for int64(high)-int64(low) > 1 {
		partitions, err := GetPartitioningIds(low, high, batchSize)
		if err != nil {
			return 0, err
		}

		results, err := client.GetBatchInfo(ctx, partitions)
		if err != nil {
			return 0, err
		}

		if len(results) == 0 {
			high = partitions[0]
			continue
		}

		maxPresent := results[len(results)-1].ID
		low = maxPresent

		idx := -1
		for i, p := range partitions {
			if p == maxPresent {
				idx = i
				break
			}
		}
		if idx == -1 || idx+1 >= len(partitions) {
			// maxPresent came from the edge; high stays as it was unless
			// it was the last partition, in which case high is already
			// correct as the loop bound.
			continue
		}
		high = partitions[idx+1]
	}

	return low, nil
}
