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

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/grouphunter/internal/ui"
	"github.com/kraklabs/grouphunter/pkg/groupsapi"
)

// measureTrials mirrors the standalone rate-limit measurement tool this
// command is modeled on: run a burst until rate-limited, then measure the
// cooldown, repeated trials times.
const measureTrials = 20

// runMeasure hammers the batch and detailed endpoints directly (no
// proxy) until rate-limited, reporting achieved throughput and cooldown.
// A diagnostic aid for tuning batch_wait/detailed_wait; not part of the
// claim/scan path.
func runMeasure(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("measure", flag.ExitOnError)
	trials := fs.Int("trials", measureTrials, "Number of burst/cooldown cycles to measure")
	_ = fs.Parse(args)

	client := groupsapi.NewClient(groupsapi.NewHTTPClient(http.DefaultTransport, 0, 0))
	ids := make([]groupsapi.GroupId, groupsapi.MaxBatchSize)
	for i := range ids {
		ids[i] = groupsapi.MustGroupId(int64(i + 1))
	}

	ui.Header("Measuring batch endpoint")
	measureBurstCooldown(*trials, func(ctx context.Context) error {
		_, err := client.GetBatchInfo(ctx, ids)
		return err
	})

	ui.Header("Measuring detailed endpoint")
	measureBurstCooldown(*trials, func(ctx context.Context) error {
		_, err := client.GetDetailedInfo(ctx, groupsapi.MustGroupId(1))
		return err
	})
}

// measureBurstCooldown runs trials cycles of: call repeatedly until
// rate-limited, print requests/duration, then call repeatedly until a
// call succeeds again and print the cooldown duration.
func measureBurstCooldown(trials int, call func(ctx context.Context) error) {
	ctx := context.Background()
	for trial := 1; trial <= trials; trial++ {
		var requests int64
		start := time.Now()
		for {
			err := call(ctx)
			if groupsapi.IsRateLimited(err) {
				break
			}
			requests++
		}
		fmt.Printf("trial %d: made %d requests in %s\n", trial, requests, time.Since(start))

		cooldownStart := time.Now()
		for {
			if err := call(ctx); err == nil {
				break
			}
		}
		fmt.Printf("trial %d: rate limited for %s\n", trial, time.Since(cooldownStart))
	}
}
