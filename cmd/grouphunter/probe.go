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
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/kraklabs/grouphunter/internal/clierr"
	"github.com/kraklabs/grouphunter/internal/ui"
	"github.com/kraklabs/grouphunter/pkg/groupsapi"
	"github.com/kraklabs/grouphunter/pkg/prober"
)

// runProbe runs only the ID-range prober (§4.3) and prints the highest
// discovered ID, for operators sizing proxy counts before a full run.
func runProbe(args []string, configPath string, globals GlobalFlags) {
	sf := newSettingsFlags("probe")
	if err := sf.fs.Parse(args); err != nil {
		clierr.FatalError(clierr.NewInputError("Invalid probe flags", err.Error(), "", err), globals.JSON)
	}

	userAgent := *sf.userAgent
	if userAgent == "" {
		userAgent = "Mozilla/5.0"
	}

	transport := userAgentTransport{next: http.DefaultTransport, userAgent: userAgent}
	client := groupsapi.NewClient(groupsapi.NewHTTPClient(transport, 0, 0))
	highest, err := prober.FindHighestGroupID(context.Background(), client, groupsapi.MaxBatchSize)
	if err != nil {
		clierr.FatalError(clierr.NewNetworkError("ID-range probe failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{"highest_group_id": highest})
		return
	}
	fmt.Printf("%s %s\n", ui.Label("highest group id"), highest)
}
