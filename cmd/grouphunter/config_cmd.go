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
	"encoding/json"
	"fmt"
	"os"

	"github.com/kraklabs/grouphunter/internal/clierr"
	"github.com/kraklabs/grouphunter/internal/config"
	"github.com/kraklabs/grouphunter/internal/ui"
)

// runConfigCmd prints the effective merged configuration (flags > file >
// defaults), redacting the session cookie.
func runConfigCmd(args []string, configPath string, globals GlobalFlags) {
	sf := newSettingsFlags("config")
	if err := sf.fs.Parse(args); err != nil {
		clierr.FatalError(clierr.NewInputError("Invalid config flags", err.Error(), "", err), globals.JSON)
	}

	cfg, err := config.Load(configPath, sf.overrides())
	if err != nil {
		clierr.FatalError(err, globals.JSON)
	}
	redacted := cfg.Redacted()

	if globals.JSON {
		_ = json.NewEncoder(os.Stdout).Encode(redacted)
		return
	}

	ui.Header("Effective configuration")
	fmt.Printf("%s %s\n", ui.Label("browser_id"), redacted.BrowserID)
	fmt.Printf("%s %s\n", ui.Label("cookie"), redacted.Cookie)
	fmt.Printf("%s %d\n", ui.Label("retry_limit"), redacted.RetryLimit)
	fmt.Printf("%s %d\n", ui.Label("funds_threshold"), redacted.FundsThreshold)
	fmt.Printf("%s %s\n", ui.Label("http_path"), redacted.HTTPProxyPath)
	fmt.Printf("%s %s\n", ui.Label("socks5_path"), redacted.SOCKS5ProxyPath)
	fmt.Printf("%s %s\n", ui.Label("user_agent"), redacted.UserAgent)
	fmt.Printf("%s %s\n", ui.Label("timeout"), redacted.Timeout)
	fmt.Printf("%s %s\n", ui.Label("connect_timeout"), redacted.ConnectTimeout)
	fmt.Printf("%s %s\n", ui.Label("batch_wait"), redacted.BatchWait)
	fmt.Printf("%s %s\n", ui.Label("detailed_wait"), redacted.DetailedWait)
	fmt.Printf("%s %s\n", ui.Label("metrics_addr"), redacted.MetricsAddr)
}
