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
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/grouphunter/internal/config"
)

// settingsFlags is the overrides flag set shared by run, probe and config.
// The caller parses fs against its own argv slice, then overrides()
// yields the Settings overlay.
type settingsFlags struct {
	fs              *flag.FlagSet
	browserID       *string
	cookie          *string
	retryLimit      *int
	fundsThreshold  *uint64
	httpProxyPath   *string
	socks5ProxyPath *string
	userAgent       *string
	timeoutMs       *int64
	connectMs       *int64
	batchWaitMs     *int64
	detailedWaitMs  *int64
	metricsAddr     *string
}

func newSettingsFlags(name string) *settingsFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &settingsFlags{
		fs:              fs,
		browserID:       fs.String("browser-id", "", "Browser identity cookie value"),
		cookie:          fs.String("cookie", "", "Session cookie (.ROBLOSECURITY)"),
		retryLimit:      fs.Int("retry-limit", 0, "Consecutive non-rate-limit failures before a proxy is retired"),
		fundsThreshold:  fs.Uint64("funds-threshold", 0, "Minimum funds to keep a claimed group"),
		httpProxyPath:   fs.String("http-proxies", "", "Path to a newline-delimited http proxy list"),
		socks5ProxyPath: fs.String("socks5-proxies", "", "Path to a newline-delimited socks5 proxy list"),
		userAgent:       fs.String("user-agent", "", "User-Agent header for outbound requests"),
		timeoutMs:       fs.Int64("timeout-ms", 0, "Total request timeout in milliseconds"),
		connectMs:       fs.Int64("connect-timeout-ms", 0, "Connect timeout in milliseconds"),
		batchWaitMs:     fs.Int64("batch-wait-ms", 0, "Pacing interval between batch calls, per proxy"),
		detailedWaitMs:  fs.Int64("detailed-wait-ms", 0, "Pacing interval between detailed calls, per proxy"),
		metricsAddr:     fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)"),
	}
}

func (f *settingsFlags) overrides() config.Settings {
	return config.Settings{
		BrowserID:        *f.browserID,
		Cookie:           *f.cookie,
		RetryLimit:       *f.retryLimit,
		FundsThreshold:   *f.fundsThreshold,
		HTTPProxyPath:    *f.httpProxyPath,
		SOCKS5ProxyPath:  *f.socks5ProxyPath,
		UserAgent:        *f.userAgent,
		MetricsAddr:      *f.metricsAddr,
		TimeoutMs:        *f.timeoutMs,
		ConnectTimeoutMs: *f.connectMs,
		BatchWaitMs:      *f.batchWaitMs,
		DetailedWaitMs:   *f.detailedWaitMs,
	}
}
