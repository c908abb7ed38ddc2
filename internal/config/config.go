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

// Package config loads the merged CLI-flag/config-file/default settings
// the run command needs: account credentials, proxy list paths, and the
// per-stage tuning knobs. File format is YAML, mirroring the teacher's
// own project.yaml convention; precedence is flags > file > defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/grouphunter/internal/clierr"
	"gopkg.in/yaml.v3"
)

// Settings is the fully merged configuration the run command consumes.
type Settings struct {
	BrowserID      string        `yaml:"browser_id"`
	Cookie         string        `yaml:"cookie"`
	RetryLimit     int           `yaml:"retry_limit"`
	FundsThreshold uint64        `yaml:"funds_threshold"`
	HTTPProxyPath  string        `yaml:"http_path"`
	SOCKS5ProxyPath string       `yaml:"socks5_path"`
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"-"`
	ConnectTimeout time.Duration `yaml:"-"`
	BatchWait      time.Duration `yaml:"-"`
	DetailedWait   time.Duration `yaml:"-"`
	MetricsAddr    string        `yaml:"metrics_addr"`

	// The millisecond-denominated YAML fields below are converted into the
	// time.Duration fields above after merge.
	TimeoutMs        int64 `yaml:"timeout"`
	ConnectTimeoutMs int64 `yaml:"connect_timeout"`
	BatchWaitMs      int64 `yaml:"batch_wait"`
	DetailedWaitMs   int64 `yaml:"detailed_wait"`
}

// Defaults returns the spec's stated defaults: retry_limit=5,
// funds_threshold=0, timeout=30s, connect_timeout=10s, batch_wait=625ms,
// detailed_wait=8000ms.
func Defaults() Settings {
	return Settings{
		RetryLimit:       5,
		FundsThreshold:   0,
		TimeoutMs:        30_000,
		ConnectTimeoutMs: 10_000,
		BatchWaitMs:      625,
		DetailedWaitMs:   8_000,
		UserAgent:        "Mozilla/5.0",
	}
}

// Load reads configPath (if non-empty) as YAML over Defaults(), then lets
// every non-zero field in overrides win, matching the teacher's
// flags > file > defaults precedence.
func Load(configPath string, overrides Settings) (*Settings, error) {
	cfg := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, clierr.NewConfigError(
				"Cannot read configuration file",
				fmt.Sprintf("failed to read %s", configPath),
				"check the path passed to --config",
				err,
			)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, clierr.NewConfigError(
				"Invalid configuration format",
				"YAML parsing failed",
				"fix the syntax error reported above",
				err,
			)
		}
	}

	cfg.applyOverrides(overrides)
	cfg.resolveDurations()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Settings) applyOverrides(o Settings) {
	if o.BrowserID != "" {
		c.BrowserID = o.BrowserID
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.RetryLimit != 0 {
		c.RetryLimit = o.RetryLimit
	}
	if o.FundsThreshold != 0 {
		c.FundsThreshold = o.FundsThreshold
	}
	if o.HTTPProxyPath != "" {
		c.HTTPProxyPath = o.HTTPProxyPath
	}
	if o.SOCKS5ProxyPath != "" {
		c.SOCKS5ProxyPath = o.SOCKS5ProxyPath
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.MetricsAddr != "" {
		c.MetricsAddr = o.MetricsAddr
	}
	if o.TimeoutMs != 0 {
		c.TimeoutMs = o.TimeoutMs
	}
	if o.ConnectTimeoutMs != 0 {
		c.ConnectTimeoutMs = o.ConnectTimeoutMs
	}
	if o.BatchWaitMs != 0 {
		c.BatchWaitMs = o.BatchWaitMs
	}
	if o.DetailedWaitMs != 0 {
		c.DetailedWaitMs = o.DetailedWaitMs
	}
}

func (c *Settings) resolveDurations() {
	c.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	c.ConnectTimeout = time.Duration(c.ConnectTimeoutMs) * time.Millisecond
	c.BatchWait = time.Duration(c.BatchWaitMs) * time.Millisecond
	c.DetailedWait = time.Duration(c.DetailedWaitMs) * time.Millisecond
}

// validate enforces the spec's fatal-at-startup rules: missing
// browser_id/cookie. The empty-proxy-list check happens later, once the
// proxy files are actually read, since it needs pkg/proxypool's output.
func (c *Settings) validate() error {
	if c.BrowserID == "" {
		return clierr.NewConfigError(
			"Missing browser_id",
			"the account's browser identity cookie value was not provided",
			"set browser_id in the config file or pass --browser-id",
			nil,
		)
	}
	if c.Cookie == "" {
		return clierr.NewConfigError(
			"Missing cookie",
			"the account's session cookie was not provided",
			"set cookie in the config file or pass --cookie",
			nil,
		)
	}
	return nil
}

// Redacted returns a copy of s with the cookie blanked out, for the
// config subcommand's printed output.
func (s Settings) Redacted() Settings {
	r := s
	if r.Cookie != "" {
		r.Cookie = "***redacted***"
	}
	return r
}
