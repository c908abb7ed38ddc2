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

// Package proxypool reads newline-delimited proxy list files and turns
// each line into a ready-to-use http.RoundTripper, one per scanner
// worker. http:// lines become a stdlib-forwarding transport; socks5://
// lines are dialed through golang.org/x/net/proxy, the SOCKS5 client the
// wider example corpus already depends on.
package proxypool

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/proxy"
)

// Proxy is one usable outbound identity: its original address and the
// RoundTripper a scanner worker's http.Client should use.
type Proxy struct {
	Address   string
	Transport http.RoundTripper
}

// Loader reads proxy list files, tolerating missing/empty files per the
// spec's startup contract (only an empty combined list is fatal).
type Loader struct {
	Warn func(format string, args ...any)
}

func (l *Loader) warnf(format string, args ...any) {
	if l.Warn != nil {
		l.Warn(format, args...)
	}
}

// readLines returns the non-blank lines of path, or nil with a warning if
// the file cannot be read.
func (l *Loader) readLines(path, what string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.warnf("failed to read %s at %s: %v", what, path, err)
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Load reads httpPath and socks5Path and builds one Proxy per valid line.
// Lines that fail to parse as a URL are warned and skipped, not fatal —
// only an empty combined result is a startup failure (returned by the
// caller checking len(proxies) == 0).
func (l *Loader) Load(httpPath, socks5Path string) []Proxy {
	var proxies []Proxy

	for _, line := range l.readLines(httpPath, "http proxies") {
		addr := "http://" + line
		p, err := l.buildHTTPProxy(addr)
		if err != nil {
			l.warnf("failed to create proxy from %q: %v", addr, err)
			continue
		}
		proxies = append(proxies, p)
	}

	for _, line := range l.readLines(socks5Path, "socks5 proxies") {
		addr := "socks5://" + line
		p, err := l.buildSOCKS5Proxy(addr)
		if err != nil {
			l.warnf("failed to create proxy from %q: %v", addr, err)
			continue
		}
		proxies = append(proxies, p)
	}

	return proxies
}

func (l *Loader) buildHTTPProxy(addr string) (Proxy, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return Proxy{}, err
	}
	transport := &http.Transport{Proxy: http.ProxyURL(u)}
	return Proxy{Address: addr, Transport: transport}, nil
}

func (l *Loader) buildSOCKS5Proxy(addr string) (Proxy, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return Proxy{}, err
	}
	if u.Host == "" {
		return Proxy{}, fmt.Errorf("proxypool: missing host in %q", addr)
	}

	var auth *proxy.Auth
	if u.User != nil {
		password, _ := u.User.Password()
		auth = &proxy.Auth{User: u.User.Username(), Password: password}
	}

	dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
	if err != nil {
		return Proxy{}, err
	}
	transport := &http.Transport{Dial: dialer.Dial}
	return Proxy{Address: addr, Transport: transport}, nil
}
