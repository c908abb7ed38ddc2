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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/grouphunter/internal/clierr"
	"github.com/kraklabs/grouphunter/internal/config"
	"github.com/kraklabs/grouphunter/internal/logging"
	"github.com/kraklabs/grouphunter/internal/ui"
	"github.com/kraklabs/grouphunter/pkg/groupsapi"
	"github.com/kraklabs/grouphunter/pkg/pipeline"
	"github.com/kraklabs/grouphunter/pkg/prober"
	"github.com/kraklabs/grouphunter/pkg/proxypool"
)

const browserIdentityCookie = "RBXEventTrackerV2"

// userAgentTransport injects a fixed User-Agent header ahead of the
// wrapped RoundTripper (http.DefaultTransport or a pkg/proxypool
// transport).
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}

func runRun(args []string, configPath string, globals GlobalFlags) {
	sf := newSettingsFlags("run")
	if err := sf.fs.Parse(args); err != nil {
		clierr.FatalError(clierr.NewInputError("Invalid run flags", err.Error(), "", err), globals.JSON)
	}

	cfg, err := config.Load(configPath, sf.overrides())
	if err != nil {
		clierr.FatalError(err, globals.JSON)
	}

	loader := &proxypool.Loader{Warn: func(format string, a ...any) { ui.Warningf(format, a...) }}
	proxies := loader.Load(cfg.HTTPProxyPath, cfg.SOCKS5ProxyPath)
	if len(proxies) == 0 {
		clierr.FatalError(clierr.NewInputError(
			"No proxies provided",
			"both the http and socks5 proxy lists were empty or unreadable",
			"populate http_path/socks5_path with at least one proxy",
			nil,
		), globals.JSON)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	authTransport := userAgentTransport{next: http.DefaultTransport, userAgent: cfg.UserAgent}
	authHTTP := groupsapi.NewHTTPClient(authTransport, cfg.ConnectTimeout, cfg.Timeout)
	auth := groupsapi.NewAuthClient(authHTTP, cfg.Cookie)
	auth.InsertCookie(browserIdentityCookie, cfg.BrowserID)

	metadata, err := auth.GetMetadata(ctx)
	if err != nil {
		clierr.FatalError(clierr.NewNetworkError("Cannot fetch group metadata", err.Error(), "check that the session cookie is still valid", err), globals.JSON)
	}
	self, err := auth.GetAuthenticatedUser(ctx)
	if err != nil {
		clierr.FatalError(clierr.NewNetworkError("Cannot fetch authenticated user", err.Error(), "check that the session cookie is still valid", err), globals.JSON)
	}

	ui.Header("GroupHunter")
	fmt.Printf("%s %s (%d)\n", ui.Label("account"), self.Name, self.ID)
	fmt.Printf("%s %d/%d\n", ui.Label("groups owned"), metadata.CurrentGroupCount, metadata.GroupLimit)
	fmt.Printf("%s %d\n", ui.Label("proxies"), len(proxies))

	probeClient := groupsapi.NewClient(groupsapi.NewHTTPClient(userAgentTransport{next: http.DefaultTransport, userAgent: cfg.UserAgent}, cfg.ConnectTimeout, cfg.Timeout))
	highest, err := prober.FindHighestGroupID(ctx, probeClient, groupsapi.MaxBatchSize)
	if err != nil {
		clierr.FatalError(clierr.NewNetworkError("ID-range probe failed", err.Error(), "", err), globals.JSON)
	}
	fmt.Printf("%s %s\n", ui.Label("highest group id"), highest)

	queues := pipeline.NewQueues(highest, int(metadata.GroupLimit))
	queues.Seed(highest)
	metrics := pipeline.NewMetrics(metadata.CurrentGroupCount)

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr, metrics)
	}

	statusBar := pipeline.NewStatusBar()
	verbosity := globals.Verbose
	if globals.Quiet {
		verbosity = -1
	}
	logger := logging.New(verbosity, statusBar)

	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	for i, p := range proxies {
		proxyName := fmt.Sprintf("proxy-%d(%s)", i, p.Address)
		httpClient := groupsapi.NewHTTPClient(userAgentTransport{next: p.Transport, userAgent: cfg.UserAgent}, cfg.ConnectTimeout, cfg.Timeout)
		client := groupsapi.NewClient(httpClient)

		batchWorker := pipeline.NewBatchWorker(client, queues, metrics, logger, pipeline.BatchWorkerConfig{
			RetryLimit: cfg.RetryLimit, BatchWait: cfg.BatchWait, ProxyName: proxyName,
		})
		detailedWorker := pipeline.NewDetailedWorker(client, queues, metrics, logger, pipeline.DetailedWorkerConfig{
			RetryLimit: cfg.RetryLimit, DetailedWait: cfg.DetailedWait, ProxyName: proxyName,
		})

		wg.Add(2)
		go func() { defer wg.Done(); batchWorker.Run(workerCtx) }()
		go func() { defer wg.Done(); detailedWorker.Run(workerCtx) }()
	}

	claimWorker := pipeline.NewClaimWorker(auth, queues, metrics, logger, pipeline.ClaimWorkerConfig{
		FundsThreshold: groupsapi.Funds(cfg.FundsThreshold),
		GroupLimit:     metadata.GroupLimit,
		SelfID:         self.ID,
	})

	claimDone := make(chan error, 1)
	go func() { claimDone <- claimWorker.Run(workerCtx) }()

	go pipeline.RunStatusLoop(workerCtx, metrics, queues, time.Now(), statusBar)

	var exitErr error
	select {
	case <-ctx.Done():
	case exitErr = <-claimDone:
	}
	stopWorkers()
	wg.Wait()
	statusBar.Finish()

	switch {
	case errors.Is(exitErr, pipeline.ErrCaptcha):
		logger.Error("run.captcha_fatal", "err", exitErr)
		os.Exit(1)
	case errors.Is(exitErr, pipeline.ErrGroupLimitReached):
		ui.Successf("group limit reached, exiting cleanly")
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func startMetricsServer(addr string, m *pipeline.Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "grouphunter_groups_owned", Help: "Current number of groups owned by the account.",
	}, func() float64 { return float64(m.GroupsOwned.Load()) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "grouphunter_groups_claimed_total", Help: "Total groups claimed and kept this run.",
	}, func() float64 { return float64(m.GroupsClaimed.Load()) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "grouphunter_batch_checks_total", Help: "Total groups observed via the batch endpoint.",
	}, func() float64 { return float64(m.BatchChecks.Load()) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "grouphunter_batch_proxies", Help: "Currently running batch-stage proxy workers.",
	}, func() float64 { return float64(m.BatchProxies.Load()) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "grouphunter_robux_claimed_total", Help: "Total Robux claimed this run.",
	}, func() float64 { return float64(m.RobuxClaimed.Load()) }))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
