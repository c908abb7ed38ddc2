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

// Package logging wires up the process's single *slog.Logger, with an
// optional suspend hook so log lines never interleave with the live
// status line (the "suspend during write" mechanism §4.8 requires).
package logging

import (
	"context"
	"log/slog"
	"os"
)

// Suspender is satisfied by pkg/pipeline.StatusBar: clear the status
// line, run fn, then redraw.
type Suspender interface {
	Suspend(fn func())
}

// suspendingHandler wraps a slog.Handler, routing every Handle call
// through a Suspender so the status renderer clears its line first.
type suspendingHandler struct {
	inner     slog.Handler
	suspender Suspender
}

func (h *suspendingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *suspendingHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	h.suspender.Suspend(func() {
		err = h.inner.Handle(ctx, record)
	})
	return err
}

func (h *suspendingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &suspendingHandler{inner: h.inner.WithAttrs(attrs), suspender: h.suspender}
}

func (h *suspendingHandler) WithGroup(name string) slog.Handler {
	return &suspendingHandler{inner: h.inner.WithGroup(name), suspender: h.suspender}
}

// New builds a leveled text logger. When suspender is non-nil, every
// write is wrapped so it never interleaves with the suspender's own
// rendering.
func New(verbosity int, suspender Suspender) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity <= -1:
		level = slog.LevelError
	}

	handler := slog.Handler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if suspender != nil {
		handler = &suspendingHandler{inner: handler, suspender: suspender}
	}
	return slog.New(handler)
}
