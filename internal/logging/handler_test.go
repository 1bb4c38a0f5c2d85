// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ituhouse/ituhouse-web/internal/store"
	"github.com/ituhouse/ituhouse-web/internal/testutil"
)

func newTestLogger(t *testing.T) (*slog.Logger, *store.Queries, func()) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := NewEventLogHandler(inner, db)
	return slog.New(handler), store.New(db), cleanup
}

func TestEventLogHandler_WarnMirrored(t *testing.T) {
	logger, queries, cleanup := newTestLogger(t)
	defer cleanup()

	logger.Warn("login rate limited", "ip", "10.0.0.1")

	events, err := queries.ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Level != store.EventLevelWarning {
		t.Errorf("level = %q", e.Level)
	}
	if e.Message != "login rate limited" {
		t.Errorf("message = %q", e.Message)
	}
	if !strings.Contains(e.Metadata, `"ip":"10.0.0.1"`) {
		t.Errorf("metadata = %q", e.Metadata)
	}
}

func TestEventLogHandler_ErrorLevel(t *testing.T) {
	logger, queries, cleanup := newTestLogger(t)
	defer cleanup()

	logger.Error("api unreachable")

	events, _ := queries.ListEvents(context.Background(), 10)
	if len(events) != 1 || events[0].Level != store.EventLevelError {
		t.Fatalf("expected one error event, got %+v", events)
	}
}

func TestEventLogHandler_InfoNotMirrored(t *testing.T) {
	logger, queries, cleanup := newTestLogger(t)
	defer cleanup()

	logger.Info("server started")
	logger.Debug("noise")

	events, _ := queries.ListEvents(context.Background(), 10)
	if len(events) != 0 {
		t.Fatalf("INFO/DEBUG must not reach the event log, got %d events", len(events))
	}
}

func TestEventLogHandler_CategoryAttribute(t *testing.T) {
	logger, queries, cleanup := newTestLogger(t)
	defer cleanup()

	logger.Warn("user role changed", "category", CategoryAuth, "user_id", "u1")

	events, _ := queries.ListEvents(context.Background(), 10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != CategoryAuth {
		t.Errorf("category = %q, want %q", events[0].Category, CategoryAuth)
	}
	if strings.Contains(events[0].Metadata, "category") {
		t.Errorf("category attr must not leak into metadata: %q", events[0].Metadata)
	}
}

func TestEventLogHandler_CategoryFromMessage(t *testing.T) {
	logger, queries, cleanup := newTestLogger(t)
	defer cleanup()

	tests := []struct {
		message string
		want    string
	}{
		{"login failed", CategoryAuth},
		{"image upload rejected", CategoryUpload},
		{"cache stats degraded", CategoryCache},
		{"something odd", CategorySystem},
	}
	for _, tt := range tests {
		logger.Warn(tt.message)
	}

	events, _ := queries.ListEvents(context.Background(), 10)
	if len(events) != len(tests) {
		t.Fatalf("expected %d events, got %d", len(tests), len(events))
	}
	// ListEvents is newest first; compare against reversed expectations
	for i, tt := range tests {
		e := events[len(events)-1-i]
		if e.Category != tt.want {
			t.Errorf("message %q: category = %q, want %q", tt.message, e.Category, tt.want)
		}
	}
}

func TestExtractMetadata_Escaping(t *testing.T) {
	r := slog.NewRecord(time.Now(), slog.LevelWarn, "msg", 0)
	r.AddAttrs(slog.String("note", "line1\nline2 \"quoted\""))

	got := extractMetadata(r)
	if !strings.Contains(got, `\n`) || !strings.Contains(got, `\"quoted\"`) {
		t.Errorf("metadata not escaped: %q", got)
	}
}
