// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: pruning old event log
// entries and reporting cache statistics.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ituhouse/ituhouse-web/internal/cache"
	"github.com/ituhouse/ituhouse-web/internal/store"
)

// Scheduler handles scheduled maintenance tasks.
type Scheduler struct {
	db            *sql.DB
	cache         cache.Cache
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance.
func New(db *sql.DB, c cache.Cache, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		db:            db,
		cache:         c,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Prune old events daily at 03:30
	_, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "category", "scheduler", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Report cache stats hourly
	_, err = s.cron.AddFunc("0 * * * *", func() {
		s.reportCacheStats()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	if s.retentionDays <= 0 {
		return nil
	}

	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("pruned old events",
			"category", "scheduler",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return nil
}

// reportCacheStats logs current cache hit/miss counters.
func (s *Scheduler) reportCacheStats() {
	provider, ok := s.cache.(cache.StatsProvider)
	if !ok {
		return
	}
	stats := provider.Stats()
	s.logger.Info("cache stats",
		"category", "cache",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"sets", stats.Sets,
		"items", stats.Items,
		"hit_rate", stats.HitRate,
	)
}
