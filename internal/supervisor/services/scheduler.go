// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/models"
	"github.com/framebridge/framebridge/internal/thumbsync"
)

// SyncEngine is the slice of the thumbnail engine the scheduler drives.
type SyncEngine interface {
	Sync(ctx context.Context, sel thumbsync.Selector, opts thumbsync.Options) (*models.SyncReport, error)
	LastReport() *models.SyncReport
}

// SyncSchedulerConfig assembles a SyncScheduler.
type SyncSchedulerConfig struct {
	Engine SyncEngine

	// Interval between periodic runs. Zero disables the ticker; runs then
	// only happen via Trigger.
	Interval time.Duration

	// DefaultSelector and DefaultOptions apply to ticker runs and to
	// TriggerDefault.
	DefaultSelector thumbsync.Selector
	DefaultOptions  thumbsync.Options
}

type syncRequest struct {
	sel  thumbsync.Selector
	opts thumbsync.Options
}

// SyncScheduler serializes sync runs. Periodic runs come from the interval
// ticker; on-demand runs come through Trigger. At most one run is active and
// at most one is queued.
type SyncScheduler struct {
	engine      SyncEngine
	interval    time.Duration
	defaultSel  thumbsync.Selector
	defaultOpts thumbsync.Options

	trigger chan syncRequest
	busy    atomic.Bool
	logger  zerolog.Logger
}

// NewSyncScheduler creates the scheduler.
func NewSyncScheduler(cfg SyncSchedulerConfig) *SyncScheduler {
	return &SyncScheduler{
		engine:      cfg.Engine,
		interval:    cfg.Interval,
		defaultSel:  cfg.DefaultSelector,
		defaultOpts: cfg.DefaultOptions,
		trigger:     make(chan syncRequest, 1),
		logger:      logging.WithComponent("scheduler"),
	}
}

// Trigger queues an on-demand run. It returns thumbsync.ErrSyncInProgress
// without blocking when a run is active or already queued.
func (s *SyncScheduler) Trigger(sel thumbsync.Selector, opts thumbsync.Options) error {
	if s.busy.Load() {
		return thumbsync.ErrSyncInProgress
	}
	select {
	case s.trigger <- syncRequest{sel: sel, opts: opts}:
		return nil
	default:
		return thumbsync.ErrSyncInProgress
	}
}

// TriggerDefault queues a run with the configured defaults. Queue-full is
// ignored: a run is already pending, which is what the caller wanted.
func (s *SyncScheduler) TriggerDefault() {
	_ = s.Trigger(s.defaultSel, s.defaultOpts)
}

// LastReport returns the most recent run's report, nil before the first run.
func (s *SyncScheduler) LastReport() *models.SyncReport {
	return s.engine.LastReport()
}

// Serve implements suture.Service.
func (s *SyncScheduler) Serve(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.trigger:
			s.run(ctx, req.sel, req.opts)
		case <-tick:
			s.run(ctx, s.defaultSel, s.defaultOpts)
		}
	}
}

func (s *SyncScheduler) run(ctx context.Context, sel thumbsync.Selector, opts thumbsync.Options) {
	s.busy.Store(true)
	defer s.busy.Store(false)

	start := time.Now()
	report, err := s.engine.Sync(ctx, sel, opts)
	switch {
	case err == nil:
		s.logger.Info().
			Str("selector", sel.String()).
			Int("downloaded", report.DownloadedCount()).
			Int("skipped", report.SkippedCount()).
			Int("failed", report.FailedCount()).
			Int("deleted", report.DeletedCount()).
			Dur("elapsed", time.Since(start)).
			Msg("Sync run complete")
	case errors.Is(err, context.Canceled):
		// Shutdown mid-run; the partial report is already recorded.
	default:
		s.logger.Warn().
			Err(err).
			Str("selector", sel.String()).
			Msg("Sync run failed")
	}
}

// String implements fmt.Stringer for suture logging.
func (s *SyncScheduler) String() string {
	return "sync-scheduler"
}
