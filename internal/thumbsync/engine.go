// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package thumbsync reconciles the local thumbnail cache against the TV's
// artwork inventory.
//
// The cache lives under a single root with one subdirectory per content
// origin (personal/, store/, other/) plus a current.jpg mirror of the
// on-screen artwork. Sync runs are serialized; item failures never abort a
// run; orphan cleanup spares anything that failed in the same run.
package thumbsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/metrics"
	"github.com/framebridge/framebridge/internal/models"
)

// SelectorKind chooses which slice of the inventory a sync covers.
type SelectorKind int

const (
	// SelectAll syncs the entire inventory.
	SelectAll SelectorKind = iota

	// SelectFavorites syncs favourited items only.
	SelectFavorites

	// SelectPersonal syncs user uploads only.
	SelectPersonal

	// SelectCategory syncs one explicit category.
	SelectCategory
)

// Selector is the scope of one sync run.
type Selector struct {
	Kind       SelectorKind
	CategoryID string // for SelectCategory
}

// String returns the selector name recorded in reports.
func (s Selector) String() string {
	switch s.Kind {
	case SelectFavorites:
		return "favorites"
	case SelectPersonal:
		return "personal"
	case SelectCategory:
		return "category:" + s.CategoryID
	default:
		return "all"
	}
}

// category maps the selector onto the TV's category parameter.
func (s Selector) category() string {
	switch s.Kind {
	case SelectFavorites:
		return models.CategoryFavorites
	case SelectPersonal:
		return models.CategoryPersonal
	case SelectCategory:
		return s.CategoryID
	default:
		return ""
	}
}

// Options tune one sync run.
type Options struct {
	// ForceDownload re-fetches items even when already cached.
	ForceDownload bool

	// CleanupOrphans removes cached thumbnails whose content no longer
	// exists on the TV. Items that failed in this run are spared.
	CleanupOrphans bool
}

// ErrSyncInProgress is returned when a run is requested while another is
// active. Callers are expected to serialize; this is the backstop.
var ErrSyncInProgress = errors.New("thumbsync: sync already in progress")

// Inventory lists the TV's artwork. Implemented by the art-mode client.
type Inventory interface {
	Available(ctx context.Context, category string) ([]models.ArtworkItem, error)
}

// Fetcher downloads thumbnail bytes. Implemented by the transfer channel.
type Fetcher interface {
	Fetch(ctx context.Context, contentID string) ([]byte, error)
}

// Config assembles an Engine.
type Config struct {
	Inventory Inventory
	Fetcher   Fetcher

	// Root is the cache directory.
	Root string

	// Throttle is the minimum gap between item transfers; zero disables.
	Throttle time.Duration
}

// Engine owns the thumbnail cache.
type Engine struct {
	inv     Inventory
	fetcher Fetcher
	root    string
	limiter *rate.Limiter
	logger  zerolog.Logger

	syncMu sync.Mutex

	lastMu     sync.RWMutex
	lastReport *models.SyncReport
}

// NewEngine creates a sync engine over the given cache root.
func NewEngine(cfg Config) *Engine {
	var limiter *rate.Limiter
	if cfg.Throttle > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.Throttle), 1)
	}
	return &Engine{
		inv:     cfg.Inventory,
		fetcher: cfg.Fetcher,
		root:    cfg.Root,
		limiter: limiter,
		logger:  logging.WithComponent("thumbsync"),
	}
}

// LastReport returns the most recent sync report, or nil before the first run.
func (e *Engine) LastReport() *models.SyncReport {
	e.lastMu.RLock()
	defer e.lastMu.RUnlock()
	return e.lastReport
}

// itemPath returns the cache path for one item.
func (e *Engine) itemPath(item *models.ArtworkItem) string {
	return filepath.Join(e.root, item.Origin.CacheDir(), item.ContentID+".jpg")
}

// CurrentPath returns the path of the current.jpg mirror.
func (e *Engine) CurrentPath() string {
	return filepath.Join(e.root, "current.jpg")
}

// Lookup returns the cached thumbnail path for a content ID, searching every
// origin directory.
func (e *Engine) Lookup(contentID string) (string, bool) {
	for _, dir := range []string{"personal", "store", "other"} {
		path := filepath.Join(e.root, dir, contentID+".jpg")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// EnsureThumbnail returns the thumbnail bytes for one item, fetching and
// caching on a miss.
func (e *Engine) EnsureThumbnail(ctx context.Context, contentID string) ([]byte, error) {
	if path, ok := e.Lookup(contentID); ok {
		return os.ReadFile(path)
	}

	data, err := e.fetcher.Fetch(ctx, contentID)
	if err != nil {
		return nil, err
	}

	item := models.ArtworkItem{ContentID: contentID, Origin: models.OriginOf(contentID)}
	if err := e.writeAtomic(e.itemPath(&item), data); err != nil {
		return nil, err
	}
	return data, nil
}

// SaveCurrent mirrors the on-screen artwork to current.jpg. The mirror is
// never touched by orphan cleanup.
func (e *Engine) SaveCurrent(data []byte) error {
	if err := os.MkdirAll(e.root, 0o750); err != nil {
		return fmt.Errorf("create cache root: %w", err)
	}
	return e.writeAtomic(e.CurrentPath(), data)
}

// Sync reconciles the cache against the live inventory and returns a report.
// Cancellation is honored between items; work already done stays on disk and
// is reported with Partial set.
func (e *Engine) Sync(ctx context.Context, sel Selector, opts Options) (*models.SyncReport, error) {
	if !e.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer e.syncMu.Unlock()

	report := &models.SyncReport{
		Selector:   sel.String(),
		StartedAt:  time.Now(),
		Downloaded: []models.SyncDownload{},
		Skipped:    []string{},
		Failed:     []models.SyncFailure{},
	}

	e.logger.Info().
		Str("selector", report.Selector).
		Bool("force", opts.ForceDownload).
		Bool("cleanup", opts.CleanupOrphans).
		Msg("Sync started")

	if err := e.ensureLayout(); err != nil {
		return nil, err
	}

	items, err := e.inv.Available(ctx, sel.category())
	if err != nil {
		metrics.RecordSyncRun("error", time.Since(report.StartedAt))
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	failed := make(map[string]bool)
	cancelled := false

	for i := range items {
		item := &items[i]

		if ctx.Err() != nil {
			cancelled = true
			break
		}

		path := e.itemPath(item)
		if !opts.ForceDownload {
			if _, err := os.Stat(path); err == nil {
				report.Skipped = append(report.Skipped, item.ContentID)
				continue
			}
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				cancelled = true
				break
			}
		}

		data, err := e.fetcher.Fetch(ctx, item.ContentID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				cancelled = true
				break
			}
			e.logger.Warn().Err(err).Str("content_id", item.ContentID).Msg("Item fetch failed")
			report.Failed = append(report.Failed, models.SyncFailure{
				ContentID: item.ContentID,
				Reason:    err.Error(),
			})
			failed[item.ContentID] = true
			continue
		}

		if err := e.writeAtomic(path, data); err != nil {
			report.Failed = append(report.Failed, models.SyncFailure{
				ContentID: item.ContentID,
				Reason:    err.Error(),
			})
			failed[item.ContentID] = true
			continue
		}

		report.Downloaded = append(report.Downloaded, models.SyncDownload{
			ContentID: item.ContentID,
			Path:      path,
			Bytes:     int64(len(data)),
		})
	}

	if opts.CleanupOrphans && !cancelled {
		// Liveness always comes from the full inventory: a scoped sync
		// must not treat out-of-scope items as orphans.
		liveItems, haveLive := items, true
		if sel.Kind != SelectAll {
			full, err := e.inv.Available(ctx, "")
			if err != nil {
				e.logger.Warn().Err(err).Msg("Skipping orphan cleanup; full inventory unavailable")
				haveLive = false
			} else {
				liveItems = full
			}
		}
		if haveLive {
			report.Deleted = e.cleanupOrphans(liveItems, failed)
		}
	}

	report.Duration = time.Since(report.StartedAt)
	report.Partial = cancelled

	result := "ok"
	switch {
	case cancelled:
		result = "partial"
	case len(report.Failed) > 0:
		result = "partial"
	}
	metrics.RecordSyncRun(result, report.Duration)
	metrics.RecordSyncItems("downloaded", len(report.Downloaded))
	metrics.RecordSyncItems("skipped", len(report.Skipped))
	metrics.RecordSyncItems("failed", len(report.Failed))
	metrics.RecordSyncItems("deleted", len(report.Deleted))

	e.lastMu.Lock()
	e.lastReport = report
	e.lastMu.Unlock()

	e.logger.Info().
		Int("downloaded", report.DownloadedCount()).
		Int("skipped", report.SkippedCount()).
		Int("failed", report.FailedCount()).
		Int("deleted", report.DeletedCount()).
		Dur("duration", report.Duration).
		Bool("partial", report.Partial).
		Msg("Sync finished")

	if cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

func (e *Engine) ensureLayout() error {
	for _, dir := range []string{"personal", "store", "other"} {
		if err := os.MkdirAll(filepath.Join(e.root, dir), 0o750); err != nil {
			return fmt.Errorf("create cache dir %s: %w", dir, err)
		}
	}
	return nil
}

// cleanupOrphans removes cached thumbnails absent from the live inventory.
// Items that failed in this run are spared: a transient fetch failure must
// not cascade into deleting a previously good thumbnail.
func (e *Engine) cleanupOrphans(items []models.ArtworkItem, failed map[string]bool) []string {
	live := make(map[string]bool, len(items))
	for i := range items {
		live[items[i].ContentID] = true
	}

	var deleted []string
	for _, dir := range []string{"personal", "store", "other"} {
		entries, err := os.ReadDir(filepath.Join(e.root, dir))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
				continue
			}
			contentID := strings.TrimSuffix(entry.Name(), ".jpg")
			if live[contentID] || failed[contentID] {
				continue
			}
			path := filepath.Join(e.root, dir, entry.Name())
			if err := os.Remove(path); err != nil {
				e.logger.Warn().Err(err).Str("path", path).Msg("Orphan removal failed")
				continue
			}
			deleted = append(deleted, contentID)
		}
	}
	return deleted
}

// writeAtomic writes via a temp file plus rename so a crashed run never
// leaves a truncated thumbnail behind.
func (e *Engine) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
