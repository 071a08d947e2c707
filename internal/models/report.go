// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package models

import "time"

// SyncDownload records one thumbnail downloaded during a sync run.
type SyncDownload struct {
	ContentID string `json:"content_id"`
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
}

// SyncFailure records one item that could not be synced. The run continues
// past individual failures.
type SyncFailure struct {
	ContentID string `json:"content_id"`
	Reason    string `json:"reason"`
}

// SyncReport is the machine-parseable outcome of one sync run.
type SyncReport struct {
	Selector   string         `json:"selector"`
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration_ns"`
	Downloaded []SyncDownload `json:"downloaded"`
	Skipped    []string       `json:"skipped"`            // already cached
	Failed     []SyncFailure  `json:"failed"`
	Deleted    []string       `json:"deleted,omitempty"`  // orphans removed
	Partial    bool           `json:"partial,omitempty"`  // run was cancelled mid-way
}

// DownloadedCount returns the number of items downloaded.
func (r *SyncReport) DownloadedCount() int { return len(r.Downloaded) }

// SkippedCount returns the number of items already cached.
func (r *SyncReport) SkippedCount() int { return len(r.Skipped) }

// FailedCount returns the number of items that failed.
func (r *SyncReport) FailedCount() int { return len(r.Failed) }

// DeletedCount returns the number of orphans removed.
func (r *SyncReport) DeletedCount() int { return len(r.Deleted) }
