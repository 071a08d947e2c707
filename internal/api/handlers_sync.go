// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/thumbsync"
)

// TriggerSync starts a background sync run. Returns 202 when the run was
// accepted and 409 when another run is already active.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var body struct {
		Selector string `json:"selector"`
		Category string `json:"category"`
		Force    bool   `json:"force"`
		Cleanup  bool   `json:"cleanup"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			rw.BadRequest("invalid sync request body")
			return
		}
	}

	var sel thumbsync.Selector
	switch body.Selector {
	case "", "all":
		sel.Kind = thumbsync.SelectAll
	case "favorites":
		sel.Kind = thumbsync.SelectFavorites
	case "personal":
		sel.Kind = thumbsync.SelectPersonal
	case "category":
		if body.Category == "" {
			rw.BadRequest("category is required with selector=category")
			return
		}
		sel = thumbsync.Selector{Kind: thumbsync.SelectCategory, CategoryID: body.Category}
	default:
		rw.BadRequest("selector must be all, favorites, personal, or category")
		return
	}

	err := h.sync.Trigger(sel, thumbsync.Options{
		ForceDownload:  body.Force,
		CleanupOrphans: body.Cleanup,
	})
	if err != nil {
		if errors.Is(err, thumbsync.ErrSyncInProgress) {
			rw.Conflict("a sync run is already in progress")
			return
		}
		rw.InternalError(err.Error())
		return
	}

	rw.Accepted(map[string]any{"selector": sel.String()})
}

// LastSync returns the most recent sync report.
func (h *Handler) LastSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	report := h.sync.LastReport()
	if report == nil {
		rw.NotFound("no sync has run yet")
		return
	}
	rw.Success(report)
}
