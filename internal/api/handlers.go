// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/framebridge/framebridge/internal/artmode"
	"github.com/framebridge/framebridge/internal/models"
	"github.com/framebridge/framebridge/internal/thumbsync"
)

// TVClient is the slice of the art-mode client the API serves.
type TVClient interface {
	State() artmode.State
	APIVersion(ctx context.Context) (string, error)
	Available(ctx context.Context, category string) ([]models.ArtworkItem, error)
	Current(ctx context.Context) (*models.CurrentArtwork, error)
	SelectImage(ctx context.Context, contentID string, show bool) error
	ArtModeStatus(ctx context.Context) (bool, error)
	SetArtModeStatus(ctx context.Context, on bool) error
	SetFavorite(ctx context.Context, contentID string, favorite bool) error
	MatteList(ctx context.Context) (*models.MatteList, error)
	ChangeMatte(ctx context.Context, contentID, matteID string) error
	PhotoFilterList(ctx context.Context) ([]string, error)
	SetPhotoFilter(ctx context.Context, contentID, filterID string) error
	Brightness(ctx context.Context) (int, error)
	SetBrightness(ctx context.Context, value int) error
	ColorTemperature(ctx context.Context) (int, error)
	SetColorTemperature(ctx context.Context, value int) error
	SlideshowStatus(ctx context.Context) (*models.SlideshowStatus, error)
	SetSlideshowStatus(ctx context.Context, status *models.SlideshowStatus) error
	Delete(ctx context.Context, contentIDs ...string) error
}

// Uploader pushes new artwork to the TV.
type Uploader interface {
	Upload(ctx context.Context, data []byte, opts artmode.UploadOptions) (string, error)
}

// ThumbnailCache serves cached thumbnails, fetching on demand.
type ThumbnailCache interface {
	EnsureThumbnail(ctx context.Context, contentID string) ([]byte, error)
}

// SyncRunner triggers background sync runs and exposes the last report.
type SyncRunner interface {
	Trigger(sel thumbsync.Selector, opts thumbsync.Options) error
	LastReport() *models.SyncReport
}

// PowerController is the SmartThings power path; nil when not configured.
type PowerController interface {
	PowerState(ctx context.Context, deviceID string) (string, error)
	SetPower(ctx context.Context, deviceID string, on bool) error
}

// Handler holds the API's dependencies.
type Handler struct {
	tv         TVClient
	uploader   Uploader
	thumbnails ThumbnailCache
	sync       SyncRunner
	power      PowerController
	deviceID   string
	version    string
	startedAt  time.Time
}

// HandlerConfig assembles a Handler.
type HandlerConfig struct {
	TV         TVClient
	Uploader   Uploader
	Thumbnails ThumbnailCache
	Sync       SyncRunner

	// Power and DeviceID are optional; power endpoints return 503 when unset.
	Power    PowerController
	DeviceID string

	Version string
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		tv:         cfg.TV,
		uploader:   cfg.Uploader,
		thumbnails: cfg.Thumbnails,
		sync:       cfg.Sync,
		power:      cfg.Power,
		deviceID:   cfg.DeviceID,
		version:    cfg.Version,
		startedAt:  time.Now(),
	}
}

// Healthz reports liveness. Returns 200 whenever the process is serving,
// regardless of TV connectivity.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Status reports the bridge's operational state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := map[string]any{
		"version":  h.version,
		"tv_state": h.tv.State().String(),
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	}

	if h.tv.State() == artmode.StateConnected {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if apiVersion, err := h.tv.APIVersion(ctx); err == nil {
			status["tv_api_version"] = apiVersion
		}
	}

	if last := h.sync.LastReport(); last != nil {
		status["last_sync"] = last
	}

	rw.Success(status)
}

// writeArtError maps art-mode failures onto HTTP statuses.
func writeArtError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, artmode.ErrNotConnected),
		errors.Is(err, artmode.ErrConnectionLost),
		errors.Is(err, artmode.ErrClosed):
		rw.ServiceUnavailable(ErrCodeTVUnavailable, "TV is not reachable")
	case errors.Is(err, artmode.ErrTimeout):
		rw.Error(http.StatusGatewayTimeout, ErrCodeTVUnavailable, "TV did not respond in time")
	case errors.Is(err, artmode.ErrDrmProtected):
		rw.Error(http.StatusForbidden, ErrCodeDrmProtected, "content thumbnail is DRM-protected")
	default:
		if pe, ok := artmode.IsProtocolError(err); ok {
			rw.Error(http.StatusBadGateway, ErrCodeInternalError,
				"TV rejected "+pe.Op+" with code "+pe.Code)
			return
		}
		rw.InternalError(err.Error())
	}
}
