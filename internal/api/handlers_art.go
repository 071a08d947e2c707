// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/artmode"
	"github.com/framebridge/framebridge/internal/models"
)

// maxUploadBytes caps artwork uploads. The TV itself rejects anything much
// larger than this.
const maxUploadBytes = 50 << 20

// ArtMode returns whether art mode is active.
func (h *Handler) ArtMode(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	on, err := h.tv.ArtModeStatus(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"on": on})
}

// SetArtMode switches art mode on or off.
func (h *Handler) SetArtMode(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		On *bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.On == nil {
		rw.BadRequest("body must be {\"on\": true|false}")
		return
	}
	if err := h.tv.SetArtModeStatus(r.Context(), *body.On); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"on": *body.On})
}

// CurrentArt returns the artwork currently on screen.
func (h *Handler) CurrentArt(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	current, err := h.tv.Current(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(current)
}

// SelectArt shows an artwork on the TV.
func (h *Handler) SelectArt(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		ContentID string `json:"content_id"`
		Show      *bool  `json:"show"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ContentID == "" {
		rw.BadRequest("content_id is required")
		return
	}
	show := true
	if body.Show != nil {
		show = *body.Show
	}
	if err := h.tv.SelectImage(r.Context(), body.ContentID, show); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"content_id": body.ContentID, "shown": show})
}

// ListArt returns the TV's artwork inventory, optionally scoped by the
// category query parameter (all, favorites, personal, or a raw category ID).
func (h *Handler) ListArt(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	category := ""
	switch scope := r.URL.Query().Get("category"); scope {
	case "", "all":
	case "favorites":
		category = models.CategoryFavorites
	case "personal":
		category = models.CategoryPersonal
	default:
		category = scope
	}

	items, err := h.tv.Available(r.Context(), category)
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"items": items, "count": len(items)})
}

// SetFavorite flags or unflags an artwork as favourite.
func (h *Handler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		ContentID string `json:"content_id"`
		Favorite  *bool  `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ContentID == "" || body.Favorite == nil {
		rw.BadRequest("content_id and favorite are required")
		return
	}
	if err := h.tv.SetFavorite(r.Context(), body.ContentID, *body.Favorite); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"content_id": body.ContentID, "favorite": *body.Favorite})
}

// Mattes lists the available matte types and colors.
func (h *Handler) Mattes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mattes, err := h.tv.MatteList(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(mattes)
}

// SetMatte changes an artwork's matte. An empty matte_id removes the matte.
func (h *Handler) SetMatte(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		ContentID string `json:"content_id"`
		MatteID   string `json:"matte_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ContentID == "" {
		rw.BadRequest("content_id is required")
		return
	}
	if err := h.tv.ChangeMatte(r.Context(), body.ContentID, body.MatteID); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"content_id": body.ContentID, "matte_id": body.MatteID})
}

// PhotoFilters lists available photo filters.
func (h *Handler) PhotoFilters(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	filters, err := h.tv.PhotoFilterList(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"filters": filters})
}

// SetPhotoFilter applies a photo filter to an artwork.
func (h *Handler) SetPhotoFilter(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		ContentID string `json:"content_id"`
		FilterID  string `json:"filter_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ContentID == "" || body.FilterID == "" {
		rw.BadRequest("content_id and filter_id are required")
		return
	}
	if err := h.tv.SetPhotoFilter(r.Context(), body.ContentID, body.FilterID); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"content_id": body.ContentID, "filter_id": body.FilterID})
}

// Brightness returns the art-mode brightness level.
func (h *Handler) Brightness(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	value, err := h.tv.Brightness(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"value": value})
}

// SetBrightness sets the art-mode brightness level.
func (h *Handler) SetBrightness(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		Value *int `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == nil {
		rw.BadRequest("value is required")
		return
	}
	if err := h.tv.SetBrightness(r.Context(), *body.Value); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"value": *body.Value})
}

// ColorTemperature returns the art-mode color temperature.
func (h *Handler) ColorTemperature(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	value, err := h.tv.ColorTemperature(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"value": value})
}

// SetColorTemperature sets the art-mode color temperature.
func (h *Handler) SetColorTemperature(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var body struct {
		Value *int `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == nil {
		rw.BadRequest("value is required")
		return
	}
	if err := h.tv.SetColorTemperature(r.Context(), *body.Value); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(map[string]any{"value": *body.Value})
}

// Slideshow returns the slideshow state.
func (h *Handler) Slideshow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	status, err := h.tv.SlideshowStatus(r.Context())
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(status)
}

// SetSlideshow configures the slideshow.
func (h *Handler) SetSlideshow(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var status models.SlideshowStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		rw.BadRequest("invalid slideshow body")
		return
	}
	if err := h.tv.SetSlideshowStatus(r.Context(), &status); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Success(&status)
}

// UploadArt pushes a new artwork image. The image travels as the raw request
// body; file type comes from Content-Type, matte selection from query
// parameters.
func (h *Handler) UploadArt(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	fileType := ""
	switch mediaType := r.Header.Get("Content-Type"); {
	case strings.HasPrefix(mediaType, "image/jpeg"):
		fileType = "JPEG"
	case strings.HasPrefix(mediaType, "image/png"):
		fileType = "PNG"
	default:
		rw.BadRequest("Content-Type must be image/jpeg or image/png")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		rw.BadRequest("failed to read image body")
		return
	}
	if len(data) == 0 {
		rw.BadRequest("empty image body")
		return
	}
	if len(data) > maxUploadBytes {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "image exceeds upload limit")
		return
	}

	contentID, err := h.uploader.Upload(r.Context(), data, artmode.UploadOptions{
		FileType:      fileType,
		Matte:         r.URL.Query().Get("matte"),
		PortraitMatte: r.URL.Query().Get("portrait_matte"),
	})
	if err != nil {
		writeArtError(rw, err)
		return
	}
	rw.Created(map[string]any{"content_id": contentID, "bytes": len(data)})
}

// DeleteArt removes an artwork from the TV.
func (h *Handler) DeleteArt(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	contentID := chi.URLParam(r, "contentID")
	if contentID == "" {
		rw.BadRequest("contentID is required")
		return
	}
	if err := h.tv.Delete(r.Context(), contentID); err != nil {
		writeArtError(rw, err)
		return
	}
	rw.NoContent()
}

// Thumbnail serves an artwork's thumbnail, fetching from the TV on a cache
// miss.
func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	contentID := chi.URLParam(r, "contentID")
	if contentID == "" {
		rw.BadRequest("contentID is required")
		return
	}

	data, err := h.thumbnails.EnsureThumbnail(r.Context(), contentID)
	if err != nil {
		writeArtError(rw, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		// Client went away mid-transfer; nothing to recover.
		return
	}
}
