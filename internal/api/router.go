// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/framebridge/framebridge/internal/middleware"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter wires the complete route tree.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 100
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Operational endpoints skip rate limiting so probes never starve.
	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/status", h.Status)

		r.Route("/art", func(r chi.Router) {
			r.Get("/mode", h.ArtMode)
			r.Put("/mode", h.SetArtMode)
			r.Get("/current", h.CurrentArt)
			r.Post("/select", h.SelectArt)
			r.Get("/list", h.ListArt)
			r.Put("/favorite", h.SetFavorite)
			r.Get("/mattes", h.Mattes)
			r.Put("/matte", h.SetMatte)
			r.Get("/filters", h.PhotoFilters)
			r.Put("/filter", h.SetPhotoFilter)
			r.Get("/brightness", h.Brightness)
			r.Put("/brightness", h.SetBrightness)
			r.Get("/color-temperature", h.ColorTemperature)
			r.Put("/color-temperature", h.SetColorTemperature)
			r.Get("/slideshow", h.Slideshow)
			r.Put("/slideshow", h.SetSlideshow)
			r.Post("/upload", h.UploadArt)
			r.Get("/thumbnail/{contentID}", h.Thumbnail)
			r.Delete("/{contentID}", h.DeleteArt)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/", h.TriggerSync)
			r.Get("/last", h.LastSync)
		})

		r.Route("/tv", func(r chi.Router) {
			r.Get("/power", h.PowerState)
			r.Put("/power", h.SetPower)
		})
	})

	return r
}
