// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - TV WebSocket connection lifecycle and reconnects
// - Art protocol request latency and outcomes
// - Thumbnail transfer attempts
// - Cache sync runs
// - Token refreshes
// - Circuit breaker state
// - API endpoint latency and throughput

var (
	// TV Connection Metrics
	TVConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tv_connection_state",
			Help: "Current TV connection state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"}, // "disconnected", "connecting", "connected", "reconnecting"
	)

	TVReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tv_reconnects_total",
			Help: "Total number of TV WebSocket reconnect cycles",
		},
	)

	// Art Protocol Metrics
	ArtRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "art_requests_total",
			Help: "Total number of art protocol requests",
		},
		[]string{"request", "status"}, // status: "ok", "tv_error", "timeout", "connection_lost", "cancelled", "send_error"
	)

	ArtRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "art_request_duration_seconds",
			Help:    "Art protocol request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"request"},
	)

	// Thumbnail Transfer Metrics
	ThumbnailTransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbnail_transfers_total",
			Help: "Total number of thumbnail transfer fetches",
		},
		[]string{"outcome"}, // "ok", "failed", "exhausted"
	)

	ThumbnailTransferAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbnail_transfer_attempts",
			Help:    "Attempts used per thumbnail transfer",
			Buckets: []float64{1, 2, 3},
		},
	)

	// Sync Metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_sync_runs_total",
			Help: "Total number of thumbnail cache sync runs",
		},
		[]string{"result"}, // "ok", "partial", "error"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cache_sync_duration_seconds",
			Help:    "Duration of thumbnail cache sync runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_sync_items_total",
			Help: "Per-item outcomes across sync runs",
		},
		[]string{"outcome"}, // "downloaded", "skipped", "failed", "deleted"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_sync_last_success_timestamp",
			Help: "Unix timestamp of last successful sync run",
		},
	)

	// Token Metrics
	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refreshes_total",
			Help: "Total number of credential refresh attempts",
		},
		[]string{"outcome"}, // "ok", "invalid", "transient"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordTVConnectionState marks one connection state as active.
func RecordTVConnectionState(state string) {
	for _, s := range []string{"disconnected", "connecting", "connected", "reconnecting"} {
		value := 0.0
		if s == state {
			value = 1.0
		}
		TVConnectionState.WithLabelValues(s).Set(value)
	}
}

// RecordTVReconnect counts one reconnect cycle.
func RecordTVReconnect() {
	TVReconnectsTotal.Inc()
}

// RecordArtRequest records one art protocol request outcome.
func RecordArtRequest(request, status string, duration time.Duration) {
	ArtRequestsTotal.WithLabelValues(request, status).Inc()
	ArtRequestDuration.WithLabelValues(request).Observe(duration.Seconds())
}

// RecordThumbnailTransfer records one transfer fetch and its attempt count.
func RecordThumbnailTransfer(outcome string, attempts int) {
	ThumbnailTransfersTotal.WithLabelValues(outcome).Inc()
	ThumbnailTransferAttempts.Observe(float64(attempts))
}

// RecordSyncRun records one sync run outcome.
func RecordSyncRun(result string, duration time.Duration) {
	SyncRunsTotal.WithLabelValues(result).Inc()
	SyncDuration.Observe(duration.Seconds())
	if result == "ok" {
		SyncLastSuccess.SetToCurrentTime()
	}
}

// RecordSyncItems records per-item outcomes from one sync run.
func RecordSyncItems(outcome string, count int) {
	if count > 0 {
		SyncItemsTotal.WithLabelValues(outcome).Add(float64(count))
	}
}

// RecordTokenRefresh records one credential refresh attempt.
func RecordTokenRefresh(outcome string) {
	TokenRefreshesTotal.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState records a breaker state change.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
