// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package metrics provides Prometheus instrumentation for Framebridge.
//
// Metrics are registered at package load via promauto and exposed by the
// HTTP service on /metrics. Helper functions keep label handling in one
// place; callers never touch label values directly.
package metrics
