// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package middleware provides HTTP middleware: request ID tagging for
// distributed tracing and Prometheus instrumentation of the API surface.
package middleware
