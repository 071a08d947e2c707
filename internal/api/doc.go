// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package api exposes the bridge over HTTP: art-mode control, thumbnail
// serving, sync triggering, and SmartThings power control, all under /api/v1
// with a consistent JSON response envelope.
package api
