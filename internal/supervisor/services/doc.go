// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package services wraps the long-running components as suture services:
// the TV connection, the sync scheduler, and the REST API server.
package services
