// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package supervisor builds the suture supervision tree that keeps the TV
// connection, the sync scheduler, and the HTTP server running with failure
// isolation between layers.
package supervisor
