// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package config loads and validates runtime configuration from layered
// sources: built-in defaults, an optional YAML file, and FRAMEBRIDGE_-
// prefixed environment variables, with later layers overriding earlier ones.
package config
