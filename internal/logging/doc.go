// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package logging provides centralized zerolog-based structured logging for
// Framebridge.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Context-aware logging with correlation ID propagation
//   - Component-scoped child loggers
//
// # Quick Start
//
//	import "github.com/framebridge/framebridge/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("host", tvHost).Msg("Connecting to TV")
//	logging.Error().Err(err).Msg("Request failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Str("content_id", id).Msg("Processing")
//
// # Component Loggers
//
// Create component-specific loggers with default fields:
//
//	tvLogger := logging.WithComponent("artmode")
//	tvLogger.Info().Msg("Connected")
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # Testing
//
// Create test loggers that capture output:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//	output := buf.String()
package logging
