// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id := GenerateCorrelationID()
	if len(id) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d: %s", len(id), id)
	}

	other := GenerateCorrelationID()
	if id == other {
		t.Error("expected unique correlation IDs")
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("expected empty correlation ID from bare context, got %s", got)
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("expected 'abc12345', got %s", got)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := ContextWithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("expected 'req-1', got %s", got)
	}
}

func TestCtxAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf).With().Timestamp().Logger())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := ContextWithCorrelationID(context.Background(), "corr-xyz")
	Ctx(ctx).Info().Msg("with context")

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"corr-xyz"`) {
		t.Errorf("expected correlation_id field in output: %s", output)
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	t.Parallel()

	// A bare context returns the global logger rather than a zero value.
	logger := LoggerFromContext(context.Background())
	logger.Info().Msg("should not panic")
}

func TestContextWithLogger(t *testing.T) {
	var buf bytes.Buffer

	custom := zerolog.New(&buf).With().Str("source", "custom").Logger()
	ctx := ContextWithLogger(context.Background(), custom)

	Ctx(ctx).Info().Msg("from custom")

	output := buf.String()
	if !strings.Contains(output, `"source":"custom"`) {
		t.Errorf("expected custom logger fields in output: %s", output)
	}
}
