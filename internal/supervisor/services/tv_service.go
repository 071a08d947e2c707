// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package services

import (
	"context"
	"fmt"
)

// TVConnection matches the art-mode client's lifecycle. The client performs
// its own fixed-delay reconnects once connected; this wrapper only covers the
// initial dial, which suture retries with backoff when the TV is unreachable
// at startup.
type TVConnection interface {
	Connect(ctx context.Context) error
	Close() error
}

// TVConnectionService supervises the TV connection.
type TVConnectionService struct {
	client TVConnection
	name   string

	// onReady fires once after a successful connect, used to kick the
	// startup sync.
	onReady func()
	fired   bool
}

// NewTVConnectionService creates the wrapper. onReady may be nil.
func NewTVConnectionService(client TVConnection, onReady func()) *TVConnectionService {
	return &TVConnectionService{
		client:  client,
		name:    "tv-connection",
		onReady: onReady,
	}
}

// Serve implements suture.Service. A failed initial connect returns the error
// so suture retries with backoff; once connected the client handles drops
// itself and this service just blocks until shutdown.
func (s *TVConnectionService) Serve(ctx context.Context) error {
	if err := s.client.Connect(ctx); err != nil {
		return fmt.Errorf("tv connect failed: %w", err)
	}

	if s.onReady != nil && !s.fired {
		s.fired = true
		s.onReady()
	}

	<-ctx.Done()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("tv close: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *TVConnectionService) String() string {
	return s.name
}
