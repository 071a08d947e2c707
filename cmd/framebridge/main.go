// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package main is the entry point for the Framebridge server.
//
// Framebridge keeps a Samsung Frame TV's art mode under local control: it
// maintains the art-app WebSocket channel, mirrors the TV's thumbnail
// inventory into an on-disk cache, and exposes a REST API for browsing,
// uploading, and selecting artwork. SmartThings integration is optional and
// only used for power control, which the local channel cannot do reliably.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. State store: BadgerDB for the pairing token and cloud credential
//  3. TV client: art-app WebSocket channel with automatic reconnects
//  4. Thumbnail engine: on-disk cache reconciled against the TV inventory
//  5. SmartThings (optional): OAuth-refreshed power control
//  6. HTTP server: REST API under /api/v1
//
// All long-running components run under a suture supervision tree and are
// restarted with backoff when they fail.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority
// wins): environment variables (FRAMEBRIDGE_*), config file (config.yaml),
// built-in defaults. The only required setting is the TV address:
//
//	export FRAMEBRIDGE_TV_HOST=192.168.1.50
//	./framebridge
//
// On first connect the TV shows a pairing prompt; the granted token is
// persisted in the state store and reused on subsequent starts.
//
// For SmartThings power control:
//
//	export FRAMEBRIDGE_SMARTTHINGS_ENABLED=true
//	export FRAMEBRIDGE_SMARTTHINGS_CLIENT_ID=...
//	export FRAMEBRIDGE_SMARTTHINGS_CLIENT_SECRET=...
//	export FRAMEBRIDGE_SMARTTHINGS_DEVICE_ID=...
//	export FRAMEBRIDGE_SMARTTHINGS_REFRESH_TOKEN=...
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP listener
// drains in-flight requests, a running sync records a partial report, and the
// TV channel is closed cleanly.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"github.com/framebridge/framebridge/internal/api"
	"github.com/framebridge/framebridge/internal/artmode"
	"github.com/framebridge/framebridge/internal/config"
	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/smartthings"
	"github.com/framebridge/framebridge/internal/statestore"
	"github.com/framebridge/framebridge/internal/supervisor"
	"github.com/framebridge/framebridge/internal/supervisor/services"
	"github.com/framebridge/framebridge/internal/thumbsync"
	"github.com/framebridge/framebridge/internal/token"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors happen before the configured logger exists.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("tv_host", cfg.TV.Host).
		Int("tv_port", cfg.TV.Port).
		Str("cache_dir", cfg.Cache.Dir).
		Bool("smartthings", cfg.SmartThings.Enabled).
		Msg("Starting Framebridge")

	store, err := statestore.Open(cfg.State.Dir)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.State.Dir).Msg("Failed to open state store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing state store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The persisted pairing token wins over the configured one; the TV may
	// have rotated it since the config was written.
	tvToken := cfg.TV.Token
	if stored, err := store.LoadTVToken(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to load pairing token from state store")
	} else if stored != "" {
		tvToken = stored
	}

	client := artmode.NewClient(artmode.Config{
		Host:           cfg.TV.Host,
		Port:           cfg.TV.Port,
		ClientName:     cfg.TV.ClientName,
		Token:          tvToken,
		RequestTimeout: cfg.TV.RequestTimeout,
		ReconnectDelay: cfg.TV.ReconnectDelay,
		OnNewToken: func(tok string) {
			if err := store.SaveTVToken(context.Background(), tok); err != nil {
				logging.Error().Err(err).Msg("Failed to persist pairing token")
				return
			}
			logging.Info().Msg("Pairing token granted by TV and persisted")
		},
	})

	transfer := artmode.NewTransferChannel(client)

	engine := thumbsync.NewEngine(thumbsync.Config{
		Inventory: client,
		Fetcher:   transfer,
		Root:      cfg.Cache.Dir,
		Throttle:  cfg.Cache.Throttle,
	})

	var power api.PowerController
	if cfg.SmartThings.Enabled {
		tokens := token.NewManager(token.Config{
			Credential: token.Credential{
				Kind:  token.KindOAuth2,
				OAuth: &oauth2.Token{RefreshToken: cfg.SmartThings.RefreshToken},
			},
			Refresher: token.NewSmartThingsRefresher(
				cfg.SmartThings.ClientID,
				cfg.SmartThings.ClientSecret,
			),
			Store: store,
		})
		if err := tokens.LoadPersisted(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to load cloud credential, starting from configured refresh token")
		}
		// No credential subscriber is registered: the SmartThings client
		// pulls a fresh token per call and the manager persists refreshes
		// itself. The TV channel authenticates with the pairing token, not
		// this credential, so there is no connection to push updates to.
		power = smartthings.NewClient(tokens)
		logging.Info().Str("device_id", cfg.SmartThings.DeviceID).Msg("SmartThings power control enabled")
	} else {
		logging.Info().Msg("SmartThings disabled, power endpoints will return 503")
	}

	scheduler := services.NewSyncScheduler(services.SyncSchedulerConfig{
		Engine:          engine,
		Interval:        cfg.Sync.Interval,
		DefaultSelector: syncSelector(cfg.Sync.Selector),
		DefaultOptions:  thumbsync.Options{CleanupOrphans: cfg.Sync.CleanupOrphans},
	})

	handler := api.NewHandler(api.HandlerConfig{
		TV:         client,
		Uploader:   transfer,
		Thumbnails: engine,
		Sync:       scheduler,
		Power:      power,
		DeviceID:   cfg.SmartThings.DeviceID,
		Version:    version,
	})

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(handler, api.RouterConfig{
			RateLimitRequests: cfg.Server.RateLimitReqs,
			RateLimitWindow:   cfg.Server.RateLimitWindow,
		}),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	var onReady func()
	if cfg.Sync.OnStartup {
		onReady = scheduler.TriggerDefault
	}
	tree.AddTVService(services.NewTVConnectionService(client, onReady))
	tree.AddTVService(scheduler)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Framebridge stopped gracefully")
}

// syncSelector maps the configured selector name to a scope. Validation has
// already rejected anything else.
func syncSelector(name string) thumbsync.Selector {
	switch name {
	case "favorites":
		return thumbsync.Selector{Kind: thumbsync.SelectFavorites}
	case "personal":
		return thumbsync.Selector{Kind: thumbsync.SelectPersonal}
	default:
		return thumbsync.Selector{Kind: thumbsync.SelectAll}
	}
}
