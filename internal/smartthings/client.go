// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package smartthings is a client for the SmartThings cloud API, used for
// TV power control and device health when the local channel cannot answer
// (the art-mode socket disappears entirely while the panel is off).
package smartthings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/metrics"
)

const defaultBaseURL = "https://api.smartthings.com/v1"

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("smartthings: unauthorized")

// TokenSource supplies bearer tokens. Implemented by token.Manager.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Invalidate()
}

// Device is one entry from the device listing.
type Device struct {
	DeviceID string `json:"deviceId"`
	Name     string `json:"name"`
	Label    string `json:"label"`
}

// Client calls the SmartThings REST API behind a circuit breaker. A flaky
// cloud must not let failures pile up in the sync and power paths.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// NewClient creates a SmartThings client using the given token source.
func NewClient(tokens TokenSource) *Client {
	cbName := "smartthings-api"
	metrics.SetCircuitBreakerState(cbName, 0) // closed

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,               // concurrent probes in half-open state
		Interval:    time.Minute,     // reset counts after 1 minute closed
		Timeout:     2 * time.Minute, // open -> half-open wait

		// Opens at >= 60% failures over at least 10 requests.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state transition")
			metrics.SetCircuitBreakerState(name, stateToInt(to))
		},
	})

	return &Client{
		baseURL:    defaultBaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         cb,
		logger:     logging.WithComponent("smartthings"),
	}
}

// SetBaseURL overrides the API endpoint. Tests point this at httptest.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

func stateToInt(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return 2
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// doRequest performs one authenticated API call through the breaker and
// returns the response body. A 401 invalidates the cached token so the
// next call refreshes before being sent.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	return c.cb.Execute(func() ([]byte, error) {
		bearer, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+bearer)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
			return nil, fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, truncate(data, 200))
		}
		return data, nil
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ListDevices returns the devices visible to the credential.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/devices", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Items []Device `json:"items"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode device list: %w", err)
	}
	return result.Items, nil
}

// DeviceHealth returns the device's health state ("ONLINE" or "OFFLINE").
func (c *Client) DeviceHealth(ctx context.Context, deviceID string) (string, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/devices/"+deviceID+"/health", nil)
	if err != nil {
		return "", err
	}

	var result struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode health: %w", err)
	}
	return result.State, nil
}

// PowerState returns the TV switch state ("on" or "off").
func (c *Client) PowerState(ctx context.Context, deviceID string) (string, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/devices/"+deviceID+"/components/main/capabilities/switch/status", nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Switch struct {
			Value string `json:"value"`
		} `json:"switch"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode switch status: %w", err)
	}
	return result.Switch.Value, nil
}

// SetPower turns the TV on or off through the cloud.
func (c *Client) SetPower(ctx context.Context, deviceID string, on bool) error {
	command := "off"
	if on {
		command = "on"
	}

	body, err := json.Marshal(map[string]any{
		"commands": []map[string]any{{
			"component":  "main",
			"capability": "switch",
			"command":    command,
		}},
	})
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "/devices/"+deviceID+"/commands", body); err != nil {
		return err
	}
	c.logger.Info().Str("device_id", deviceID).Str("command", command).Msg("Power command sent")
	return nil
}
