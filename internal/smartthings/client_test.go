// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package smartthings

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeTokens struct {
	mu          sync.Mutex
	token       string
	err         error
	invalidated int
}

func (f *fakeTokens) AccessToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeTokens) Invalidate() {
	f.mu.Lock()
	f.invalidated++
	f.mu.Unlock()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeTokens) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tokens := &fakeTokens{token: "bearer-1"}
	client := NewClient(tokens)
	client.SetBaseURL(server.URL)
	return client, tokens
}

func TestListDevices(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-1" {
			t.Errorf("unexpected authorization header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[{"deviceId":"dev-1","name":"Samsung Frame","label":"Living Room TV"}]}`) //nolint:errcheck
	})

	devices, err := client.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if devices[0].DeviceID != "dev-1" || devices[0].Label != "Living Room TV" {
		t.Errorf("unexpected device: %+v", devices[0])
	}
}

func TestDeviceHealth(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/devices/dev-1/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		io.WriteString(w, `{"state":"ONLINE"}`) //nolint:errcheck
	})

	state, err := client.DeviceHealth(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != "ONLINE" {
		t.Errorf("expected ONLINE, got %s", state)
	}
}

func TestSetPowerSendsSwitchCommand(t *testing.T) {
	var body string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body) //nolint:errcheck
		body = string(data)
		io.WriteString(w, `{"results":[]}`) //nolint:errcheck
	})

	if err := client.SetPower(context.Background(), "dev-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(body, `"capability":"switch"`) || !strings.Contains(body, `"command":"on"`) {
		t.Errorf("unexpected command body: %s", body)
	}
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	client, tokens := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListDevices(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	tokens.mu.Lock()
	defer tokens.mu.Unlock()
	if tokens.invalidated != 1 {
		t.Errorf("expected token invalidated once, got %d", tokens.invalidated)
	}
}

func TestServerErrorSurfacesBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`) //nolint:errcheck
	})

	_, err := client.ListDevices(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status code in error, got: %v", err)
	}
}
