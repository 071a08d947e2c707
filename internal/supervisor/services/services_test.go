// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/framebridge/framebridge/internal/models"
	"github.com/framebridge/framebridge/internal/thumbsync"
)

type fakeTVClient struct {
	connectErr error
	closed     atomic.Bool
}

func (f *fakeTVClient) Connect(ctx context.Context) error { return f.connectErr }
func (f *fakeTVClient) Close() error {
	f.closed.Store(true)
	return nil
}

func TestTVConnectionServiceConnectFailureReturnsError(t *testing.T) {
	client := &fakeTVClient{connectErr: errors.New("dial tcp: refused")}
	svc := NewTVConnectionService(client, nil)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("expected error from failed connect")
	}
	if !errors.Is(err, client.connectErr) {
		t.Errorf("expected wrapped connect error, got %v", err)
	}
}

func TestTVConnectionServiceRunsUntilCancelled(t *testing.T) {
	client := &fakeTVClient{}
	readyCh := make(chan struct{})
	svc := NewTVConnectionService(client, func() { close(readyCh) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-readyCh:
	case <-time.After(2 * time.Second):
		t.Fatal("onReady was not called after successful connect")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if !client.closed.Load() {
		t.Error("client was not closed on shutdown")
	}
}

type fakeHTTPServer struct {
	listenErr error
	closed    chan struct{}
	once      sync.Once
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{closed: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	server := newFakeHTTPServer()
	server.listenErr = errors.New("listen tcp: address already in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("expected wrapped listen error, got %v", err)
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give ListenAndServe a moment to start before asking for shutdown.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

type fakeSyncEngine struct {
	mu      sync.Mutex
	calls   []thumbsync.Selector
	last    *models.SyncReport
	block   chan struct{} // when set, Sync waits on it
	running chan struct{} // signalled once per Sync entry
}

func (f *fakeSyncEngine) Sync(ctx context.Context, sel thumbsync.Selector, opts thumbsync.Options) (*models.SyncReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel)
	f.mu.Unlock()
	if f.running != nil {
		f.running <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return &models.SyncReport{Partial: true}, ctx.Err()
		}
	}
	report := &models.SyncReport{Selector: sel.String(), StartedAt: time.Now()}
	f.mu.Lock()
	f.last = report
	f.mu.Unlock()
	return report, nil
}

func (f *fakeSyncEngine) LastReport() *models.SyncReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeSyncEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSyncSchedulerRunsTriggeredRequest(t *testing.T) {
	engine := &fakeSyncEngine{running: make(chan struct{}, 4)}
	sched := NewSyncScheduler(SyncSchedulerConfig{Engine: engine})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Serve(ctx) }()

	sel := thumbsync.Selector{Kind: thumbsync.SelectFavorites}
	if err := sched.Trigger(sel, thumbsync.Options{}); err != nil {
		t.Fatalf("Trigger failed: %v", err)
	}

	select {
	case <-engine.running:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered sync never ran")
	}

	engine.mu.Lock()
	got := engine.calls[0]
	engine.mu.Unlock()
	if got.Kind != thumbsync.SelectFavorites {
		t.Errorf("expected favorites selector, got %v", got)
	}
}

func TestSyncSchedulerRejectsTriggerWhileBusy(t *testing.T) {
	engine := &fakeSyncEngine{
		block:   make(chan struct{}),
		running: make(chan struct{}, 4),
	}
	sched := NewSyncScheduler(SyncSchedulerConfig{Engine: engine})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Serve(ctx) }()

	if err := sched.Trigger(thumbsync.Selector{}, thumbsync.Options{}); err != nil {
		t.Fatalf("first Trigger failed: %v", err)
	}

	select {
	case <-engine.running:
	case <-time.After(2 * time.Second):
		t.Fatal("first sync never started")
	}

	err := sched.Trigger(thumbsync.Selector{}, thumbsync.Options{})
	if !errors.Is(err, thumbsync.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress while busy, got %v", err)
	}

	close(engine.block)
}

func TestSyncSchedulerPeriodicRuns(t *testing.T) {
	engine := &fakeSyncEngine{running: make(chan struct{}, 16)}
	sched := NewSyncScheduler(SyncSchedulerConfig{
		Engine:          engine,
		Interval:        20 * time.Millisecond,
		DefaultSelector: thumbsync.Selector{Kind: thumbsync.SelectAll},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Serve(ctx) }()

	select {
	case <-engine.running:
	case <-time.After(2 * time.Second):
		t.Fatal("periodic sync never ran")
	}
}

func TestSyncSchedulerTriggerDefaultQueueFullIgnored(t *testing.T) {
	engine := &fakeSyncEngine{}
	sched := NewSyncScheduler(SyncSchedulerConfig{Engine: engine})

	// Without a Serve loop the first request sits in the queue; the second
	// must not block or panic.
	sched.TriggerDefault()
	sched.TriggerDefault()

	if err := sched.Trigger(thumbsync.Selector{}, thumbsync.Options{}); !errors.Is(err, thumbsync.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress with a full queue, got %v", err)
	}
}
