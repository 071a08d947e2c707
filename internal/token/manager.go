// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

// Package token owns the cloud credential used for SmartThings calls.
//
// The manager refreshes OAuth2 credentials proactively, serializes
// concurrent refreshes so racing callers share a single network call, and
// propagates refreshed credentials to subscribers. Static tokens pass
// through untouched.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/metrics"
)

// RefreshMargin is how long before expiry a refresh is triggered. Tokens
// with more remaining lifetime than this are returned as-is.
const RefreshMargin = 5 * time.Minute

// Kind discriminates credential types.
type Kind int

const (
	// KindStatic is a long-lived opaque token (personal access token).
	// Never refreshed.
	KindStatic Kind = iota

	// KindOAuth2 is an access/refresh token pair with an expiry.
	KindOAuth2
)

// Credential is the unit handed to consumers and persisted across restarts.
type Credential struct {
	Kind   Kind          `json:"kind"`
	Static string        `json:"static,omitempty"`
	OAuth  *oauth2.Token `json:"oauth,omitempty"`
}

// AccessToken returns the bearer value for this credential.
func (c *Credential) AccessToken() string {
	if c.Kind == KindStatic {
		return c.Static
	}
	if c.OAuth != nil {
		return c.OAuth.AccessToken
	}
	return ""
}

// Sentinel errors. RefreshInvalid is terminal: the refresh token itself was
// rejected and only operator re-authorization clears it.
var (
	ErrNoCredential     = errors.New("token: no credential configured")
	ErrRefreshInvalid   = errors.New("token: refresh token rejected; re-authorization required")
	ErrRefreshTransient = errors.New("token: refresh temporarily unavailable")
)

// Refresher exchanges a refresh token for a new token pair. The production
// implementation talks to the SmartThings OAuth endpoint; tests inject fakes.
type Refresher interface {
	Refresh(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error)
}

// StateStore persists the credential across restarts.
type StateStore interface {
	// LoadCredential returns the stored credential, or nil when none exists.
	LoadCredential(ctx context.Context) (*Credential, error)
	SaveCredential(ctx context.Context, cred *Credential) error
}

// Config assembles a Manager.
type Config struct {
	Credential Credential
	Refresher  Refresher  // required for KindOAuth2
	Store      StateStore // optional; nil disables persistence
	Margin     time.Duration
}

// refreshCall is the shared result of one in-flight refresh. Every caller
// that raced the refresh observes this exact result.
type refreshCall struct {
	done chan struct{}
	cred Credential
	err  error
}

// Manager serializes access to one credential. Safe for concurrent use.
type Manager struct {
	refresher Refresher
	store     StateStore
	margin    time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	mu       sync.Mutex
	cred     Credential
	invalid  error // terminal refresh failure, cleared by SetCredential
	inflight *refreshCall

	subMu       sync.RWMutex
	subscribers []func(Credential)
}

// NewManager creates a manager for the given credential.
func NewManager(cfg Config) *Manager {
	margin := cfg.Margin
	if margin <= 0 {
		margin = RefreshMargin
	}
	return &Manager{
		refresher: cfg.Refresher,
		store:     cfg.Store,
		margin:    margin,
		now:       time.Now,
		logger:    logging.WithComponent("token"),
		cred:      cfg.Credential,
	}
}

// NewStatic creates a manager for a static token.
func NewStatic(token string) *Manager {
	return NewManager(Config{Credential: Credential{Kind: KindStatic, Static: token}})
}

// LoadPersisted replaces the in-memory credential with the stored one, when
// present. Call once at startup, before serving.
func (m *Manager) LoadPersisted(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	stored, err := m.store.LoadCredential(ctx)
	if err != nil {
		return fmt.Errorf("load persisted credential: %w", err)
	}
	if stored == nil {
		return nil
	}

	m.mu.Lock()
	m.cred = *stored
	m.invalid = nil
	m.mu.Unlock()
	m.logger.Info().Msg("Loaded persisted credential")
	return nil
}

// Subscribe registers a callback invoked with every new credential after a
// successful refresh or SetCredential. Callbacks must not block.
func (m *Manager) Subscribe(fn func(Credential)) {
	m.subMu.Lock()
	m.subscribers = append(m.subscribers, fn)
	m.subMu.Unlock()
}

// Credential returns a copy of the current credential.
func (m *Manager) Credential() Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

// SetCredential installs a new credential (initial configuration or operator
// re-authorization), persists it, and notifies subscribers. Clears any
// terminal refresh failure.
func (m *Manager) SetCredential(ctx context.Context, cred Credential) error {
	m.mu.Lock()
	m.cred = cred
	m.invalid = nil
	m.mu.Unlock()

	m.persist(ctx, cred)
	m.notify(cred)
	return nil
}

// Invalidate marks the current OAuth credential stale so the next
// AccessToken call refreshes. Called when the API rejects a bearer token
// that looked valid locally. No-op for static credentials.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	if m.cred.Kind == KindOAuth2 && m.cred.OAuth != nil {
		m.cred.OAuth.Expiry = m.now().Add(-time.Minute)
	}
	m.mu.Unlock()
}

// AccessToken returns a bearer token valid for at least the refresh margin.
// Static credentials return immediately. For OAuth2 credentials nearing
// expiry, exactly one refresh runs no matter how many callers race; all of
// them observe the same outcome, error included.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()

	if m.cred.Kind == KindStatic {
		tok := m.cred.Static
		m.mu.Unlock()
		if tok == "" {
			return "", ErrNoCredential
		}
		return tok, nil
	}

	if m.cred.OAuth == nil {
		m.mu.Unlock()
		return "", ErrNoCredential
	}
	if m.invalid != nil {
		err := m.invalid
		m.mu.Unlock()
		return "", err
	}
	if m.freshLocked() {
		tok := m.cred.OAuth.AccessToken
		m.mu.Unlock()
		return tok, nil
	}

	// Join an in-flight refresh rather than starting a second one.
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		return m.await(ctx, call)
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	current := *m.cred.OAuth
	m.mu.Unlock()

	m.refresh(ctx, call, &current)
	return m.await(ctx, call)
}

// freshLocked reports whether the current OAuth token clears the margin.
// A zero expiry means the provider issued a non-expiring token.
func (m *Manager) freshLocked() bool {
	tok := m.cred.OAuth
	if tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return tok.Expiry.Sub(m.now()) > m.margin
}

func (m *Manager) await(ctx context.Context, call *refreshCall) (string, error) {
	select {
	case <-call.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if call.err != nil {
		return "", call.err
	}
	return call.cred.AccessToken(), nil
}

// refresh performs the network exchange and publishes the result to every
// waiter through the call latch.
func (m *Manager) refresh(ctx context.Context, call *refreshCall, current *oauth2.Token) {
	if m.refresher == nil {
		m.finish(call, Credential{}, fmt.Errorf("%w: no refresher configured", ErrRefreshInvalid))
		return
	}

	newTok, err := m.refresher.Refresh(ctx, current)
	if err != nil {
		classified := classifyRefreshError(err)
		if errors.Is(classified, ErrRefreshInvalid) {
			m.mu.Lock()
			m.invalid = classified
			m.mu.Unlock()
			metrics.RecordTokenRefresh("invalid")
			m.logger.Error().Err(err).Msg("Refresh token rejected; re-authorization required")
		} else {
			metrics.RecordTokenRefresh("transient")
			m.logger.Warn().Err(err).Msg("Credential refresh failed transiently")
		}
		m.finish(call, Credential{}, classified)
		return
	}

	// Providers may omit the refresh token on rotation; keep the old one.
	if newTok.RefreshToken == "" {
		newTok.RefreshToken = current.RefreshToken
	}

	cred := Credential{Kind: KindOAuth2, OAuth: newTok}
	m.mu.Lock()
	m.cred = cred
	m.mu.Unlock()

	metrics.RecordTokenRefresh("ok")
	m.logger.Info().Time("expiry", newTok.Expiry).Msg("Credential refreshed")

	m.persist(ctx, cred)
	m.notify(cred)
	m.finish(call, cred, nil)
}

func (m *Manager) finish(call *refreshCall, cred Credential, err error) {
	call.cred = cred
	call.err = err
	m.mu.Lock()
	if m.inflight == call {
		m.inflight = nil
	}
	m.mu.Unlock()
	close(call.done)
}

func (m *Manager) persist(ctx context.Context, cred Credential) {
	if m.store == nil {
		return
	}
	if err := m.store.SaveCredential(ctx, &cred); err != nil {
		m.logger.Error().Err(err).Msg("Failed to persist credential")
	}
}

func (m *Manager) notify(cred Credential) {
	m.subMu.RLock()
	subs := make([]func(Credential), len(m.subscribers))
	copy(subs, m.subscribers)
	m.subMu.RUnlock()
	for _, fn := range subs {
		fn(cred)
	}
}

// classifyRefreshError splits refresh failures into the terminal and
// transient classes. A 400/401 from the token endpoint means the refresh
// token itself is dead; everything else is worth retrying later.
func classifyRefreshError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
		}
		return fmt.Errorf("%w: %v", ErrRefreshTransient, err)
	}
	if errors.Is(err, ErrRefreshInvalid) || errors.Is(err, ErrRefreshTransient) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRefreshTransient, err)
}
