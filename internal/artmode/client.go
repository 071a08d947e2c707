// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/metrics"
)

// State is the connection lifecycle state of the client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String returns the state name used in logs and the status API.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

const (
	// SecurePort carries TLS and requires a pairing token.
	SecurePort = 8002

	// PlainPort is unauthenticated; older firmwares only.
	PlainPort = 8001

	channelPath = "/api/v2/channels/com.samsung.art-app"

	defaultRequestTimeout   = 5 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultReconnectDelay   = 1 * time.Second
	pingInterval            = 30 * time.Second
	readyTimeout            = 5 * time.Second
)

// Config holds TV connection settings.
type Config struct {
	Host             string
	Port             int           // SecurePort or PlainPort
	ClientName       string        // shown on the TV's pairing prompt
	Token            string        // pairing token, secure port only
	RequestTimeout   time.Duration // per-request; default 5s
	HandshakeTimeout time.Duration // default 10s
	ReconnectDelay   time.Duration // fixed delay between reconnect attempts; default 1s

	// OnNewToken is called when the TV issues a pairing token during the
	// handshake, so callers can persist it. Optional.
	OnNewToken func(token string)
}

type pendingResult struct {
	msg *Message
	err error
}

// Client is a request/response client for the TV's art-app WebSocket channel.
// It correlates responses by request ID, fans unsolicited events out to
// subscribers, and reconnects automatically with a fixed delay after the
// connection drops. Requests issued while disconnected fail fast.
type Client struct {
	cfg    Config
	logger zerolog.Logger

	connMu  sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	stateMu sync.RWMutex
	state   State

	tokenMu sync.RWMutex
	token   string

	pendingMu    sync.Mutex
	pending      map[string]chan pendingResult
	eventWaiters map[string]chan pendingResult

	subMu       sync.RWMutex
	subscribers []func(*Message)

	stopChan  chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewClient creates a client. Connect must be called before issuing requests.
func NewClient(cfg Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = SecurePort
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "Framebridge"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}

	return &Client{
		cfg:          cfg,
		logger:       logging.WithComponent("artmode"),
		token:        cfg.Token,
		pending:      make(map[string]chan pendingResult),
		eventWaiters: make(map[string]chan pendingResult),
		stopChan:     make(chan struct{}),
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	prev := c.state
	c.state = s
	c.stateMu.Unlock()
	if prev != s {
		c.logger.Info().
			Str("from", prev.String()).
			Str("to", s.String()).
			Msg("Connection state changed")
		metrics.RecordTVConnectionState(s.String())
	}
}

// SetToken updates the pairing token used for subsequent (re)connects.
// Called by the credential propagation path after a refresh.
func (c *Client) SetToken(token string) {
	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()
}

func (c *Client) currentToken() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

// Subscribe registers a callback for unsolicited TV events. Callbacks run on
// the read loop goroutine and must not block.
func (c *Client) Subscribe(fn func(*Message)) {
	c.subMu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.subMu.Unlock()
}

// Connect dials the TV, completes the channel handshake, and starts the read
// and ping loops. It returns once the channel is ready.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopChan:
		return ErrClosed
	default:
	}

	c.setState(StateConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.setState(StateConnected)

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return nil
}

// buildChannelURL constructs the art-app channel URL. The client name is
// base64-encoded; the token rides along on the secure port only.
func (c *Client) buildChannelURL() string {
	scheme := "ws"
	if c.cfg.Port == SecurePort {
		scheme = "wss"
	}

	u := url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port),
		Path:   channelPath,
	}
	q := u.Query()
	q.Set("name", base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientName)))
	if token := c.currentToken(); token != "" && c.cfg.Port == SecurePort {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}
	if c.cfg.Port == SecurePort {
		// TVs present self-signed certificates.
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	wsURL := c.buildChannelURL()
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return nil, fmt.Errorf("%w: handshake returned %d", ErrAuthRejected, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: dial %s: %v", ErrNotConnected, c.cfg.Host, err)
	}

	if err := c.awaitReady(conn); err != nil {
		conn.Close()
		return nil, err
	}

	c.logger.Info().
		Str("host", c.cfg.Host).
		Int("port", c.cfg.Port).
		Msg("Art channel ready")
	return conn, nil
}

// awaitReady consumes channel-control frames until ms.channel.ready arrives.
func (c *Client) awaitReady(conn *websocket.Conn) error {
	deadline := time.Now().Add(readyTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("set ready deadline: %w", err)
	}
	defer conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	for i := 0; i < 5; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: waiting for channel ready: %v", ErrNotConnected, err)
		}

		msg, err := DecodeFrame(data)
		if err != nil {
			c.logger.Debug().Err(err).Msg("Undecodable frame during handshake")
			continue
		}

		switch msg.Event {
		case eventChannelReady:
			return nil
		case eventChannelUnauthorized:
			return ErrAuthRejected
		case eventChannelConnect:
			// Pairing acknowledged; ready follows. A token in the
			// payload is the TV granting (or rotating) the pairing
			// credential.
			if tok := msg.Str("token"); tok != "" && tok != c.currentToken() {
				c.SetToken(tok)
				if c.cfg.OnNewToken != nil {
					c.cfg.OnNewToken(tok)
				}
			}
		}
	}
	return fmt.Errorf("%w: channel ready not received", ErrNotConnected)
}

// readLoop processes inbound frames until the connection drops, then hands
// off to the reconnect loop. Exits when Close is called.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopChan:
				return
			default:
			}

			c.logger.Warn().Err(err).Msg("Connection lost")
			c.failPending(ErrConnectionLost)
			c.setState(StateReconnecting)
			metrics.RecordTVReconnect()

			if !c.reconnect() {
				return
			}
			continue
		}

		c.handleFrame(data)
	}
}

// reconnect retries with a fixed delay until it succeeds or Close is called.
// Returns false when the client was closed.
func (c *Client) reconnect() bool {
	for {
		select {
		case <-c.stopChan:
			return false
		case <-time.After(c.cfg.ReconnectDelay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
		conn, err := c.dial(ctx)
		cancel()
		if err != nil {
			c.logger.Debug().Err(err).Msg("Reconnect attempt failed")
			continue
		}

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.conn = conn
		c.connMu.Unlock()
		c.setState(StateConnected)
		return true
	}
}

func (c *Client) handleFrame(data []byte) {
	msg, err := DecodeFrame(data)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Undecodable frame")
		return
	}

	switch msg.Kind {
	case KindChannel:
		c.logger.Debug().Str("event", msg.Event).Msg("Channel event")
		return
	case KindResponse:
		if c.deliverPending(msg.RequestID, msg) {
			return
		}
		// Response nobody is waiting for; treat as an event.
		fallthrough
	case KindEvent:
		if c.deliverEventWaiter(msg.Event, msg) {
			return
		}
		c.dispatchEvent(msg)
	}
}

func (c *Client) deliverPending(id string, msg *Message) bool {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
	if !ok {
		return false
	}
	ch <- pendingResult{msg: msg}
	return true
}

func (c *Client) deliverEventWaiter(event string, msg *Message) bool {
	c.pendingMu.Lock()
	ch, ok := c.eventWaiters[event]
	if ok {
		delete(c.eventWaiters, event)
	}
	c.pendingMu.Unlock()
	if !ok {
		return false
	}
	ch <- pendingResult{msg: msg}
	return true
}

func (c *Client) dispatchEvent(msg *Message) {
	c.subMu.RLock()
	subs := make([]func(*Message), len(c.subscribers))
	copy(subs, c.subscribers)
	c.subMu.RUnlock()

	for _, fn := range subs {
		fn(msg)
	}
}

// failPending fails every in-flight request and event waiter with err.
func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- pendingResult{err: err}
	}
	for event, ch := range c.eventWaiters {
		delete(c.eventWaiters, event)
		ch <- pendingResult{err: err}
	}
}

// pingLoop keeps the channel alive. The TV silently drops idle connections.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			if c.State() != StateConnected {
				continue
			}
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()
			if conn == nil {
				continue
			}
			c.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Debug().Err(err).Msg("Ping failed")
			}
		}
	}
}

// Request sends one art-app request and waits for its correlated response.
// The returned message is never an error reply; those surface as
// *ProtocolError. Fails fast with ErrNotConnected when the channel is down.
func (c *Client) Request(ctx context.Context, name string, extra map[string]any) (*Message, error) {
	return c.request(ctx, name, extra, "", c.cfg.RequestTimeout)
}

// RequestTimeout is Request with an explicit deadline, for slow operations
// such as full content listings.
func (c *Client) RequestTimeout(ctx context.Context, name string, extra map[string]any, timeout time.Duration) (*Message, error) {
	return c.request(ctx, name, extra, "", timeout)
}

// RequestAwaitEvent sends a request whose reply arrives as a named event
// without a correlation ID (favorite changes, upload completion).
func (c *Client) RequestAwaitEvent(ctx context.Context, name string, extra map[string]any, event string, timeout time.Duration) (*Message, error) {
	return c.request(ctx, name, extra, event, timeout)
}

func (c *Client) request(ctx context.Context, name string, extra map[string]any, awaitEvent string, timeout time.Duration) (*Message, error) {
	if c.State() != StateConnected {
		return nil, fmt.Errorf("%w: cannot send %s", ErrNotConnected, name)
	}

	payload, id := BuildRequest(name, extra)

	ch := make(chan pendingResult, 1)
	c.pendingMu.Lock()
	if awaitEvent != "" {
		c.eventWaiters[awaitEvent] = ch
	} else {
		c.pending[id] = ch
	}
	c.pendingMu.Unlock()

	cleanup := func() {
		c.pendingMu.Lock()
		if awaitEvent != "" {
			if c.eventWaiters[awaitEvent] == ch {
				delete(c.eventWaiters, awaitEvent)
			}
		} else {
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()
	}

	start := time.Now()
	if err := c.send(payload); err != nil {
		cleanup()
		metrics.RecordArtRequest(name, "send_error", time.Since(start))
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			metrics.RecordArtRequest(name, "connection_lost", time.Since(start))
			return nil, res.err
		}
		if err := res.msg.Err(name); err != nil {
			metrics.RecordArtRequest(name, "tv_error", time.Since(start))
			return nil, err
		}
		metrics.RecordArtRequest(name, "ok", time.Since(start))
		return res.msg, nil
	case <-timer.C:
		cleanup()
		metrics.RecordArtRequest(name, "timeout", time.Since(start))
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, name, timeout)
	case <-ctx.Done():
		cleanup()
		metrics.RecordArtRequest(name, "cancelled", time.Since(start))
		return nil, ctx.Err()
	case <-c.stopChan:
		cleanup()
		return nil, ErrClosed
	}
}

// EventWaiter is a registered one-shot wait for a named event.
type EventWaiter struct {
	event  string
	ch     chan pendingResult
	cancel func()
}

// WatchEvent registers a waiter for the next occurrence of a named event.
// Register before triggering the action that produces the event; call Wait
// to collect it.
func (c *Client) WatchEvent(event string) *EventWaiter {
	ch := make(chan pendingResult, 1)
	c.pendingMu.Lock()
	c.eventWaiters[event] = ch
	c.pendingMu.Unlock()

	return &EventWaiter{
		event: event,
		ch:    ch,
		cancel: func() {
			c.pendingMu.Lock()
			if c.eventWaiters[event] == ch {
				delete(c.eventWaiters, event)
			}
			c.pendingMu.Unlock()
		},
	}
}

// Wait blocks until the event arrives, the timeout elapses, or ctx is done.
func (w *EventWaiter) Wait(ctx context.Context, timeout time.Duration) (*Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	defer w.cancel()

	select {
	case res := <-w.ch:
		if res.err != nil {
			return nil, res.err
		}
		if err := res.msg.Err(res.msg.Event); err != nil {
			return nil, err
		}
		return res.msg, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: waiting for %s", ErrTimeout, w.event)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) send(payload map[string]any) error {
	data, err := EncodeRequest(payload)
	if err != nil {
		return err
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: write: %v", ErrConnectionLost, err)
	}
	return nil
}

// Close shuts the client down. In-flight requests fail with ErrClosed; the
// client cannot be reused afterwards.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)

		c.connMu.Lock()
		if c.conn != nil {
			c.writeMu.Lock()
			c.conn.WriteControl( //nolint:errcheck
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			c.writeMu.Unlock()
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		c.failPending(ErrClosed)
		c.wg.Wait()
		c.setState(StateDisconnected)
	})
	return nil
}
