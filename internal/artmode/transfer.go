// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/framebridge/framebridge/internal/logging"
	"github.com/framebridge/framebridge/internal/metrics"
	"github.com/framebridge/framebridge/internal/models"
)

// Requester is the slice of the protocol client the transfer channel needs.
// Split out so transfer logic tests against a fake.
type Requester interface {
	RequestTimeout(ctx context.Context, name string, extra map[string]any, timeout time.Duration) (*Message, error)
	WatchEvent(event string) *EventWaiter
}

const (
	defaultWarmupDelay     = 100 * time.Millisecond
	defaultConnectTimeout  = 5 * time.Second
	defaultTransferTimeout = 30 * time.Second
	negotiateTimeout       = 10 * time.Second
)

// defaultRetryDelays bounds transfer retries: one initial attempt plus one
// retry per delay entry.
var defaultRetryDelays = []time.Duration{500 * time.Millisecond, 1 * time.Second}

// DialFunc dials the TV's ephemeral transfer endpoint. Injectable for tests.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// TransferChannel fetches thumbnail bytes over the TV's ephemeral TCP
// transfer socket. Each fetch negotiates a fresh endpoint over the control
// channel, dials it immediately (the TV only holds it open briefly), and
// reads one length-prefixed frame.
type TransferChannel struct {
	req    Requester
	dial   DialFunc
	logger zerolog.Logger

	// WarmupDelay is the pause after priming the TV before fetching
	// non-personal content. Some firmwares reset the transfer socket for
	// store content unless a listing touched it recently; the priming
	// request plus this pause works around that. Empirical, not protocol.
	WarmupDelay time.Duration

	// RetryDelays are the waits before each retry after a connection
	// reset or short read. len(RetryDelays)+1 bounds total attempts.
	RetryDelays []time.Duration

	ConnectTimeout  time.Duration
	TransferTimeout time.Duration
}

// NewTransferChannel creates a transfer channel over the given client.
func NewTransferChannel(req Requester) *TransferChannel {
	var d net.Dialer
	return &TransferChannel{
		req:             req,
		dial:            d.DialContext,
		logger:          logging.WithComponent("transfer"),
		WarmupDelay:     defaultWarmupDelay,
		RetryDelays:     defaultRetryDelays,
		ConnectTimeout:  defaultConnectTimeout,
		TransferTimeout: defaultTransferTimeout,
	}
}

// SetDialFunc overrides the TCP dialer. Tests point this at a local listener.
func (t *TransferChannel) SetDialFunc(dial DialFunc) {
	t.dial = dial
}

// Fetch downloads the thumbnail for one content item. DRM-protected content
// fails permanently with ErrDrmProtected; transport hiccups are retried with
// bounded delays regardless of the content's origin.
func (t *TransferChannel) Fetch(ctx context.Context, contentID string) ([]byte, error) {
	if models.OriginOf(contentID) != models.OriginPersonal {
		t.warmup(ctx)
	}

	var lastErr error
	attempts := len(t.RetryDelays) + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(t.RetryDelays[attempt-1]):
			}
			t.logger.Debug().
				Str("content_id", contentID).
				Int("attempt", attempt+1).
				Msg("Retrying thumbnail transfer")
		}

		data, err := t.fetchOnce(ctx, contentID)
		if err == nil {
			metrics.RecordThumbnailTransfer("ok", attempt+1)
			return data, nil
		}
		lastErr = err

		if !isRetryableTransfer(err) {
			metrics.RecordThumbnailTransfer("failed", attempt+1)
			return nil, err
		}
	}

	metrics.RecordThumbnailTransfer("exhausted", attempts)
	return nil, fmt.Errorf("thumbnail transfer for %s failed after %d attempts: %w",
		contentID, attempts, lastErr)
}

// warmup primes the TV's transfer path with a favorites listing. Failures
// are ignored; the fetch proceeds either way.
func (t *TransferChannel) warmup(ctx context.Context) {
	if t.WarmupDelay <= 0 {
		return
	}
	_, err := t.req.RequestTimeout(ctx, "get_content_list", map[string]any{
		"category": models.CategoryFavorites,
	}, negotiateTimeout)
	if err != nil {
		t.logger.Debug().Err(err).Msg("Transfer warm-up listing failed")
	}
	select {
	case <-ctx.Done():
	case <-time.After(t.WarmupDelay):
	}
}

func (t *TransferChannel) fetchOnce(ctx context.Context, contentID string) ([]byte, error) {
	info, err := t.negotiate(ctx, contentID)
	if err != nil {
		return nil, err
	}

	// The TV closes the endpoint if the dial does not arrive promptly.
	dialCtx, cancel := context.WithTimeout(ctx, t.ConnectTimeout)
	defer cancel()
	conn, err := t.dial(dialCtx, "tcp", info.Addr())
	if err != nil {
		return nil, fmt.Errorf("dial transfer endpoint %s: %w", info.Addr(), err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(t.TransferTimeout)); err != nil {
		return nil, fmt.Errorf("set transfer deadline: %w", err)
	}

	header, err := ReadTransferHeader(conn)
	if err != nil {
		return nil, err
	}

	data := make([]byte, header.FileLength)
	if _, err := io.ReadFull(conn, data); err != nil {
		return nil, fmt.Errorf("read thumbnail body (%d bytes): %w", header.FileLength, err)
	}

	t.logger.Debug().
		Str("content_id", contentID).
		Int64("bytes", header.FileLength).
		Str("file_type", header.FileType).
		Msg("Thumbnail transferred")
	return data, nil
}

// negotiate asks the TV to open an ephemeral transfer endpoint. Prefers the
// list form; falls back to the legacy single-thumbnail request on firmwares
// that reject it with an error reply or stall it past the timeout. Only an
// explicit DRM error code marks the content as locked; any other TV error
// surfaces as the protocol error it is.
func (t *TransferChannel) negotiate(ctx context.Context, contentID string) (*ConnInfo, error) {
	connInfo := map[string]any{
		"d2d_mode":      "socket",
		"connection_id": rand.Uint32(),
		"id":            NewRequestID(),
	}

	msg, err := t.req.RequestTimeout(ctx, "get_thumbnail_list", map[string]any{
		"content_id_list": []map[string]any{{"content_id": contentID}},
		"conn_info":       connInfo,
	}, negotiateTimeout)
	if err == nil {
		return ParseConnInfo(msg)
	}
	if pe, ok := IsProtocolError(err); ok {
		if isDrmCode(pe.Code) {
			return nil, fmt.Errorf("%w: %s (code %s)", ErrDrmProtected, contentID, pe.Code)
		}
	} else if !errors.Is(err, ErrTimeout) {
		return nil, err
	}

	msg, err = t.req.RequestTimeout(ctx, "get_thumbnail", map[string]any{
		"content_id": contentID,
		"conn_info":  connInfo,
	}, negotiateTimeout)
	if err != nil {
		if pe, ok := IsProtocolError(err); ok && isDrmCode(pe.Code) {
			return nil, fmt.Errorf("%w: %s (code %s)", ErrDrmProtected, contentID, pe.Code)
		}
		return nil, err
	}
	return ParseConnInfo(msg)
}

// isDrmCode reports whether a TV error code marks DRM-locked content. Store
// firmwares answer 1401 or an EMP_ERROR_DRM-style code; generic art-app
// failures (code -1) carry no DRM marker and stay protocol errors.
func isDrmCode(code string) bool {
	return code == "1401" || strings.Contains(code, "DRM")
}

// isRetryableTransfer reports whether a transfer failure is worth another
// attempt: connection resets and short reads, not protocol or DRM errors.
func isRetryableTransfer(err error) bool {
	if errors.Is(err, ErrDrmProtected) ||
		errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := IsProtocolError(err); ok {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
