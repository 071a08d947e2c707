// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"errors"
	"fmt"
)

// Sentinel errors for the art-mode protocol. Callers classify failures with
// errors.Is; ProtocolError carries the TV's error code when one was returned.
var (
	// ErrNotConnected is returned for requests issued while the client is
	// not in the Connected state. No reconnect wait is attempted.
	ErrNotConnected = errors.New("artmode: not connected")

	// ErrConnectionLost fails in-flight requests when the underlying
	// WebSocket drops mid-request.
	ErrConnectionLost = errors.New("artmode: connection lost")

	// ErrTimeout is returned when the TV does not answer a request within
	// its deadline.
	ErrTimeout = errors.New("artmode: request timed out")

	// ErrAuthRejected is returned when the TV refuses the channel on the
	// secure port (expired or missing pairing token).
	ErrAuthRejected = errors.New("artmode: authorization rejected by tv")

	// ErrDrmProtected marks content whose thumbnail the TV refuses to
	// serve. Permanent for the content item; never retried.
	ErrDrmProtected = errors.New("artmode: content is drm protected")

	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("artmode: client closed")
)

// ProtocolError is an explicit error reply from the TV (sub-event "error").
type ProtocolError struct {
	// Op is the request that triggered the error.
	Op string

	// Code is the TV's error_code field; "unknown" when absent.
	Code string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("artmode: tv returned error for %s (code %s)", e.Op, e.Code)
}

// IsProtocolError reports whether err is (or wraps) a TV error reply, and
// returns it if so.
func IsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
