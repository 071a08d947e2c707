// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/smartthings"
)

// PowerState reports the TV's power state through SmartThings.
func (h *Handler) PowerState(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.power == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "SmartThings is not configured")
		return
	}

	state, err := h.power.PowerState(r.Context(), h.deviceID)
	if err != nil {
		writePowerError(rw, err)
		return
	}
	rw.Success(map[string]any{"power": state})
}

// SetPower turns the TV on or off through SmartThings.
func (h *Handler) SetPower(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.power == nil {
		rw.ServiceUnavailable(ErrCodeServiceUnavailable, "SmartThings is not configured")
		return
	}

	var body struct {
		On *bool `json:"on"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.On == nil {
		rw.BadRequest("body must be {\"on\": true|false}")
		return
	}

	if err := h.power.SetPower(r.Context(), h.deviceID, *body.On); err != nil {
		writePowerError(rw, err)
		return
	}
	rw.Success(map[string]any{"on": *body.On})
}

func writePowerError(rw *ResponseWriter, err error) {
	if errors.Is(err, smartthings.ErrUnauthorized) {
		rw.Error(http.StatusBadGateway, ErrCodeServiceUnavailable,
			"SmartThings rejected the credential; it will be refreshed")
		return
	}
	rw.Error(http.StatusBadGateway, ErrCodeServiceUnavailable, err.Error())
}
