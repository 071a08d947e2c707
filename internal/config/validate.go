// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints via tags plus the cross-field rules
// tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed rule %q (value %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}

	if c.TV.Port == 8001 && c.TV.Token != "" {
		return fmt.Errorf("tv.token has no effect on port 8001; use port 8002 for token pairing")
	}

	if c.SmartThings.Enabled {
		if c.SmartThings.ClientID == "" || c.SmartThings.ClientSecret == "" {
			return fmt.Errorf("smartthings.client_id and smartthings.client_secret are required when smartthings.enabled=true")
		}
		if c.SmartThings.DeviceID == "" {
			return fmt.Errorf("smartthings.device_id is required when smartthings.enabled=true")
		}
	}

	return nil
}
