// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package artmode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/models"
)

// contentListTimeout covers full inventory listings, which the TV can take
// well over the default request deadline to assemble.
const contentListTimeout = 15 * time.Second

// eventWaitTimeout covers operations answered by a named event rather than
// a correlated response.
const eventWaitTimeout = 10 * time.Second

// APIVersion returns the art-app API version string. Newer firmwares answer
// get_api_version; older ones only know the bare api_version request.
func (c *Client) APIVersion(ctx context.Context) (string, error) {
	msg, err := c.Request(ctx, "get_api_version", nil)
	if err != nil {
		if _, ok := IsProtocolError(err); !ok && !errors.Is(err, ErrTimeout) {
			return "", err
		}
		msg, err = c.Request(ctx, "api_version", nil)
		if err != nil {
			return "", err
		}
	}
	return msg.Str("version"), nil
}

// Available lists the TV's artwork inventory, optionally restricted to a
// category. Origins are computed at ingestion.
func (c *Client) Available(ctx context.Context, category string) ([]models.ArtworkItem, error) {
	extra := map[string]any{}
	if category != "" {
		extra["category"] = category
	}
	msg, err := c.RequestTimeout(ctx, "get_content_list", extra, contentListTimeout)
	if err != nil {
		return nil, err
	}
	items, err := ParseContentList(msg)
	if err != nil {
		return nil, err
	}
	if category == models.CategoryFavorites {
		for i := range items {
			items[i].Favorite = true
		}
	}
	return items, nil
}

// Current returns the artwork currently displayed in art mode.
func (c *Client) Current(ctx context.Context) (*models.CurrentArtwork, error) {
	msg, err := c.Request(ctx, "get_current_artwork", nil)
	if err != nil {
		return nil, err
	}
	contentID := msg.Str("content_id")
	return &models.CurrentArtwork{
		ContentID:  contentID,
		Origin:     models.OriginOf(contentID),
		MatteID:    msg.Str("matte_id"),
		CategoryID: msg.Str("category_id"),
	}, nil
}

// SelectImage displays the given artwork. When show is false the selection
// is staged without switching the panel.
func (c *Client) SelectImage(ctx context.Context, contentID string, show bool) error {
	_, err := c.Request(ctx, "select_image", map[string]any{
		"content_id": contentID,
		"show":       show,
	})
	return err
}

// ArtModeStatus reports whether the panel is in art mode.
func (c *Client) ArtModeStatus(ctx context.Context) (bool, error) {
	msg, err := c.Request(ctx, "get_artmode_status", nil)
	if err != nil {
		return false, err
	}
	return msg.Str("value") == "on", nil
}

// SetArtModeStatus switches the panel in or out of art mode.
func (c *Client) SetArtModeStatus(ctx context.Context, on bool) error {
	value := "off"
	if on {
		value = "on"
	}
	_, err := c.Request(ctx, "set_artmode_status", map[string]any{"value": value})
	return err
}

// SetFavorite marks or unmarks an artwork as a favourite. The TV answers
// with a favorite_changed event rather than a correlated response.
func (c *Client) SetFavorite(ctx context.Context, contentID string, favorite bool) error {
	status := "off"
	if favorite {
		status = "on"
	}
	_, err := c.RequestAwaitEvent(ctx, "change_favorite", map[string]any{
		"content_id": contentID,
		"status":     status,
	}, "favorite_changed", eventWaitTimeout)
	return err
}

// MatteList returns the available matte types and colors.
func (c *Client) MatteList(ctx context.Context) (*models.MatteList, error) {
	msg, err := c.Request(ctx, "get_matte_list", nil)
	if err != nil {
		return nil, err
	}

	list := &models.MatteList{}
	if types, err := decodeNamedList(msg.Fields["matte_type_list"], "matte_type"); err == nil {
		list.Types = types
	}
	if colors, err := decodeNamedList(msg.Fields["matte_color_list"], "color"); err == nil {
		list.Colors = colors
	}
	return list, nil
}

// decodeNamedList flattens the TV's list-of-objects shape ([{key: value}])
// into a string slice. The list itself may be double-encoded.
func decodeNamedList(raw any, key string) ([]string, error) {
	if raw == nil {
		return nil, fmt.Errorf("missing list")
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = encoded
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if s, ok := e[key].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// ChangeMatte sets the matte for an artwork. An empty matte removes it.
func (c *Client) ChangeMatte(ctx context.Context, contentID, matteID string) error {
	extra := map[string]any{"content_id": contentID}
	if matteID != "" {
		extra["matte_id"] = matteID
	} else {
		extra["matte_id"] = "none"
	}
	_, err := c.Request(ctx, "change_matte", extra)
	return err
}

// PhotoFilterList returns the available photo filters.
func (c *Client) PhotoFilterList(ctx context.Context) ([]string, error) {
	msg, err := c.Request(ctx, "get_photo_filter_list", nil)
	if err != nil {
		return nil, err
	}
	return decodeNamedList(msg.Fields["filter_list"], "filter_id")
}

// SetPhotoFilter applies a photo filter to an artwork.
func (c *Client) SetPhotoFilter(ctx context.Context, contentID, filterID string) error {
	_, err := c.Request(ctx, "set_photo_filter", map[string]any{
		"content_id": contentID,
		"filter_id":  filterID,
	})
	return err
}

// ArtModeSettings returns the art-mode settings items (brightness, color
// temperature, motion sensitivity and friends) keyed by item name. Only
// newer firmwares implement it.
func (c *Client) ArtModeSettings(ctx context.Context) (map[string]string, error) {
	msg, err := c.Request(ctx, "get_artmode_settings", nil)
	if err != nil {
		return nil, err
	}

	raw, ok := msg.Fields["data"]
	if !ok {
		return nil, fmt.Errorf("artmode settings response has no data")
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = encoded
	}

	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode artmode settings: %w", err)
	}

	settings := make(map[string]string, len(entries))
	for _, e := range entries {
		item := stringField(e, "item")
		if item == "" {
			continue
		}
		settings[item] = stringField(e, "value")
	}
	return settings, nil
}

// Brightness returns the art-mode brightness. Falls back to the legacy
// request on firmwares without the settings surface.
func (c *Client) Brightness(ctx context.Context) (int, error) {
	settings, err := c.ArtModeSettings(ctx)
	if err == nil {
		if v, ok := settings["brightness"]; ok {
			return atoiLoose(v), nil
		}
	}
	if _, ok := IsProtocolError(err); !ok && err != nil && !errors.Is(err, ErrTimeout) {
		return 0, err
	}

	msg, err := c.Request(ctx, "get_brightness", nil)
	if err != nil {
		return 0, err
	}
	return msg.Int("value"), nil
}

// SetBrightness sets the art-mode brightness.
func (c *Client) SetBrightness(ctx context.Context, value int) error {
	_, err := c.Request(ctx, "set_brightness", map[string]any{"value": value})
	return err
}

// ColorTemperature returns the art-mode color temperature.
func (c *Client) ColorTemperature(ctx context.Context) (int, error) {
	settings, err := c.ArtModeSettings(ctx)
	if err == nil {
		if v, ok := settings["color_temperature"]; ok {
			return atoiLoose(v), nil
		}
	}
	if _, ok := IsProtocolError(err); !ok && err != nil && !errors.Is(err, ErrTimeout) {
		return 0, err
	}

	msg, err := c.Request(ctx, "get_color_temperature", nil)
	if err != nil {
		return 0, err
	}
	return msg.Int("value"), nil
}

// SetColorTemperature sets the art-mode color temperature.
func (c *Client) SetColorTemperature(ctx context.Context, value int) error {
	_, err := c.Request(ctx, "set_color_temperature", map[string]any{"value": value})
	return err
}

// SlideshowStatus returns the current slideshow configuration.
func (c *Client) SlideshowStatus(ctx context.Context) (*models.SlideshowStatus, error) {
	msg, err := c.Request(ctx, "get_slideshow_status", nil)
	if err != nil {
		return nil, err
	}
	return &models.SlideshowStatus{
		Value:      msg.Str("value"),
		Duration:   msg.Int("sleep_after"),
		CategoryID: msg.Str("category_id"),
	}, nil
}

// SetSlideshowStatus configures the art-mode slideshow. Duration is in
// minutes; a zero duration turns the slideshow off.
func (c *Client) SetSlideshowStatus(ctx context.Context, status *models.SlideshowStatus) error {
	value := status.Value
	if status.Duration == 0 {
		value = "off"
	}
	extra := map[string]any{
		"value":       value,
		"sleep_after": status.Duration,
	}
	if status.CategoryID != "" {
		extra["category_id"] = status.CategoryID
	}
	_, err := c.Request(ctx, "set_slideshow_status", extra)
	return err
}

// Delete removes artwork items from the TV.
func (c *Client) Delete(ctx context.Context, contentIDs ...string) error {
	if len(contentIDs) == 0 {
		return nil
	}
	list := make([]map[string]any, 0, len(contentIDs))
	for _, id := range contentIDs {
		list = append(list, map[string]any{"content_id": id})
	}
	_, err := c.Request(ctx, "delete_image_list", map[string]any{
		"content_id_list": list,
	})
	return err
}

func atoiLoose(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
