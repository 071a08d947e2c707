// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package models

import "strings"

// ContentOrigin classifies where an artwork item came from, derived from the
// structure of its content ID. The origin is computed once at ingestion and
// carried on the item; downstream code never re-inspects ID prefixes.
type ContentOrigin int

const (
	// OriginUnknown covers content IDs that match no known scheme.
	OriginUnknown ContentOrigin = iota

	// OriginPersonal is user-uploaded content (MY_F prefix).
	OriginPersonal

	// OriginStore is art purchased or sampled from the vendor store (SAM- prefix).
	OriginStore

	// OriginAmbient is built-in ambient content (all-numeric IDs).
	OriginAmbient
)

// String returns the origin name used in logs and reports.
func (o ContentOrigin) String() string {
	switch o {
	case OriginPersonal:
		return "personal"
	case OriginStore:
		return "store"
	case OriginAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// CacheDir returns the cache subdirectory for items of this origin.
// Ambient and unknown content share the "other" directory.
func (o ContentOrigin) CacheDir() string {
	switch o {
	case OriginPersonal:
		return "personal"
	case OriginStore:
		return "store"
	default:
		return "other"
	}
}

// MarshalJSON encodes the origin as its string name.
func (o ContentOrigin) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// UnmarshalJSON decodes an origin from its string name.
func (o *ContentOrigin) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "personal":
		*o = OriginPersonal
	case "store":
		*o = OriginStore
	case "ambient":
		*o = OriginAmbient
	default:
		*o = OriginUnknown
	}
	return nil
}

// OriginOf derives the content origin from a content ID.
func OriginOf(contentID string) ContentOrigin {
	switch {
	case strings.HasPrefix(contentID, "MY_F"):
		return OriginPersonal
	case strings.HasPrefix(contentID, "SAM-"):
		return OriginStore
	case isAllDigits(contentID):
		return OriginAmbient
	default:
		return OriginUnknown
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Known TV content categories.
const (
	CategoryPersonal  = "MY-C0002" // user uploads
	CategoryFavorites = "MY-C0004" // favourited items
	CategoryStore     = "MY-C0008" // vendor art store
)

// ArtworkItem is one entry from the TV's artwork inventory.
type ArtworkItem struct {
	ContentID       string        `json:"content_id"`
	CategoryID      string        `json:"category_id,omitempty"`
	Origin          ContentOrigin `json:"origin"`
	Favorite        bool          `json:"favorite,omitempty"`
	MatteID         string        `json:"matte_id,omitempty"`
	PortraitMatteID string        `json:"portrait_matte_id,omitempty"`
	Width           int           `json:"width,omitempty"`
	Height          int           `json:"height,omitempty"`
	ImageDate       string        `json:"image_date,omitempty"` // as reported by the TV
}

// CurrentArtwork describes the artwork currently shown in art mode.
type CurrentArtwork struct {
	ContentID  string        `json:"content_id"`
	Origin     ContentOrigin `json:"origin"`
	MatteID    string        `json:"matte_id,omitempty"`
	CategoryID string        `json:"category_id,omitempty"`
}

// MatteList is the TV's available matte types and colors.
type MatteList struct {
	Types  []string `json:"types"`
	Colors []string `json:"colors"`
}

// SlideshowStatus describes the art-mode slideshow configuration.
type SlideshowStatus struct {
	Value      string `json:"value"`       // off, shuffleslideshow, slideshow
	Duration   int    `json:"duration"`    // minutes; 0 means off
	CategoryID string `json:"category_id,omitempty"`
}
