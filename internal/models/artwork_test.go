// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestOriginOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentID string
		expected  ContentOrigin
	}{
		{"MY_F0003", OriginPersonal},
		{"MY_F1200", OriginPersonal},
		{"SAM-S0123", OriginStore},
		{"SAM-F0206", OriginStore},
		{"20240101", OriginAmbient},
		{"7", OriginAmbient},
		{"MY-C0002", OriginUnknown}, // category id, not content id
		{"abc", OriginUnknown},
		{"", OriginUnknown},
		{"SAM_F0206", OriginUnknown}, // underscore, not the store prefix
	}

	for _, tt := range tests {
		t.Run(tt.contentID, func(t *testing.T) {
			t.Parallel()
			if got := OriginOf(tt.contentID); got != tt.expected {
				t.Errorf("OriginOf(%q) = %v, want %v", tt.contentID, got, tt.expected)
			}
		})
	}
}

func TestContentOriginCacheDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origin   ContentOrigin
		expected string
	}{
		{OriginPersonal, "personal"},
		{OriginStore, "store"},
		{OriginAmbient, "other"},
		{OriginUnknown, "other"},
	}

	for _, tt := range tests {
		if got := tt.origin.CacheDir(); got != tt.expected {
			t.Errorf("%v.CacheDir() = %q, want %q", tt.origin, got, tt.expected)
		}
	}
}

func TestContentOriginJSON(t *testing.T) {
	t.Parallel()

	item := ArtworkItem{ContentID: "SAM-S0123", Origin: OriginStore}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ArtworkItem
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Origin != OriginStore {
		t.Errorf("expected origin store after round trip, got %v", decoded.Origin)
	}
}

func TestSyncReportCounts(t *testing.T) {
	t.Parallel()

	report := SyncReport{
		Downloaded: []SyncDownload{{ContentID: "MY_F0001"}},
		Skipped:    []string{"MY_F0002", "MY_F0003"},
		Failed:     []SyncFailure{{ContentID: "SAM-S0001", Reason: "drm protected"}},
	}

	if report.DownloadedCount() != 1 {
		t.Errorf("expected 1 downloaded, got %d", report.DownloadedCount())
	}
	if report.SkippedCount() != 2 {
		t.Errorf("expected 2 skipped, got %d", report.SkippedCount())
	}
	if report.FailedCount() != 1 {
		t.Errorf("expected 1 failed, got %d", report.FailedCount())
	}
	if report.DeletedCount() != 0 {
		t.Errorf("expected 0 deleted, got %d", report.DeletedCount())
	}
}
