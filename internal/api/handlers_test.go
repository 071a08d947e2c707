// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/framebridge/framebridge/internal/artmode"
	"github.com/framebridge/framebridge/internal/models"
	"github.com/framebridge/framebridge/internal/thumbsync"
)

// fakeTV scripts the art-mode client. Unset function fields return zero
// values.
type fakeTV struct {
	state        artmode.State
	artModeOn    bool
	artModeErr   error
	items        []models.ArtworkItem
	itemsErr     error
	current      *models.CurrentArtwork
	selected     []string
	deleted      []string
	favorites    map[string]bool
	brightness   int
	lastCategory string
}

func (f *fakeTV) State() artmode.State                         { return f.state }
func (f *fakeTV) APIVersion(context.Context) (string, error)   { return "4.3.4.0", nil }
func (f *fakeTV) ArtModeStatus(context.Context) (bool, error)  { return f.artModeOn, f.artModeErr }
func (f *fakeTV) SetArtModeStatus(_ context.Context, on bool) error {
	f.artModeOn = on
	return f.artModeErr
}

func (f *fakeTV) Available(_ context.Context, category string) ([]models.ArtworkItem, error) {
	f.lastCategory = category
	return f.items, f.itemsErr
}

func (f *fakeTV) Current(context.Context) (*models.CurrentArtwork, error) {
	return f.current, f.itemsErr
}

func (f *fakeTV) SelectImage(_ context.Context, contentID string, _ bool) error {
	f.selected = append(f.selected, contentID)
	return f.artModeErr
}

func (f *fakeTV) SetFavorite(_ context.Context, contentID string, favorite bool) error {
	if f.favorites == nil {
		f.favorites = make(map[string]bool)
	}
	f.favorites[contentID] = favorite
	return nil
}

func (f *fakeTV) MatteList(context.Context) (*models.MatteList, error) {
	return &models.MatteList{Types: []string{"none", "shadowbox"}, Colors: []string{"black"}}, nil
}
func (f *fakeTV) ChangeMatte(context.Context, string, string) error       { return nil }
func (f *fakeTV) PhotoFilterList(context.Context) ([]string, error)       { return []string{"ink"}, nil }
func (f *fakeTV) SetPhotoFilter(context.Context, string, string) error    { return nil }
func (f *fakeTV) Brightness(context.Context) (int, error)                 { return f.brightness, nil }
func (f *fakeTV) SetBrightness(_ context.Context, v int) error            { f.brightness = v; return nil }
func (f *fakeTV) ColorTemperature(context.Context) (int, error)           { return 0, nil }
func (f *fakeTV) SetColorTemperature(context.Context, int) error          { return nil }
func (f *fakeTV) SlideshowStatus(context.Context) (*models.SlideshowStatus, error) {
	return &models.SlideshowStatus{Value: "off"}, nil
}
func (f *fakeTV) SetSlideshowStatus(context.Context, *models.SlideshowStatus) error { return nil }

func (f *fakeTV) Delete(_ context.Context, contentIDs ...string) error {
	f.deleted = append(f.deleted, contentIDs...)
	return nil
}

type fakeUploader struct {
	lastData []byte
	lastOpts artmode.UploadOptions
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, data []byte, opts artmode.UploadOptions) (string, error) {
	f.lastData = data
	f.lastOpts = opts
	if f.err != nil {
		return "", f.err
	}
	return "MY_F0099", nil
}

type fakeThumbs struct {
	data map[string][]byte
	err  error
}

func (f *fakeThumbs) EnsureThumbnail(_ context.Context, contentID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data[contentID], nil
}

type fakeSync struct {
	triggerErr error
	lastSel    thumbsync.Selector
	lastOpts   thumbsync.Options
	report     *models.SyncReport
}

func (f *fakeSync) Trigger(sel thumbsync.Selector, opts thumbsync.Options) error {
	f.lastSel = sel
	f.lastOpts = opts
	return f.triggerErr
}

func (f *fakeSync) LastReport() *models.SyncReport { return f.report }

type fakePower struct {
	state string
	on    *bool
	err   error
}

func (f *fakePower) PowerState(context.Context, string) (string, error) { return f.state, f.err }
func (f *fakePower) SetPower(_ context.Context, _ string, on bool) error {
	f.on = &on
	return f.err
}

type testEnv struct {
	tv       *fakeTV
	uploader *fakeUploader
	thumbs   *fakeThumbs
	sync     *fakeSync
	power    *fakePower
	server   *httptest.Server
}

func newTestEnv(t *testing.T, withPower bool) *testEnv {
	t.Helper()
	env := &testEnv{
		tv:       &fakeTV{state: artmode.StateConnected},
		uploader: &fakeUploader{},
		thumbs:   &fakeThumbs{data: map[string][]byte{}},
		sync:     &fakeSync{},
	}
	cfg := HandlerConfig{
		TV:         env.tv,
		Uploader:   env.uploader,
		Thumbnails: env.thumbs,
		Sync:       env.sync,
		Version:    "test",
	}
	if withPower {
		env.power = &fakePower{state: "on"}
		cfg.Power = env.power
		cfg.DeviceID = "device-1"
	}
	env.server = httptest.NewServer(NewRouter(NewHandler(cfg), RouterConfig{
		RateLimitRequests: 10000,
	}))
	t.Cleanup(env.server.Close)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck

	var decoded APIResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, decoded
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, false)
	resp, body := env.do(t, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK || !body.Success {
		t.Errorf("status %d, success %v", resp.StatusCode, body.Success)
	}
}

func TestStatusIncludesTVState(t *testing.T) {
	env := newTestEnv(t, false)
	env.sync.report = &models.SyncReport{Selector: "all"}

	resp, body := env.do(t, http.MethodGet, "/api/v1/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	data := body.Data.(map[string]any)
	if data["tv_state"] != "connected" {
		t.Errorf("tv_state = %v", data["tv_state"])
	}
	if data["last_sync"] == nil {
		t.Error("last_sync missing")
	}
}

func TestArtModeRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)

	resp, _ := env.do(t, http.MethodPut, "/api/v1/art/mode", map[string]any{"on": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status %d", resp.StatusCode)
	}
	if !env.tv.artModeOn {
		t.Error("art mode not switched on")
	}

	resp, body := env.do(t, http.MethodGet, "/api/v1/art/mode", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status %d", resp.StatusCode)
	}
	if on := body.Data.(map[string]any)["on"]; on != true {
		t.Errorf("on = %v", on)
	}
}

func TestSetArtModeValidatesBody(t *testing.T) {
	env := newTestEnv(t, false)
	resp, body := env.do(t, http.MethodPut, "/api/v1/art/mode", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
	if body.Error == nil || body.Error.Code != ErrCodeBadRequest {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestListArtMapsScopes(t *testing.T) {
	env := newTestEnv(t, false)
	env.tv.items = []models.ArtworkItem{{ContentID: "SAM-S0001"}}

	cases := map[string]string{
		"":          "",
		"all":       "",
		"favorites": models.CategoryFavorites,
		"personal":  models.CategoryPersonal,
		"MY-C0008":  "MY-C0008",
	}
	for scope, wantCategory := range cases {
		path := "/api/v1/art/list"
		if scope != "" {
			path += "?category=" + scope
		}
		resp, _ := env.do(t, http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("scope %q: status %d", scope, resp.StatusCode)
		}
		if env.tv.lastCategory != wantCategory {
			t.Errorf("scope %q mapped to category %q, want %q", scope, env.tv.lastCategory, wantCategory)
		}
	}
}

func TestSelectArt(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.do(t, http.MethodPost, "/api/v1/art/select", map[string]any{"content_id": "SAM-S0001"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if len(env.tv.selected) != 1 || env.tv.selected[0] != "SAM-S0001" {
		t.Errorf("selected = %v", env.tv.selected)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/v1/art/select", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing content_id: status %d", resp.StatusCode)
	}
}

func TestTVUnavailableMapsTo503(t *testing.T) {
	env := newTestEnv(t, false)
	env.tv.artModeErr = artmode.ErrNotConnected

	resp, body := env.do(t, http.MethodGet, "/api/v1/art/mode", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status %d", resp.StatusCode)
	}
	if body.Error == nil || body.Error.Code != ErrCodeTVUnavailable {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestProtocolErrorMapsTo502(t *testing.T) {
	env := newTestEnv(t, false)
	env.tv.artModeErr = &artmode.ProtocolError{Op: "get_art_mode_status", Code: "-1"}

	resp, _ := env.do(t, http.MethodGet, "/api/v1/art/mode", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestThumbnailServed(t *testing.T) {
	env := newTestEnv(t, false)
	env.thumbs.data["SAM-S0001"] = []byte("jpeg bytes")

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/art/thumbnail/SAM-S0001", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type %q", ct)
	}
}

func TestThumbnailDrmMapsTo403(t *testing.T) {
	env := newTestEnv(t, false)
	env.thumbs.err = artmode.ErrDrmProtected

	resp, body := env.do(t, http.MethodGet, "/api/v1/art/thumbnail/SAM-S0042", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status %d", resp.StatusCode)
	}
	if body.Error == nil || body.Error.Code != ErrCodeDrmProtected {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestUploadArt(t *testing.T) {
	env := newTestEnv(t, false)

	req, _ := http.NewRequest(http.MethodPost,
		env.server.URL+"/api/v1/art/upload?matte=shadowbox_black",
		bytes.NewReader([]byte("image data")))
	req.Header.Set("Content-Type", "image/png")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if env.uploader.lastOpts.FileType != "PNG" {
		t.Errorf("file type %q", env.uploader.lastOpts.FileType)
	}
	if env.uploader.lastOpts.Matte != "shadowbox_black" {
		t.Errorf("matte %q", env.uploader.lastOpts.Matte)
	}
}

func TestUploadRejectsUnknownContentType(t *testing.T) {
	env := newTestEnv(t, false)

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/art/upload",
		bytes.NewReader([]byte("gif")))
	req.Header.Set("Content-Type", "image/gif")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestDeleteArt(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.do(t, http.MethodDelete, "/api/v1/art/MY_F0001", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if len(env.tv.deleted) != 1 || env.tv.deleted[0] != "MY_F0001" {
		t.Errorf("deleted = %v", env.tv.deleted)
	}
}

func TestTriggerSync(t *testing.T) {
	env := newTestEnv(t, false)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/sync",
		map[string]any{"selector": "favorites", "force": true, "cleanup": true})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if env.sync.lastSel.Kind != thumbsync.SelectFavorites {
		t.Errorf("selector = %v", env.sync.lastSel)
	}
	if !env.sync.lastOpts.ForceDownload || !env.sync.lastOpts.CleanupOrphans {
		t.Errorf("options = %+v", env.sync.lastOpts)
	}
}

func TestTriggerSyncBusyMapsTo409(t *testing.T) {
	env := newTestEnv(t, false)
	env.sync.triggerErr = thumbsync.ErrSyncInProgress

	resp, body := env.do(t, http.MethodPost, "/api/v1/sync", map[string]any{})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status %d", resp.StatusCode)
	}
	if body.Error == nil || body.Error.Code != ErrCodeConflict {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestTriggerSyncRejectsBadSelector(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.do(t, http.MethodPost, "/api/v1/sync", map[string]any{"selector": "everything"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestLastSyncBeforeAnyRun(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.do(t, http.MethodGet, "/api/v1/sync/last", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestPowerWithoutSmartThings(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.do(t, http.MethodGet, "/api/v1/tv/power", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestSetPower(t *testing.T) {
	env := newTestEnv(t, true)
	resp, _ := env.do(t, http.MethodPut, "/api/v1/tv/power", map[string]any{"on": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if env.power.on == nil || *env.power.on {
		t.Error("power off not forwarded")
	}
}
