package web_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/stampcam/internal/config"
	"github.com/vbonduro/stampcam/internal/db"
	"github.com/vbonduro/stampcam/internal/export"
	"github.com/vbonduro/stampcam/internal/logging"
	"github.com/vbonduro/stampcam/internal/metrics"
	"github.com/vbonduro/stampcam/internal/photostore/local"
	"github.com/vbonduro/stampcam/internal/quota"
	"github.com/vbonduro/stampcam/internal/service"
	"github.com/vbonduro/stampcam/internal/store"
	"github.com/vbonduro/stampcam/internal/web"
)

// framePNG is a small checkerboard encoded as PNG.
var framePNG = func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{30, 30, 30, 255}
			if (x/4+y/4)%2 == 0 {
				c = color.RGBA{220, 220, 220, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}()

// newTestServer sets up a real web.Server backed by in-memory SQLite and a
// photo directory under t.TempDir.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	photoDir := t.TempDir()
	photos, err := local.NewLocalPhotoStore(photoDir)
	require.NoError(t, err)

	logger := logging.Discard()
	m := metrics.New()
	devices := store.NewDeviceStore(database)
	shots := store.NewShotStore(database)
	svc, err := service.NewSurveyService(context.Background(), service.Deps{
		Rooms:    store.NewRoomStore(database),
		Devices:  devices,
		Shots:    shots,
		Meta:     store.NewMetaStore(database),
		Photos:   photos,
		Exporter: export.New(devices, shots, photos, export.Options{CompressionLevel: 6, Location: time.UTC}, logger),
		Quota:    quota.NewReporter(photoDir),
		Metrics:  m,
		Capture:  config.Default().Capture,
		Logger:   logger,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(web.NewServer(svc, m, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

func doJSON(t *testing.T, method, target string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// buildShotForm creates a multipart/form-data body with "image", "kind" and
// optional "label" fields.
func buildShotForm(t *testing.T, imageData []byte, kind, label string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("kind", kind))
	if label != "" {
		require.NoError(t, w.WriteField("label", label))
	}
	fw, err := w.CreateFormFile("image", "frame.png")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func shoot(t *testing.T, srv *httptest.Server, kind, label string) *http.Response {
	t.Helper()
	body, contentType := buildShotForm(t, framePNG, kind, label)
	resp, err := http.Post(srv.URL+"/api/shots", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type shotResp struct {
	Shot struct {
		ID       int64  `json:"id"`
		Kind     string `json:"kind"`
		ThumbURL string `json:"thumb_url"`
	} `json:"shot"`
	Checked bool `json:"checked"`
}

func TestIntegration_SurveyFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/meta", map[string]any{"project_name": "Acme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]any{"name": "Server Room"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/"+url.PathEscape("Server Room")+"/devices", map[string]any{"index": 7})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	dev := decode[map[string]any](t, resp)
	assert.Equal(t, "Server Room::007", dev["key"])

	var last shotResp
	for _, kind := range []string{"overview", "lamp", "port", "label"} {
		resp := shoot(t, srv, kind, "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		last = decode[shotResp](t, resp)
		assert.Equal(t, kind, last.Shot.Kind)
	}
	assert.True(t, last.Checked)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/meta", nil)
	meta := decode[map[string]any](t, resp)
	assert.Equal(t, "Acme", meta["project_name"])
	assert.EqualValues(t, last.Shot.ID, meta["last_shot_id"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/rooms/"+url.PathEscape("Server Room")+"/devices", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	devices := decode[[]map[string]any](t, resp)
	require.Len(t, devices, 1)
	assert.Equal(t, true, devices[0]["checked"])
	assert.EqualValues(t, 4, devices[0]["shots"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Acme_")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var photos int
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "photos/") {
			photos++
		}
	}
	assert.Equal(t, 4, photos)
}

func TestIntegration_ShootWithoutDeviceConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := shoot(t, srv, "overview", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestIntegration_ExportWithoutRoomsConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/export", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestIntegration_RejectsBadInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]any{"name": "A::B"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/Lab/devices", map[string]any{"index": 250})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/Lab/devices", map[string]any{"index": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, contentType := buildShotForm(t, []byte("%PDF-1.4 not a frame"), "overview", "")
	resp, err := http.Post(srv.URL+"/api/shots", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = shoot(t, srv, "free", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var wide bytes.Buffer
	require.NoError(t, png.Encode(&wide, image.NewGray(image.Rect(0, 0, 9000, 1))))
	body, contentType = buildShotForm(t, wide.Bytes(), "overview", "")
	resp, err = http.Post(srv.URL+"/api/shots", contentType, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/shots/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/shots/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_ThumbnailCacheInvalidatedOnDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rooms/Lab/devices", map[string]any{"index": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = shoot(t, srv, "free", "rear panel")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	shot := decode[shotResp](t, resp)
	assert.Equal(t, "free_rear panel", shot.Shot.Kind)

	for range 2 {
		resp = doJSON(t, http.MethodGet, srv.URL+shot.Shot.ThumbURL, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/shots/"+strconv.FormatInt(shot.Shot.ID, 10), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+shot.Shot.ThumbURL, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `stampcam_thumb_cache_lookups_total{result="hit"} 1`)
}

func TestIntegration_DeleteRoomAndWipe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/rooms/Lab/devices", map[string]any{"index": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = shoot(t, srv, "overview", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[map[string]any](t, resp)
	assert.EqualValues(t, 1, status["devices"])
	assert.EqualValues(t, 1, status["shots"])

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/rooms/Lab", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/rooms/Lab", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/wipe", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/wipe", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestIntegration_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/meta", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
