package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/philipparndt/vecstl/internal/config"
	"github.com/philipparndt/vecstl/pkg/stl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareSVG = `<svg xmlns="http://www.w3.org/2000/svg"><path d="M0 0 L10 0 L10 10 L0 10 Z"/></svg>`

func newTestServer(t *testing.T, mutate ...func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return New(cfg, nil).Handler()
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestConvertRawBody(t *testing.T) {
	rec := post(t, newTestServer(t), "/convert?format=svg&thickness=2", squareSVG)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ContentTypeSTL, rec.Header().Get("Content-Type"))
	assert.Equal(t, "8", rec.Header().Get("X-Vertex-Count"))
	assert.Equal(t, "12", rec.Header().Get("X-Face-Count"))
	assert.Equal(t, "0", rec.Header().Get("X-Warnings"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "attachment; filename=model_extruded.stl", rec.Header().Get("Content-Disposition"))

	model, err := stl.ParseBytes(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 12, model.TriangleCount())
	assert.InDelta(t, 2, model.BoundingBox().Size().Z, 1e-6)
}

func TestConvertMultipart(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "logo.svg")
	require.NoError(t, err)
	_, err = io.WriteString(fw, squareSVG)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("thickness", "3"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "attachment; filename=logo_extruded.stl", rec.Header().Get("Content-Disposition"))

	model, err := stl.ParseBytes(rec.Body.Bytes())
	require.NoError(t, err)
	assert.InDelta(t, 300, model.ToMesh().Volume(), 1e-3)
}

func TestConvertUsesDefaultThickness(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Conversion.Thickness = 4 })
	rec := post(t, h, "/convert?format=svg", squareSVG)
	require.Equal(t, http.StatusOK, rec.Code)

	model, err := stl.ParseBytes(rec.Body.Bytes())
	require.NoError(t, err)
	assert.InDelta(t, 4, model.BoundingBox().Size().Z, 1e-6)
}

func TestConvertFailures(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		body      string
		status    int
		condition string
	}{
		{"unsupported format", "/convert?format=pdf", squareSVG, http.StatusUnsupportedMediaType, "unsupported_format"},
		{"missing format", "/convert", squareSVG, http.StatusUnsupportedMediaType, "unsupported_format"},
		{"malformed", "/convert?format=svg", "<svg", http.StatusBadRequest, "malformed_input"},
		{"open path", "/convert?format=svg", `<svg><polyline points="0,0 10,0 10,10"/></svg>`, http.StatusUnprocessableEntity, "no_closed_region"},
		{"figure eight", "/convert?format=svg", `<svg><path d="M0 0 L10 10 L10 0 L0 10 Z"/></svg>`, http.StatusUnprocessableEntity, "self_intersecting_region"},
		{"thin", "/convert?format=svg&thickness=0.05", squareSVG, http.StatusBadRequest, "invalid_thickness"},
		{"not a number", "/convert?format=svg&thickness=thick", squareSVG, http.StatusBadRequest, "invalid_thickness"},
		{"empty body", "/convert?format=svg", "", http.StatusBadRequest, "bad_request"},
	}
	h := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decodeError(t, rec)
			assert.Equal(t, tt.condition, resp.Condition)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), resp.RequestID)
		})
	}
}

func TestConvertNoClosedRegionMessage(t *testing.T) {
	rec := post(t, newTestServer(t), "/convert?format=svg", `<svg><line x1="0" y1="0" x2="5" y2="5"/></svg>`)
	resp := decodeError(t, rec)
	assert.Contains(t, resp.Message, "no closed region found")
}

func TestConvertUploadTooLarge(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Server.MaxUploadBytes = 16 })
	rec := post(t, h, "/convert?format=svg", squareSVG)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "upload_too_large", decodeError(t, rec).Condition)
}

func TestConvertMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/convert", nil)
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	require.Equal(t, http.StatusOK, post(t, h, "/convert?format=svg", squareSVG).Code)
	require.Equal(t, http.StatusUnsupportedMediaType, post(t, h, "/convert?format=pdf", squareSVG).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `vecstl_conversions_total{format="svg",outcome="success"} 1`)
	assert.Contains(t, body, `vecstl_conversions_total{format="unknown",outcome="unsupported_format"} 1`)
	assert.Contains(t, body, "vecstl_mesh_faces_bucket")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(config.DefaultConfig(), nil).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
