// Package server exposes the converter over HTTP.
//
// POST /convert takes a drawing either as the raw request body with a
// format query parameter, or as a multipart upload in the field "file"
// whose extension selects the format. The thickness comes from the
// thickness parameter and falls back to the configured default. A
// successful response carries the binary STL; failures are JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/philipparndt/vecstl/internal/config"
	"github.com/philipparndt/vecstl/internal/metrics"
	"github.com/philipparndt/vecstl/pkg/convert"
	"github.com/philipparndt/vecstl/pkg/pathio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// ContentTypeSTL is the media type of a converted model
	ContentTypeSTL = "model/stl"

	uploadField = "file"

	// conditionTooLarge is reported for bodies over the upload limit
	conditionTooLarge = "upload_too_large"
	// conditionBadRequest is reported for requests that carry no drawing
	conditionBadRequest = "bad_request"
)

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Condition string `json:"condition"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Server serves conversions over HTTP
type Server struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// New creates a server. Metrics are registered on a fresh registry that is
// exposed on /metrics.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:      cfg,
		registry: reg,
		metrics:  metrics.NewCollector("vecstl", reg),
		logger:   logger.With(zap.String("component", "http_server")),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	timeoutBody, _ := json.Marshal(ErrorResponse{
		Condition: "timeout",
		Message:   "the conversion took too long; simplify the drawing and try again",
	})
	mux.Handle("POST /convert", http.TimeoutHandler(http.HandlerFunc(s.handleConvert), s.cfg.Server.RequestTimeout, string(timeoutBody)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// upload is a drawing read from a request
type upload struct {
	data     []byte
	tag      string
	filename string
	form     func(string) string
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	log := s.logger.With(zap.String("request_id", requestID))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	up, err := readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.RecordRejectedUpload(conditionTooLarge)
			s.writeError(w, requestID, http.StatusRequestEntityTooLarge, conditionTooLarge,
				fmt.Sprintf("uploads are limited to %d bytes", s.cfg.Server.MaxUploadBytes), "")
			return
		}
		s.metrics.RecordRejectedUpload(conditionBadRequest)
		s.writeError(w, requestID, http.StatusBadRequest, conditionBadRequest, "no drawing in request", err.Error())
		return
	}

	format, err := resolveFormat(up)
	if err != nil {
		s.fail(w, log, requestID, "unknown", start, err)
		return
	}

	thickness := s.cfg.Conversion.Thickness
	if raw := up.form("thickness"); raw != "" {
		thickness, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			s.fail(w, log, requestID, format.String(), start, fmt.Errorf("%w: %q", convert.ErrInvalidThickness, raw))
			return
		}
	}
	if err := s.cfg.Conversion.CheckThickness(thickness); err != nil {
		s.fail(w, log, requestID, format.String(), start, err)
		return
	}

	// A converter per request keeps the request id on every log line
	conv := convert.New(s.cfg.Conversion.Options(), log)
	res, err := conv.Convert(up.data, format, thickness)
	if err != nil {
		s.fail(w, log, requestID, format.String(), start, err)
		return
	}
	s.metrics.RecordConversion(format.String(), time.Since(start), res, nil)

	h := w.Header()
	h.Set("Content-Type", ContentTypeSTL)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": convert.OutputName(up.filename),
	}))
	h.Set("Content-Length", strconv.Itoa(len(res.STL)))
	h.Set("X-Vertex-Count", strconv.Itoa(res.VertexCount))
	h.Set("X-Face-Count", strconv.Itoa(res.FaceCount))
	h.Set("X-Warnings", strconv.Itoa(len(res.Warnings)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.STL); err != nil {
		log.Warn("failed to write response", zap.Error(err))
	}
}

// readUpload reads the drawing from a multipart form or the raw body
func readUpload(r *http.Request) (*upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, errors.New("empty request body")
		}
		q := r.URL.Query()
		return &upload{data: data, tag: q.Get("format"), filename: q.Get("name"), form: q.Get}, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, err
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, fmt.Errorf("multipart field %q: %w", uploadField, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &upload{data: data, tag: r.FormValue("format"), filename: header.Filename, form: r.FormValue}, nil
}

// resolveFormat prefers an explicit tag and falls back to the file name
func resolveFormat(up *upload) (pathio.Format, error) {
	if up.tag != "" || up.filename == "" {
		return pathio.ParseFormat(up.tag)
	}
	return pathio.FormatFromFilename(up.filename)
}

func (s *Server) fail(w http.ResponseWriter, log *zap.Logger, requestID, format string, start time.Time, err error) {
	s.metrics.RecordConversion(format, time.Since(start), nil, err)

	cond := convert.Classify(err)
	status := statusFor(cond)
	if status >= http.StatusInternalServerError {
		log.Error("conversion failed", zap.Stringer("condition", cond), zap.Error(err))
	} else {
		log.Info("conversion rejected", zap.Stringer("condition", cond), zap.Error(err))
	}
	s.writeError(w, requestID, status, cond.String(), convert.Message(cond), err.Error())
}

func statusFor(c convert.Condition) int {
	switch c {
	case convert.UnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case convert.MalformedInput, convert.InvalidThickness:
		return http.StatusBadRequest
	case convert.NoClosedRegion, convert.SelfIntersectingRegion, convert.DegeneratePolygon, convert.EmptyMeshSet:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, status int, condition, message, detail string) {
	writeJSON(w, status, ErrorResponse{
		Condition: condition,
		Message:   message,
		Detail:    detail,
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
