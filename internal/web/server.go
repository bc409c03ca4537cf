package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbonduro/stampcam/internal/metrics"
	"github.com/vbonduro/stampcam/internal/service"
)

const (
	thumbCacheTTL     = 10 * time.Minute
	thumbCacheCleanup = 20 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

type Server struct {
	service *service.SurveyService
	metrics *metrics.Metrics
	thumbs  *cache.Cache
	mux     *http.ServeMux
	now     func() time.Time
	logger  *slog.Logger
}

func NewServer(svc *service.SurveyService, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		service: svc,
		metrics: m,
		thumbs:  cache.New(thumbCacheTTL, thumbCacheCleanup),
		mux:     http.NewServeMux(),
		now:     time.Now,
		logger:  logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/meta", s.handleGetMeta)
	s.mux.HandleFunc("PUT /api/meta", s.handleUpdateMeta)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("POST /api/rooms", s.handleRegisterRoom)
	s.mux.HandleFunc("DELETE /api/rooms/{name}", s.handleDeleteRoom)
	s.mux.HandleFunc("POST /api/rooms/{name}/select", s.handleSelectRoom)
	s.mux.HandleFunc("GET /api/rooms/{name}/devices", s.handleListDevices)
	s.mux.HandleFunc("POST /api/rooms/{name}/devices", s.handleAddDevice)
	s.mux.HandleFunc("POST /api/devices/{key}/select", s.handleSelectDevice)
	s.mux.HandleFunc("PUT /api/devices/{key}/type", s.handleSetDeviceType)
	s.mux.HandleFunc("GET /api/devices/{key}/shots", s.handleListShots)
	s.mux.HandleFunc("POST /api/shots", s.handleShoot)
	s.mux.HandleFunc("DELETE /api/shots/{id}", s.handleDeleteShot)
	s.mux.HandleFunc("GET /api/shots/{id}/thumb", s.handleGetThumb)
	s.mux.HandleFunc("GET /api/shots/{id}/full", s.handleGetFull)
	s.mux.HandleFunc("GET /api/export", s.handleExport)
	s.mux.HandleFunc("POST /api/wipe", s.handleWipe)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// securityHeaders sets the security response headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func requestLogger(logger *slog.Logger, requests *prometheus.CounterVec, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics.HTTPRequestsTotal, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
