package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Shin107/Anisotropic-SNANA/internal/auth"
	"github.com/Shin107/Anisotropic-SNANA/internal/batch"
	"github.com/Shin107/Anisotropic-SNANA/internal/health"
	"github.com/Shin107/Anisotropic-SNANA/internal/httputil"
	"github.com/Shin107/Anisotropic-SNANA/internal/metrics"
	"github.com/Shin107/Anisotropic-SNANA/internal/modelstore"
	"github.com/Shin107/Anisotropic-SNANA/internal/stream"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Store              *modelstore.Store
	Pool               *batch.WorkerPool
	Auth               auth.Config
	MaxBatch           int
	MaxConcurrentPerIP int
	TrustProxy         bool
	Stream             stream.Config
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, deps Deps) *Server {
	h := &handlers{
		store:      deps.Store,
		pool:       deps.Pool,
		maxBatch:   deps.MaxBatch,
		limiter:    newIPLimiter(deps.MaxConcurrentPerIP),
		trustProxy: deps.TrustProxy,
		logger:     logger,
	}

	events := stream.NewHandler(deps.Store, deps.Stream, logger)

	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Store.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/hubble", h.hubble)
	mux.HandleFunc("GET /api/v1/distance", h.distance)
	mux.HandleFunc("GET /api/v1/invert", h.invert)
	mux.HandleFunc("GET /api/v1/translate", h.translate)
	mux.HandleFunc("GET /api/v1/volume", h.volume)
	mux.HandleFunc("GET /api/v1/sfr", h.sfr)
	mux.HandleFunc("GET /api/v1/model", h.model)
	mux.HandleFunc("POST /api/v1/batch/distance", h.limited(h.batchDistance))
	mux.HandleFunc("POST /api/v1/batch/invert", h.limited(h.batchInvert))
	mux.HandleFunc("POST /api/v1/batch/translate", h.limited(h.batchTranslate))
	mux.HandleFunc("GET /api/v1/stream/model", h.limited(events.HandleModel))

	// Build middleware chain: metrics -> request id -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(deps.Auth)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = httputil.WithRequestID(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"request_id", httputil.RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
