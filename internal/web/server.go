package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/markpostal/kiln-watch/internal/logger"
	"github.com/markpostal/kiln-watch/internal/record"
	"github.com/markpostal/kiln-watch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var staticFiles embed.FS

// Snapshotter is the read side of the observation store.
type Snapshotter interface {
	SnapshotAll() []record.Series
	Running() bool
}

type server struct {
	records  Snapshotter
	gatherer prometheus.Gatherer
	recorder telemetry.HTTPRecorder
	log      logger.Logger
	now      func() time.Time
}

type Option func(*server)

// WithGatherer exposes gatherer on /metrics. Without it the route is absent.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *server) {
		s.gatherer = g
	}
}

func WithRecorder(rec telemetry.HTTPRecorder) Option {
	return func(s *server) {
		s.recorder = rec
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *server) {
		s.log = log
	}
}

// NewRouter builds the HTTP routes serving records.
func NewRouter(records Snapshotter, opts ...Option) http.Handler {
	s := &server{
		records:  records,
		recorder: telemetry.Nop(),
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Path("/metrics").Handler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/").Handler(http.FileServer(http.FS(static))).Methods(http.MethodGet)

	return r
}

// NewServer wraps handler in an http.Server listening on all interfaces.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           fmt.Sprintf(":%d", port),
		Handler:        handler,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

func (s *server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.records.SnapshotAll())
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status, code := "healthy", http.StatusOK
	if !s.records.Running() {
		status, code = "stopped", http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, map[string]string{
		"status":    status,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn().Err(err).Msg("Failed to write response")
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// instrument records method, route template, status and latency.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		s.recorder.ObserveRequest(r.Method, route, sw.status, elapsed)
		s.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", sw.status).
			Dur("elapsed", elapsed).
			Msg("HTTP request")
	})
}
