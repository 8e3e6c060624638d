// Package healthapp is the container workload the topology deploys: a small
// HTTP server exposing the target group health check.
package healthapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	appName = "healthapp"

	// HealthPath is the path probed by the target group.
	HealthPath = "/health"

	// Greeting is the body served on /.
	Greeting = "Hello World from Express + TypeScript!"
)

// DefaultPort matches the CONTAINER_PORT default of the topology.
const DefaultPort = 3000

// Options configures the server.
type Options struct {
	Addr   string
	Logger *slog.Logger
}

// Server serves the health, root and metrics routes.
type Server struct {
	addr     string
	log      *slog.Logger
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	up       prometheus.Gauge
	handler  http.Handler
}

// New builds a server with its own metrics registry.
func New(opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":" + strconv.Itoa(DefaultPort)
	}

	s := &Server{
		addr:     addr,
		log:      logger,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wetwire_fargate",
				Subsystem: appName,
				Name:      "http_requests_total",
				Help:      "The total number of HTTP requests served, by route and status code.",
			},
			[]string{"route", "code"},
		),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wetwire_fargate",
			Subsystem: appName,
			Name:      "up",
			Help:      "Indicates whether the application is running.",
		}),
	}
	for _, c := range []prometheus.Collector{s.requests, s.up} {
		if err := s.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	mx := mux.NewRouter()
	s.ConfigureRoutes(mx)
	s.handler = mx
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ConfigureRoutes registers the routes on mx.
func (s *Server) ConfigureRoutes(mx *mux.Router) {
	mx.Use(s.countRequests)
	mx.HandleFunc(HealthPath, s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	mx.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	mx.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(map[string]string{"status": "ok"})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		s.log.Error("failed to write health response", "error", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, Greeting)
}

// countRequests records one sample per request, labelled by route template.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Run serves on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %q: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("failed to shut down server", "error", err)
		}
	}()

	s.up.Set(1)
	defer s.up.Set(0)

	s.log.Info("server is running", "addr", listener.Addr().String())
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}
