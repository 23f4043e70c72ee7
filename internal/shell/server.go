package shell

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navshell/internal/config"
	"github.com/vango-dev/navshell/pkg/history"
	"github.com/vango-dev/navshell/pkg/middleware"
	"github.com/vango-dev/navshell/pkg/nav"
	"github.com/vango-dev/navshell/pkg/router"
)

// Server serves the single-page shell and hosts one navigation resolver per
// connected browser.
type Server struct {
	cfg    *config.Config
	table  *router.Table
	base   string
	logger *slog.Logger

	registry    *prometheus.Registry
	metrics     *nav.Metrics
	connections prometheus.Gauge

	frameMiddleware []middleware.Middleware

	upgrader websocket.Upgrader
	handler  http.Handler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New validates cfg, compiles its route table and builds the HTTP handler.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := cfg.Table()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		table:    table,
		base:     history.NormalizeBase(cfg.Base),
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "shell")

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = nav.NewMetrics(
		nav.WithRegistry(s.registry),
		nav.WithNamespace(cfg.Metrics.Namespace),
	)
	s.connections = promauto.With(s.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Metrics.Namespace,
		Subsystem: "shell",
		Name:      "connections",
		Help:      "Number of connected navigation sockets",
	})
	frameMetrics, _ := middleware.Prometheus(
		middleware.WithRegistry(s.registry),
		middleware.WithNamespace(cfg.Metrics.Namespace),
	)
	s.frameMiddleware = []middleware.Middleware{
		middleware.OpenTelemetry(),
		frameMetrics,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.Server.AllowedOrigins),
	}
	s.handler = s.routes()
	return s, nil
}

// routes builds the chi router. Application endpoints live under the base
// path; metrics are always served from the root.
func (s *Server) routes() http.Handler {
	app := chi.NewRouter()
	app.Get(s.cfg.Server.SocketPath, s.handleSocket)
	app.Get("/_routes", s.handleRoutes)
	app.Get("/_resolve", s.handleResolve)
	app.Get("/_shell.js", s.handleClientJS)
	app.Get("/*", s.handleShell)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	if s.base == "" {
		r.Mount("/", app)
	} else {
		r.Mount(s.base, app)
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the Prometheus registry holding the server's collectors.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Table returns the compiled route table.
func (s *Server) Table() *router.Table {
	return s.table
}

// Run listens on the configured address and serves until ctx ends, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String(), "base", s.cfg.Base, "routes", s.table.Len())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every navigation socket and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// requestLogger logs one line per request. Socket upgrades are logged when
// the connection ends.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// originChecker allows same-origin sockets, plus the listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return set[strings.ToLower(origin)]
	}
}
