package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/routetable/pkg/assets"
	"github.com/vango-dev/routetable/pkg/middleware"
	"github.com/vango-dev/routetable/pkg/navigation"
	"github.com/vango-dev/routetable/pkg/router"
)

// Server serves a route table over HTTP and WebSocket.
type Server struct {
	table  *router.Table
	config *ServerConfig
	logger *slog.Logger

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	navMW    []navigation.Middleware
	chunks   assets.Resolver

	upgrader websocket.Upgrader
	shell    *shell
	handler  http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	sessions   map[*session]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records navigations and sessions into m and serves gatherer
// on /metrics when the config enables it. A nil gatherer means
// prometheus.DefaultGatherer.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithNavigationMiddleware installs middleware on every session's navigator.
func WithNavigationMiddleware(mw ...navigation.Middleware) Option {
	return func(s *Server) {
		s.navMW = append(s.navMW, mw...)
	}
}

// WithChunks adds the chunk URL of each component to resolve and mount
// replies.
func WithChunks(r assets.Resolver) Option {
	return func(s *Server) {
		s.chunks = r
	}
}

// New creates a server for table.
func New(table *router.Table, config *ServerConfig, opts ...Option) (*Server, error) {
	config = config.withDefaults()
	if err := config.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	s := &Server{
		table:    table,
		config:   config,
		logger:   slog.Default(),
		sessions: make(map[*session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	if s.config.Metrics && s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	sh, err := newShell(config.StaticDir)
	if err != nil {
		return nil, err
	}
	s.shell = sh
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)
		r.Get("/resolve", s.handleResolve)
	})
	r.Get("/ws", s.HandleWebSocket)
	if s.config.Metrics {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/*", s.handleShell)
	r.Head("/*", s.handleShell)
	return r
}

// Handler returns the HTTP handler, for mounting in another router or
// for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every live navigation session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	srv := s.httpServer
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close(websocket.CloseGoingAway, "server shutting down")
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// SessionCount returns the number of open live navigation sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Config returns the effective configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	_, ok := s.sessions[sess]
	delete(s.sessions, sess)
	s.mu.Unlock()
	if ok && s.metrics != nil {
		s.metrics.SessionClosed()
	}
}

func (s *Server) chunkURL(name string) string {
	if s.chunks == nil || name == "" {
		return ""
	}
	return s.chunks.Chunk(name)
}

func (s *Server) wsError(kind string) {
	if s.metrics != nil {
		s.metrics.WebSocketError(kind)
	}
}
