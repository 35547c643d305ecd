package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go_imagegen/logging"
	"go_imagegen/webui/static"

	"go.uber.org/zap"
)

// Server is the HTTP server for the generation service. It wires together:
//   - the JSON API (generate, batch-generate, health, status)
//   - request logging middleware
//   - the WebSocket event stream
//   - the embedded browser UI
//
// Create with NewServer, run with Start, stop with Shutdown.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	logger     *logging.Logger

	service   GenerationService
	status    StatusReporter
	readiness func() bool

	loggingMw     *LoggingMiddleware
	wsBroadcaster *WebSocketBroadcaster

	maxRequestBytes int64
	modelName       string
}

// ServerConfig configures the Server.
type ServerConfig struct {
	// Host to bind to (default: "0.0.0.0")
	Host string

	// Port to listen on (default: 8080)
	Port int

	// ReadTimeout for HTTP requests (default: 30s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses. Generation can run for minutes, so
	// this must exceed the generation timeout (default: 10m).
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// MaxRequestBytes caps JSON request bodies (default: 16 MiB)
	MaxRequestBytes int64

	// ModelName is reported by the health endpoint
	ModelName string

	// LogSkipPaths are paths excluded from request logging
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    10 * time.Minute,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxRequestBytes: 16 << 20,
		LogSkipPaths:    []string{"/health", "/api/status", "/ws"},
	}
}

// NewServer creates a Server over the given generation service.
// The status reporter and readiness probe are optional.
func NewServer(
	config ServerConfig,
	service GenerationService,
	status StatusReporter,
	readiness func() bool,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.NewTestLogger()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:             mux,
		config:          config,
		logger:          logger,
		service:         service,
		status:          status,
		readiness:       readiness,
		loggingMw:       NewLoggingMiddleware(logger, config.LogSkipPaths...),
		wsBroadcaster:   NewWebSocketBroadcaster(logger),
		maxRequestBytes: config.MaxRequestBytes,
		modelName:       config.ModelName,
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.loggingMw.Handler(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("http server created", zap.String("addr", addr))
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/generate", s.handleGenerate)
	s.mux.HandleFunc("/batch-generate", s.handleBatchGenerate)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.wsBroadcaster.HandleConnection)
	s.mux.HandleFunc("/", s.handleRoot)
}

// handleRoot serves the embedded UI at the root path.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, err := static.ReadFile("index.html")
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Broadcaster returns the WebSocket broadcaster, for attaching it to the
// pipeline as an observer.
func (s *Server) Broadcaster() *WebSocketBroadcaster {
	return s.wsBroadcaster
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the WebSocket broadcaster and the HTTP server. It blocks until
// the server is shut down; http.ErrServerClosed is not reported as an error.
func (s *Server) Start(ctx context.Context) error {
	go s.wsBroadcaster.Start(ctx)

	s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
