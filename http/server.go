package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"flightdelay/monitoring"
)

// Server wraps the stdlib server with the middleware chain and graceful
// shutdown.
type Server struct {
	server *http.Server
	config ServerConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port            int
	Timeout         time.Duration
	AllowedOrigins  []string
	MaxRequestBytes int64
}

// DefaultServerConfig returns sane listener defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		Timeout:         30 * time.Second,
		AllowedOrigins:  []string{"*"},
		MaxRequestBytes: 1 << 20,
	}
}

var metricsHub *monitoring.Hub

// SetMetricsHub enables the websocket metrics stream.
func SetMetricsHub(h *monitoring.Hub) {
	metricsHub = h
}

// NewServer builds the mux and middleware chain.
func NewServer(config ServerConfig) *Server {
	if config.Port == 0 {
		config = DefaultServerConfig()
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequestBytes == 0 {
		config.MaxRequestBytes = 1 << 20
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	mux := http.NewServeMux()
	RegisterHandlers(mux)
	mux.HandleFunc("GET /ws/metrics", handleMetricsWS)

	chain := Chain(
		RecoveryMiddleware,
		LoggerMiddleware,
		SecurityHeadersMiddleware,
		CORSMiddleware(config.AllowedOrigins),
		TimeoutMiddleware(config.Timeout),
		RequestSizeMiddleware(config.MaxRequestBytes),
	)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      chain(mux),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
	}
}

func handleMetricsWS(w http.ResponseWriter, r *http.Request) {
	if metricsHub == nil {
		respondError(w, http.StatusServiceUnavailable, "metrics stream not enabled")
		return
	}
	metricsHub.ServeWS(w, r)
}

// Start blocks until the listener stops.
func (s *Server) Start() error {
	logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop drains in-flight requests before shutting down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
