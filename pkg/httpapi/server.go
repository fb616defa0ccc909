package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/deviceflow/resbroker/internal/logger"
)

// Server is the read-only HTTP status surface over a Host: liveness,
// readiness, a resource snapshot, and Prometheus metrics. It carries no
// write paths — sessions and operations are a library-level concern, not
// an HTTP one.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a status server bound to host. The server is created
// stopped; call Start to begin serving.
func NewServer(config Config, host ResourceSnapshotter) *Server {
	config.applyDefaults()

	router := NewRouter(host)

	return &Server{
		config: config,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Start serves until ctx is cancelled, then gracefully shuts down.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("status server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("status server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("status server shutdown error: %w", err)
			logger.Error("status server shutdown error", "error", err)
			return
		}
		logger.Info("status server stopped gracefully")
	})
	return shutdownErr
}

// Port returns the TCP port the server is bound to.
func (s *Server) Port() int { return s.config.Port }
