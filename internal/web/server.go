package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/njoerd114/kvault/internal/router"
)

const shutdownTimeout = 10 * time.Second

// NewHandler builds the router with middleware and every view registered.
func NewHandler(st Store, settings Settings, corsOrigins []string, logger *slog.Logger) http.Handler {
	rt := router.New(
		Recovery(logger),
		Logger(logger),
		CORS(corsOrigins),
	)
	NewViews(st, settings, logger).Register(rt)
	return rt
}

// Server is the HTTP server for the views.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, h http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Views may wait on the backend's own 30s request timeout.
			WriteTimeout: 45 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.Run] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web server listening", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("web server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}
