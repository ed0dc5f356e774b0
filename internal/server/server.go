// Package server exposes the interview operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/api"
	"github.com/suhbatai/suhbat/internal/metrics"
)

const (
	DefaultPort            = 3000
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	Port            int
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// KeyConfigured is reported by the health check.
	KeyConfigured bool
}

// Server hosts the interview API.
type Server struct {
	interviewer     Interviewer
	keyConfigured   bool
	shutdownTimeout time.Duration
	logger          *zap.Logger
	handler         http.Handler
	httpServer      *http.Server
}

// New builds a Server. Nothing listens until Serve or ListenAndServe is called.
func New(interviewer Interviewer, opts Options, log *zap.Logger) (*Server, error) {
	if interviewer == nil {
		return nil, errors.New("interviewer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		interviewer:     interviewer,
		keyConfigured:   opts.KeyConfigured,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          log,
	}

	s.handler = Chain(s.routes(),
		Recover(log),
		RequestID(),
		Observe(log),
		CORS(opts.CORSOrigins),
	)

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(opts.Port)),
		Handler:           s.handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+api.PathHealth, s.handleHealth)
	mux.HandleFunc("GET "+api.PathProfessions, s.handleProfessions)
	mux.HandleFunc("POST "+api.PathStart, s.handleStart)
	mux.HandleFunc("POST "+api.PathNext, s.handleNext)
	mux.HandleFunc("POST "+api.PathEvaluate, s.handleEvaluate)
	mux.Handle("GET "+api.PathMetrics, metrics.Handler())
	return mux
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe listens on the configured port and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends, then shuts down gracefully
// within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.logger.Info("interview server listening", zap.String("addr", ln.Addr().String()))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down interview server", zap.Duration("timeout", s.shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}

	s.logger.Info("interview server stopped")
	return nil
}
