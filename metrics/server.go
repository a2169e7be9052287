// Package metrics define telemetry primitives to use across components. it uses the prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves collected metrics on /metrics.
type Server struct {
	logger   *zap.Logger
	listener string
	srv      *http.Server
}

// NewServer creates a metrics server that gathers from the default registry.
func NewServer(listener string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	return &Server{
		logger:   logger,
		listener: listener,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run listens on the configured address and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listener)
	if err != nil {
		return fmt.Errorf("listen metrics on %s: %w", s.listener, err)
	}
	s.logger.Info("metrics server started", zap.Stringer("address", lis.Addr()))
	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.Serve(lis)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
