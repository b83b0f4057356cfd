package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"user-service/internal/config"
	httpserver "user-service/internal/http"
)

const serverAddrPrefix = ":"

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// Service is the user management application.
type Service struct {
	config   *config.Config
	logger   *zap.Logger
	server   *httpserver.Server
	stopJWKS context.CancelFunc
}

func NewService(cfg *config.Config, log *zap.Logger) (*Service, error) {
	return InitializeService(cfg, log)
}

// Run serves HTTP until ctx is done or a shutdown signal arrives, then
// drains in-flight requests within the configured shutdown timeout.
func (s *Service) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, shutdownSignals...)
	defer stop()

	go s.server.RunLimiterEviction(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("port", s.config.Server.Port))
		if err := s.server.Start(serverAddrPrefix + s.config.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.stopJWKS()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.Shutdown(shutdownCtx)
}

func (s *Service) Shutdown(ctx context.Context) error {
	defer s.stopJWKS()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server exited gracefully")
	return nil
}
