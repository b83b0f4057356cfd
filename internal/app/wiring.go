package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/config"
	httpserver "user-service/internal/http"
	"user-service/internal/identity/cognito"
	"user-service/internal/infra/awssession"
	"user-service/internal/rbac"
	"user-service/internal/rbac/presets"
	"user-service/internal/storage/s3"
)

// InitializeService wires up all dependencies and returns a configured Service.
// The JWKS cache refreshes in the background until the service shuts down.
func InitializeService(cfg *config.Config, log *zap.Logger) (*Service, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine, err := rbac.New(presets.UserPool(),
		rbac.WithMetrics(rbac.NewMetrics(registry)),
		rbac.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build rbac engine: %w", err)
	}

	sess, err := awssession.New(&cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	users := cognito.NewClient(sess, cfg.Cognito.UserPoolID)
	pictures := s3.NewClient(sess, cfg.S3.Bucket, cfg.S3.PresignedURLExpiry)

	jwksCtx, stopJWKS := context.WithCancel(context.Background())
	keys, err := auth.NewJWKSSource(jwksCtx, cfg.Cognito.JWKSURL(), cfg.Cognito.JWKSRefreshInterval, nil)
	if err != nil {
		stopJWKS()
		return nil, fmt.Errorf("failed to set up JWKS cache: %w", err)
	}
	verifier := auth.NewCognitoVerifier(keys, cfg.Cognito.Authority, cfg.Cognito.ClientID)

	auditLogger := audit.NewLogger(log)

	server, err := httpserver.NewServer(&httpserver.ServerDependencies{
		Config:         cfg,
		Logger:         log,
		Registry:       registry,
		Engine:         engine,
		AuthMiddleware: auth.NewMiddleware(verifier, log),
		RBACMiddleware: auth.NewRBACMiddleware(engine, auditLogger),
		Users:          users,
		Pictures:       pictures,
		AuditLogger:    auditLogger,
	})
	if err != nil {
		stopJWKS()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	log.Info("service initialized",
		zap.String("region", cfg.AWS.Region),
		zap.String("user_pool_id", cfg.Cognito.UserPoolID),
		zap.String("bucket", cfg.S3.Bucket),
		zap.Strings("routes", routeNames(engine.Routes())),
	)

	return &Service{
		config:   cfg,
		logger:   log,
		server:   server,
		stopJWKS: stopJWKS,
	}, nil
}

func routeNames(ids []rbac.RouteID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
