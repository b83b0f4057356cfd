package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/http/handler"
	"user-service/internal/http/middleware"
	"user-service/internal/rbac"
	"user-service/internal/rbac/presets"
	"user-service/internal/types"
	"user-service/pkg/validator"
)

const (
	jsonKeyStatus    = "status"
	statusOK         = "ok"
	requestBodyLimit = "6M"
	apiPrefix        = "/api/v1"

	errRouteWithoutPolicyFmt = "route %s %s: %w"
)

type UserDirectory interface {
	handler.UserCreator
	handler.UserLister
}

type ServerDependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	Registry       *prometheus.Registry
	Engine         *rbac.Engine
	AuthMiddleware *auth.Middleware
	RBACMiddleware *auth.RBACMiddleware
	Users          UserDirectory
	Pictures       handler.PictureStore
	AuditLogger    types.AuditLogger
}

type Server struct {
	echo     *echo.Echo
	deps     *ServerDependencies
	limiters []*middleware.RateLimiter
}

type route struct {
	id      rbac.RouteID
	method  string
	path    string
	handle  echo.HandlerFunc
	extraMW []echo.MiddlewareFunc
}

func NewServer(deps *ServerDependencies) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = validator.New()

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	httpMetrics := middleware.NewHTTPMetrics(deps.Registry)

	// Request ID first so every log line and error body carries it.
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(httpMetrics.Middleware())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	strictRateLimiter := middleware.NewStrictRateLimiter()

	adminHandler := handler.NewAdminHandler(deps.Users, deps.Engine, deps.Config.App.DefaultPictureURL, deps.AuditLogger)
	usersHandler := handler.NewUsersHandler(deps.Users, deps.Engine, deps.Config.App.UsersPageSize, deps.AuditLogger)
	pictureHandler := handler.NewPictureHandler(deps.Pictures, deps.Config.S3.MaxPictureSize, deps.AuditLogger)

	e.GET("/health", healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	api := e.Group(apiPrefix)
	api.Use(deps.AuthMiddleware.RequireJWT())

	routes := []route{
		{presets.RouteAdminCreateUser, stdhttp.MethodPost, "/admin/create", adminHandler.CreateUser, []echo.MiddlewareFunc{strictRateLimiter.Middleware()}},
		{presets.RoutePicturesUpload, stdhttp.MethodPost, "/pictures/upload-picture", pictureHandler.UploadPicture, nil},
		{presets.RoutePicturesDownloadURL, stdhttp.MethodGet, "/pictures/:key/download-url", pictureHandler.GetDownloadURL, nil},
		{presets.RouteUsersList, stdhttp.MethodGet, "/users", usersHandler.ListUsers, nil},
	}

	for _, r := range routes {
		if err := deps.Engine.RequireRoutes(r.id); err != nil {
			return nil, fmt.Errorf(errRouteWithoutPolicyFmt, r.method, r.path, err)
		}
		mw := append([]echo.MiddlewareFunc{deps.RBACMiddleware.RequireRoute(r.id)}, r.extraMW...)
		api.Add(r.method, r.path, r.handle, mw...)
	}

	return &Server{
		echo:     e,
		deps:     deps,
		limiters: []*middleware.RateLimiter{globalRateLimiter, strictRateLimiter},
	}, nil
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// RunLimiterEviction drops idle rate-limit buckets until ctx is done.
func (s *Server) RunLimiterEviction(ctx context.Context) {
	for _, rl := range s.limiters {
		go rl.RunEviction(ctx, middleware.DefaultLimiterIdleTTL)
	}
	<-ctx.Done()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() stdhttp.Handler {
	return s.echo
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
