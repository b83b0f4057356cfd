package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "user-service/pkg/errors"
	"user-service/pkg/logger"
)

type Middleware struct {
	verifier Verifier
	logger   *zap.Logger
}

func NewMiddleware(verifier Verifier, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{verifier: verifier, logger: log}
}

// RequireJWT rejects requests without a valid access token and stores the
// caller's Identity in the context.
func (m *Middleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return apperrors.Unauthorized(msgMissingAuthorization)
			}

			identity, err := m.verifier.Verify(c.Request().Context(), token)
			if err != nil {
				m.logger.Info("token rejected",
					zap.String("reason", logger.SanitizeLogMessage(err.Error())),
					zap.String("ip", c.RealIP()),
				)
				return apperrors.Unauthorized(msgInvalidOrExpiredToken)
			}

			c.Set(ContextKeyIdentity, identity)
			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func GetIdentity(c echo.Context) (*Identity, error) {
	raw := c.Get(ContextKeyIdentity)
	if raw == nil {
		return nil, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	identity, ok := raw.(*Identity)
	if !ok || identity == nil {
		return nil, apperrors.InternalServer(msgInvalidIdentityCtx, nil)
	}

	return identity, nil
}
