package auth

import (
	"github.com/labstack/echo/v4"

	"user-service/internal/audit"
	"user-service/internal/rbac"
	"user-service/internal/types"
	apperrors "user-service/pkg/errors"
)

type RBACMiddleware struct {
	engine *rbac.Engine
	audit  types.AuditLogger
}

// NewRBACMiddleware records denials on auditLogger; nil discards them.
func NewRBACMiddleware(engine *rbac.Engine, auditLogger types.AuditLogger) *RBACMiddleware {
	return &RBACMiddleware{engine: engine, audit: types.AuditOrNop(auditLogger)}
}

// RequireRoute authorizes the caller against the policy registered for route
// before the handler runs. It must be chained after RequireJWT.
func (m *RBACMiddleware) RequireRoute(route rbac.RouteID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, err := GetIdentity(c)
			if err != nil {
				return err
			}

			if err := m.engine.Authorize(route, identity.Groups); err != nil {
				m.audit.LogDenied(c, identity.Username, audit.ResourceTypeRoute, string(route), audit.ActionAccess, err)
				return apperrors.Forbidden(msgAccessDenied, err)
			}

			return next(c)
		}
	}
}
