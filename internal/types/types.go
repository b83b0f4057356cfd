package types

import (
	"github.com/labstack/echo/v4"

	"user-service/internal/audit"
)

// AuditLogger defines audit logging operations
type AuditLogger interface {
	LogFromContext(c echo.Context, actor string, resourceType audit.ResourceType, resourceID string, action audit.Action, status audit.Status, metadata map[string]any)
	LogDenied(c echo.Context, actor string, resourceType audit.ResourceType, resourceID string, action audit.Action, err error)
	LogError(c echo.Context, actor string, resourceType audit.ResourceType, resourceID string, action audit.Action, err error)
}

// AuditOrNop returns l, or an audit logger that discards events when l is nil.
func AuditOrNop(l AuditLogger) AuditLogger {
	if l == nil {
		return audit.NewLogger(nil)
	}
	return l
}
