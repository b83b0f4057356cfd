package audit

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const loggerName = "audit"

// ResourceType represents the type of resource being acted upon
type ResourceType string

const (
	ResourceTypeRoute   ResourceType = "route"
	ResourceTypeUser    ResourceType = "user"
	ResourceTypePicture ResourceType = "picture"
)

// Action represents the action being performed
type Action string

const (
	ActionAccess Action = "access"
	ActionCreate Action = "create"
	ActionList   Action = "list"
	ActionUpload Action = "upload"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

// Event represents an audit event
type Event struct {
	Actor        string
	ResourceType ResourceType
	ResourceID   string
	Action       Action
	Status       Status
	IPAddress    string
	RequestID    string
	Metadata     map[string]any
	ErrorMessage string
	CreatedAt    time.Time
}

// Logger writes audit events as structured log lines.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates an audit logger named "audit" under base.
func NewLogger(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{log: base.Named(loggerName)}
}

// Log records an audit event
func (l *Logger) Log(event *Event) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	fields := []zap.Field{
		zap.String("actor", event.Actor),
		zap.String("resource_type", string(event.ResourceType)),
		zap.String("resource_id", event.ResourceID),
		zap.String("action", string(event.Action)),
		zap.String("status", string(event.Status)),
		zap.String("ip", event.IPAddress),
		zap.String("request_id", event.RequestID),
		zap.Time("at", event.CreatedAt),
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}
	if event.ErrorMessage != "" {
		fields = append(fields, zap.String("error", event.ErrorMessage))
	}

	switch event.Status {
	case StatusSuccess:
		l.log.Info("audit event", fields...)
	default:
		l.log.Warn("audit event", fields...)
	}
}

// LogFromContext fills request details from c and records the event.
func (l *Logger) LogFromContext(c echo.Context, actor string, resourceType ResourceType, resourceID string, action Action, status Status, metadata map[string]any) {
	l.Log(&Event{
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Status:       status,
		IPAddress:    c.RealIP(),
		RequestID:    requestID(c),
		Metadata:     metadata,
	})
}

// LogDenied records an authorization or field-policy refusal.
func (l *Logger) LogDenied(c echo.Context, actor string, resourceType ResourceType, resourceID string, action Action, err error) {
	event := &Event{
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Status:       StatusDenied,
		IPAddress:    c.RealIP(),
		RequestID:    requestID(c),
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	l.Log(event)
}

// LogError records a failed action with error details.
func (l *Logger) LogError(c echo.Context, actor string, resourceType ResourceType, resourceID string, action Action, err error) {
	l.Log(&Event{
		Actor:        actor,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Status:       StatusFailure,
		IPAddress:    c.RealIP(),
		RequestID:    requestID(c),
		ErrorMessage: err.Error(),
	})
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}
