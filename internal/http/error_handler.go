package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"user-service/internal/http/middleware"
	"user-service/internal/rbac"
	apperrors "user-service/pkg/errors"
)

const (
	jsonKeyError     = "error"
	jsonKeyRequestID = "request_id"
	jsonKeyFields    = "fields"

	unknownRequestID = "unknown"
	msgInternal      = "Internal server error"
)

// NewHTTPErrorHandler maps errors returned by handlers and middleware to a
// status code and a JSON body carrying the request id. 5xx details are only logged.
func NewHTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := classify(err)

		requestID := middleware.GetRequestID(c)
		if requestID == "" {
			requestID = unknownRequestID
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			log.Error("internal_server_error", fields...)
			message = msgInternal
		} else {
			log.Debug("client_error", fields...)
		}

		body := map[string]interface{}{
			jsonKeyError:     message,
			jsonKeyRequestID: requestID,
		}
		var ffe *rbac.ForbiddenFieldsError
		if errors.As(err, &ffe) {
			names := make([]string, len(ffe.Fields))
			for i, f := range ffe.Fields {
				names[i] = string(f)
			}
			body[jsonKeyFields] = names
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Error("failed to write error response", zap.Error(err))
		}
	}
}

func classify(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, fmt.Sprintf("%v", httpErr.Message)
	}

	code := http.StatusInternalServerError
	message := msgInternal

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		code, message = http.StatusNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrUnauthorized):
		code, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, rbac.ErrDenied),
		errors.Is(err, rbac.ErrFieldAccessDenied),
		errors.Is(err, rbac.ErrRoleAssignmentDenied):
		code, message = http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperrors.ErrBadRequest),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, rbac.ErrInvalidRole),
		errors.Is(err, rbac.ErrInvalidField):
		code, message = http.StatusBadRequest, "Bad request"
	case errors.Is(err, apperrors.ErrConflict):
		code, message = http.StatusConflict, "Resource already exists"
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && code < http.StatusInternalServerError {
		message = appErr.Message
	}

	return code, message
}
