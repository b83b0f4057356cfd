package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/domain/user"
	"user-service/internal/rbac"
	"user-service/internal/types"
	apperrors "user-service/pkg/errors"
)

type UsersHandler struct {
	users       UserLister
	fields      FieldAuthorizer
	pageSize    int
	auditLogger types.AuditLogger
}

func NewUsersHandler(users UserLister, fields FieldAuthorizer, pageSize int, auditLogger types.AuditLogger) *UsersHandler {
	return &UsersHandler{
		users:       users,
		fields:      fields,
		pageSize:    pageSize,
		auditLogger: types.AuditOrNop(auditLogger),
	}
}

func (h *UsersHandler) ListUsers(c echo.Context) error {
	identity, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	var q user.ListUsersQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return apperrors.BadRequest(msgInvalidQuery)
	}
	if err := validate(c, &q); err != nil {
		return err
	}

	fields, err := parseRequestedFields(q.RequestedFields)
	if err != nil {
		return apperrors.BadRequest(err.Error())
	}

	if err := h.fields.CheckFieldAccess(identity.Groups, fields); err != nil {
		h.auditLogger.LogDenied(c, identity.Username, audit.ResourceTypeUser, "", audit.ActionList, err)
		return apperrors.Forbidden(err.Error(), err)
	}

	limit := q.Limit
	if limit == 0 {
		limit = h.pageSize
	}

	out, err := h.users.ListUsers(c.Request().Context(), user.ListUsersInput{
		Limit:           int64(limit),
		PaginationToken: q.PaginationToken,
		Attributes:      user.AttributesFor(fields),
		WithGroups:      user.NeedsGroups(fields),
	})
	if err != nil {
		return apperrors.InternalServer(msgListUsersFailed, err)
	}

	resp := user.ListUsersResponse{
		PaginationToken: out.PaginationToken,
		Users:           make([]map[string]any, 0, len(out.Users)),
	}
	for _, u := range out.Users {
		resp.Users = append(resp.Users, user.Project(u, fields))
	}

	return respondOK(c, resp)
}

// parseRequestedFields accepts repeated and comma separated values, keeps the
// first occurrence order, and falls back to the default fields.
func parseRequestedFields(raw []string) ([]rbac.Field, error) {
	var fields []rbac.Field
	seen := make(map[rbac.Field]bool)

	for _, value := range raw {
		for _, part := range strings.Split(value, fieldSeparator) {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := rbac.ParseField(part)
			if err != nil {
				return nil, err
			}
			if !seen[f] {
				seen[f] = true
				fields = append(fields, f)
			}
		}
	}

	if len(fields) == 0 {
		fields = append(fields, rbac.DefaultFields...)
	}
	return fields, nil
}
