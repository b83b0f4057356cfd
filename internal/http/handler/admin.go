package handler

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/domain/user"
	"user-service/internal/rbac"
	"user-service/internal/types"
	apperrors "user-service/pkg/errors"
)

type AdminHandler struct {
	users          UserCreator
	roles          RoleAssigner
	defaultPicture string
	auditLogger    types.AuditLogger
}

func NewAdminHandler(users UserCreator, roles RoleAssigner, defaultPicture string, auditLogger types.AuditLogger) *AdminHandler {
	return &AdminHandler{
		users:          users,
		roles:          roles,
		defaultPicture: defaultPicture,
		auditLogger:    types.AuditOrNop(auditLogger),
	}
}

// CreateUser runs after the route check. The role assignment rule is applied
// before anything is sent to the user pool.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	identity, err := auth.GetIdentity(c)
	if err != nil {
		return err
	}

	var req user.CreateUserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.UserRole = strings.TrimSpace(req.UserRole)

	if err := validate(c, &req); err != nil {
		return err
	}

	target, err := rbac.ParseRole(req.UserRole)
	if err != nil {
		return apperrors.BadRequest(err.Error())
	}

	if err := h.roles.CanAssignRole(identity.Groups, target); err != nil {
		if errors.Is(err, rbac.ErrRoleAssignmentDenied) {
			h.auditLogger.LogDenied(c, identity.Username, audit.ResourceTypeUser, req.Email, audit.ActionCreate, err)
			return apperrors.Forbidden(err.Error(), err)
		}
		return apperrors.BadRequest(err.Error())
	}

	ctx := c.Request().Context()

	exists, err := h.users.UserExists(ctx, req.Email, req.PhoneNumber)
	if err != nil {
		h.auditLogger.LogError(c, identity.Username, audit.ResourceTypeUser, req.Email, audit.ActionCreate, err)
		return apperrors.InternalServer(msgCreateUserFailed, err)
	}
	if exists {
		return apperrors.Conflict(msgUserAlreadyExists)
	}

	username, err := h.users.CreateUser(ctx, user.CreateUserInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Picture:     h.defaultPicture,
		Role:        target,
	})
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return apperrors.Conflict(msgUserAlreadyExists)
		}
		h.auditLogger.LogError(c, identity.Username, audit.ResourceTypeUser, req.Email, audit.ActionCreate, err)
		return apperrors.InternalServer(msgCreateUserFailed, err)
	}

	h.auditLogger.LogFromContext(c, identity.Username, audit.ResourceTypeUser, username, audit.ActionCreate, audit.StatusSuccess, map[string]any{
		"role": string(target),
	})

	return respondCreated(c, user.CreateUserResponse{Username: username})
}
