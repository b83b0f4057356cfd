package handler

import (
	"context"
	"time"

	"user-service/internal/domain/user"
	"user-service/internal/rbac"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// AdminHandler interfaces
type UserCreator interface {
	UserExists(ctx context.Context, email, phoneNumber string) (bool, error)
	CreateUser(ctx context.Context, input user.CreateUserInput) (string, error)
}

type RoleAssigner interface {
	CanAssignRole(groups rbac.Groups, target rbac.Role) error
}

// UsersHandler interfaces
type UserLister interface {
	ListUsers(ctx context.Context, input user.ListUsersInput) (*user.ListUsersOutput, error)
}

type FieldAuthorizer interface {
	CheckFieldAccess(groups rbac.Groups, requested []rbac.Field) error
}

// PictureHandler interfaces
type PictureStore interface {
	PutPicture(ctx context.Context, key string, data []byte, contentType, author string) error
	Exists(ctx context.Context, key string) (bool, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string) (string, error)
	PresignedURLExpiry() time.Duration
}
