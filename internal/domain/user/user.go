package user

import (
	"errors"
	"time"

	"user-service/internal/rbac"
)

var ErrAlreadyExists = errors.New("user already exists")

// User pool attribute names.
const (
	AttrName        = "name"
	AttrEmail       = "email"
	AttrPhoneNumber = "phone_number"
	AttrPicture     = "picture"
	AttrSub         = "sub"
)

// User is a user pool account as returned by the identity provider.
type User struct {
	Username   string
	Attributes map[string]string
	Enabled    bool
	Status     string
	Groups     []string
	CreatedAt  time.Time
}

type CreateUserInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Picture     string
	Role        rbac.Role
}

// ListUsersInput is one page request against the user pool.
type ListUsersInput struct {
	Limit           int64
	PaginationToken string
	// Attributes limits the returned attributes. Empty means all.
	Attributes []string
	// WithGroups asks for each user's group memberships.
	WithGroups bool
}

type ListUsersOutput struct {
	Users           []User
	PaginationToken string
}

var fieldAttributes = map[rbac.Field]string{
	rbac.FieldFullName:    AttrName,
	rbac.FieldEmail:       AttrEmail,
	rbac.FieldPhoneNumber: AttrPhoneNumber,
	rbac.FieldPicture:     AttrPicture,
}

// AttributeFor returns the user pool attribute backing f. Fields that are not
// attributes (groups, active) return false.
func AttributeFor(f rbac.Field) (string, bool) {
	attr, ok := fieldAttributes[f]
	return attr, ok
}

// AttributesFor collects the user pool attributes needed to render fields.
func AttributesFor(fields []rbac.Field) []string {
	var attrs []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if attr, ok := AttributeFor(f); ok && !seen[attr] {
			seen[attr] = true
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// NeedsGroups reports whether rendering fields requires a group lookup.
func NeedsGroups(fields []rbac.Field) bool {
	for _, f := range fields {
		if f == rbac.FieldGroups {
			return true
		}
	}
	return false
}

// Project renders u with only the requested fields.
func Project(u User, fields []rbac.Field) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case rbac.FieldActive:
			out[string(f)] = u.Enabled
		case rbac.FieldGroups:
			groups := u.Groups
			if groups == nil {
				groups = []string{}
			}
			out[string(f)] = groups
		default:
			attr, _ := AttributeFor(f)
			out[string(f)] = u.Attributes[attr]
		}
	}
	return out
}
