package rbac

import (
	"fmt"
	"strings"
)

// Field is a user attribute a caller may ask the listing endpoint for.
type Field string

const (
	FieldFullName    Field = "full_name"
	FieldEmail       Field = "email"
	FieldPhoneNumber Field = "phone_number"
	FieldPicture     Field = "picture"
	FieldGroups      Field = "groups"
	FieldActive      Field = "active"
)

var allFields = []Field{
	FieldFullName,
	FieldEmail,
	FieldPhoneNumber,
	FieldPicture,
	FieldGroups,
	FieldActive,
}

// DefaultPrivilegedFields are visible to admin and system_admin only.
var DefaultPrivilegedFields = []Field{FieldPhoneNumber, FieldGroups, FieldActive}

// DefaultFields are returned when a listing request names none.
var DefaultFields = []Field{FieldFullName, FieldEmail, FieldPicture}

func AllFields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

func (f Field) Valid() bool {
	for _, known := range allFields {
		if f == known {
			return true
		}
	}
	return false
}

func ParseField(s string) (Field, error) {
	f := Field(strings.TrimSpace(s))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidField, s)
	}
	return f, nil
}

// ForbiddenFieldsError names the requested fields the caller may not see.
type ForbiddenFieldsError struct {
	Fields []Field
}

func (e *ForbiddenFieldsError) Error() string {
	return fmt.Sprintf(errForbiddenFieldsFmt, formatFields(e.Fields), formatRoles(elevatedRoles))
}

func (e *ForbiddenFieldsError) Unwrap() error {
	return ErrFieldAccessDenied
}

// FieldPolicy restricts privileged fields to elevated callers.
type FieldPolicy struct {
	privileged map[Field]struct{}
}

func NewFieldPolicy(privileged ...Field) FieldPolicy {
	p := FieldPolicy{privileged: make(map[Field]struct{}, len(privileged))}
	for _, f := range privileged {
		p.privileged[f] = struct{}{}
	}
	return p
}

func (p FieldPolicy) IsPrivileged(f Field) bool {
	_, ok := p.privileged[f]
	return ok
}

// CheckFieldAccess returns a *ForbiddenFieldsError listing every privileged
// field in requested when the caller holds neither admin nor system_admin.
func (p FieldPolicy) CheckFieldAccess(groups Groups, requested []Field) error {
	if groups.Elevated() {
		return nil
	}

	var forbidden []Field
	seen := make(map[Field]bool, len(requested))
	for _, f := range requested {
		if seen[f] {
			continue
		}
		seen[f] = true
		if p.IsPrivileged(f) {
			forbidden = append(forbidden, f)
		}
	}

	if len(forbidden) > 0 {
		return &ForbiddenFieldsError{Fields: forbidden}
	}
	return nil
}

// CheckFieldAccess uses DefaultPrivilegedFields.
func CheckFieldAccess(groups Groups, requested []Field) error {
	return NewFieldPolicy(DefaultPrivilegedFields...).CheckFieldAccess(groups, requested)
}

func fieldNames(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func formatFields(fields []Field) string {
	return "[" + strings.Join(fieldNames(fields), ", ") + "]"
}
