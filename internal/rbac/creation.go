package rbac

import (
	"errors"
	"fmt"
)

// assignmentDenials lists (caller role, target role) pairs that block user
// creation. A caller holding any denied caller role for the target is refused.
var assignmentDenials = []struct {
	caller Role
	target Role
}{
	{RoleSystemAdmin, RoleSystemAdmin},
	{RoleAdmin, RoleAdmin},
	{RoleAdmin, RoleSystemAdmin},
}

// RoleAssignmentError reports a disallowed caller/target role combination.
type RoleAssignmentError struct {
	CallerRoles []Role
	Target      Role
	// NotElevated is set when the caller holds neither admin nor system_admin.
	NotElevated bool
}

func (e *RoleAssignmentError) Error() string {
	if e.NotElevated {
		return fmt.Sprintf(errRoleAssignmentNotElevatedFmt, formatRoles(e.CallerRoles))
	}
	return fmt.Sprintf(errRoleAssignmentFmt, formatRoles(e.CallerRoles), e.Target)
}

func (e *RoleAssignmentError) Unwrap() error {
	return ErrRoleAssignmentDenied
}

// CanAssignRole decides whether the caller may create a user holding target.
// An unknown target returns ErrInvalidRole.
func CanAssignRole(groups Groups, target Role) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRole, target)
	}
	if !groups.Elevated() {
		return &RoleAssignmentError{CallerRoles: groups.Roles(), Target: target, NotElevated: true}
	}

	for _, d := range assignmentDenials {
		if d.target == target && groups.Has(d.caller) {
			return &RoleAssignmentError{CallerRoles: groups.Roles(), Target: target}
		}
	}
	return nil
}

func isRoleAssignmentDenied(err error) bool {
	return errors.Is(err, ErrRoleAssignmentDenied)
}
