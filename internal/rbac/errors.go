package rbac

import "errors"

var (
	ErrDenied               = errors.New("authorization denied")
	ErrUnknownRoute         = errors.New("unknown route")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidField         = errors.New("invalid field")
	ErrFieldAccessDenied    = errors.New("field access denied")
	ErrRoleAssignmentDenied = errors.New("role assignment denied")
)

const (
	errConfigRoutesEmpty            = "rbac config: routes must not be empty"
	errConfigRouteIDEmpty           = "rbac config: route id must not be empty"
	errConfigUnknownRoleFmt         = "rbac config: route %s %s-list references unknown role: %s"
	errConfigDuplicateRoleFmt       = "rbac config: route %s %s-list has duplicate role: %s"
	errConfigUnknownFieldFmt        = "rbac config: unknown privileged field: %s"
	errConfigDuplicateFieldFmt      = "rbac config: duplicate privileged field: %s"
	errConfigMissingRouteFmt        = "rbac config: no policy for route %s"
	errMustNewPanicFmt              = "rbac.MustNew: %v"
	errDeniedNoRecognizedRoles      = "caller has no recognized roles"
	errDeniedEmptyAllowList         = "allow-list is empty"
	errDeniedRoleInDenyListFmt      = "roles %s are denied"
	errDeniedRoleNotInAllowListFmt  = "roles %s are not in allow-list %s"
	errDeniedMalformedPolicyFmt     = "malformed policy: %v"
	errDeniedUnknownRouteFmt        = "%w: %s"
	errForbiddenFieldsFmt           = "fields %s require one of the roles %s"
	errRoleAssignmentFmt            = "user with roles %s is not allowed to create user with role %s"
	errRoleAssignmentNotElevatedFmt = "user with roles %s is not allowed to create users"
)
