package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a user pool group with a meaning to this service.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleUser        Role = "user"
	RoleGuest       Role = "guest"
	RoleSystemAdmin Role = "system_admin"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:       {},
	RoleUser:        {},
	RoleGuest:       {},
	RoleSystemAdmin: {},
}

// elevatedRoles bypass the field policy and are the only roles that may create users.
var elevatedRoles = []Role{RoleAdmin, RoleSystemAdmin}

// RouteID names an operation in the route policy table.
type RouteID string

func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, s)
	}
	return r, nil
}

// KnownRoles returns the closed role set in a stable order.
func KnownRoles() []Role {
	out := make([]Role, 0, len(knownRoles))
	for r := range knownRoles {
		out = append(out, r)
	}
	sortRoles(out)
	return out
}

// RoleList is an allow-list or deny-list. The zero value is an absent list,
// which is not the same thing as an empty one built with Roles().
type RoleList struct {
	roles   []Role
	present bool
}

// Roles builds a present list. Roles() with no arguments is an explicit empty list.
func Roles(roles ...Role) RoleList {
	cp := make([]Role, len(roles))
	copy(cp, roles)
	return RoleList{roles: cp, present: true}
}

func (l RoleList) Present() bool { return l.present }

// Empty reports a present list with no roles.
func (l RoleList) Empty() bool { return l.present && len(l.roles) == 0 }

func (l RoleList) Len() int { return len(l.roles) }

func (l RoleList) Roles() []Role {
	cp := make([]Role, len(l.roles))
	copy(cp, l.roles)
	return cp
}

func (l RoleList) Contains(role Role) bool {
	for _, r := range l.roles {
		if r == role {
			return true
		}
	}
	return false
}

// Intersect returns the roles of the list the caller holds.
func (l RoleList) Intersect(groups Groups) []Role {
	var out []Role
	for _, r := range l.roles {
		if groups.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (l RoleList) String() string {
	if !l.present {
		return "<absent>"
	}
	return formatRoles(l.roles)
}

// RoutePolicy is attached to a route at registration time and never mutated.
type RoutePolicy struct {
	Allow RoleList
	Deny  RoleList
}

// Groups is the set of recognized roles held by a caller for one request.
type Groups struct {
	roles map[Role]struct{}
}

// NewGroups keeps the names that are known roles and drops the rest.
func NewGroups(names ...string) Groups {
	g := Groups{roles: make(map[Role]struct{}, len(names))}
	for _, n := range names {
		r := Role(strings.TrimSpace(n))
		if r.Valid() {
			g.roles[r] = struct{}{}
		}
	}
	return g
}

// GroupsOf builds a caller set from roles. Unknown roles are dropped.
func GroupsOf(roles ...Role) Groups {
	g := Groups{roles: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		if r.Valid() {
			g.roles[r] = struct{}{}
		}
	}
	return g
}

func (g Groups) Has(role Role) bool {
	_, ok := g.roles[role]
	return ok
}

func (g Groups) Empty() bool { return len(g.roles) == 0 }

func (g Groups) Len() int { return len(g.roles) }

// HasAny reports whether the caller holds at least one of roles.
func (g Groups) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if g.Has(r) {
			return true
		}
	}
	return false
}

// Elevated reports whether the caller holds admin or system_admin.
func (g Groups) Elevated() bool {
	return g.HasAny(elevatedRoles...)
}

// Roles returns the caller's roles sorted by name.
func (g Groups) Roles() []Role {
	out := make([]Role, 0, len(g.roles))
	for r := range g.roles {
		out = append(out, r)
	}
	sortRoles(out)
	return out
}

func (g Groups) String() string {
	return formatRoles(g.Roles())
}

func sortRoles(roles []Role) {
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
}

func formatRoles(roles []Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return "[" + strings.Join(names, ", ") + "]"
}
