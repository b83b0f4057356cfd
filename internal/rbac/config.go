package rbac

import "fmt"

// Config is the static authorization setup, validated once at startup.
type Config struct {
	Routes map[RouteID]RoutePolicy
	// PrivilegedFields defaults to DefaultPrivilegedFields when nil.
	PrivilegedFields []Field
}

// Validate checks internal consistency of the Config
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return fmt.Errorf(errConfigRoutesEmpty)
	}

	for id, policy := range c.Routes {
		if id == "" {
			return fmt.Errorf(errConfigRouteIDEmpty)
		}
		if err := policy.validate(id); err != nil {
			return err
		}
	}

	seen := make(map[Field]bool, len(c.PrivilegedFields))
	for _, f := range c.PrivilegedFields {
		if !f.Valid() {
			return fmt.Errorf(errConfigUnknownFieldFmt, f)
		}
		if seen[f] {
			return fmt.Errorf(errConfigDuplicateFieldFmt, f)
		}
		seen[f] = true
	}

	return nil
}

// RequireRoutes fails when any of ids has no policy.
func (c *Config) RequireRoutes(ids ...RouteID) error {
	for _, id := range ids {
		if _, ok := c.Routes[id]; !ok {
			return fmt.Errorf(errConfigMissingRouteFmt, id)
		}
	}
	return nil
}

func (p RoutePolicy) validate(id RouteID) error {
	if err := validateList(id, "allow", p.Allow); err != nil {
		return err
	}
	return validateList(id, "deny", p.Deny)
}

func validateList(id RouteID, kind string, l RoleList) error {
	seen := make(map[Role]bool, l.Len())
	for _, r := range l.roles {
		if !r.Valid() {
			return fmt.Errorf(errConfigUnknownRoleFmt, id, kind, r)
		}
		if seen[r] {
			return fmt.Errorf(errConfigDuplicateRoleFmt, id, kind, r)
		}
		seen[r] = true
	}
	return nil
}
