package rbac

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

const (
	decisionAllow = "allow"
	decisionDeny  = "deny"
)

// Authorize evaluates a route policy for the caller's recognized roles.
// It returns nil to allow and an error wrapping ErrDenied otherwise.
func Authorize(groups Groups, policy RoutePolicy) error {
	if groups.Empty() {
		return denied(errDeniedNoRecognizedRoles)
	}
	if err := policy.validate("<inline>"); err != nil {
		return denied(errDeniedMalformedPolicyFmt, err)
	}

	allow, deny := policy.Allow, policy.Deny

	switch {
	case !allow.Present() && !deny.Present():
		return nil
	case !allow.Present() && deny.Empty():
		return nil
	case allow.Empty():
		return denied(errDeniedEmptyAllowList)
	case !allow.Present():
		if hit := deny.Intersect(groups); len(hit) > 0 {
			return denied(errDeniedRoleInDenyListFmt, formatRoles(hit))
		}
		return nil
	case !deny.Present() || deny.Empty():
		if len(allow.Intersect(groups)) == 0 {
			return denied(errDeniedRoleNotInAllowListFmt, groups, allow)
		}
		return nil
	default:
		if hit := deny.Intersect(groups); len(hit) > 0 {
			return denied(errDeniedRoleInDenyListFmt, formatRoles(hit))
		}
		if len(allow.Intersect(groups)) == 0 {
			return denied(errDeniedRoleNotInAllowListFmt, groups, allow)
		}
		return nil
	}
}

// IsAuthorized returns a boolean version of Authorize
func IsAuthorized(groups Groups, policy RoutePolicy) bool {
	return Authorize(groups, policy) == nil
}

func denied(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDenied, fmt.Sprintf(format, args...))
}

// Engine resolves route policies from a validated Config and records
// every decision it makes.
type Engine struct {
	routes  map[RouteID]RoutePolicy
	fields  FieldPolicy
	metrics *Metrics
	logger  *zap.Logger
}

type Option func(*Engine)

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine from a validated Config
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	privileged := cfg.PrivilegedFields
	if privileged == nil {
		privileged = DefaultPrivilegedFields
	}

	e := &Engine{
		routes: make(map[RouteID]RoutePolicy, len(cfg.Routes)),
		fields: NewFieldPolicy(privileged...),
		logger: zap.NewNop(),
	}
	for id, p := range cfg.Routes {
		e.routes[id] = RoutePolicy{Allow: p.Allow.clone(), Deny: p.Deny.clone()}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MustNew creates an Engine and panics on invalid config
func MustNew(cfg Config, opts ...Option) *Engine {
	e, err := New(cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf(errMustNewPanicFmt, err))
	}
	return e
}

// Authorize checks the caller against the policy registered for route.
// Routes without a policy are denied.
func (e *Engine) Authorize(route RouteID, groups Groups) error {
	policy, ok := e.routes[route]
	if !ok {
		err := fmt.Errorf("%w: %w", ErrDenied, fmt.Errorf(errDeniedUnknownRouteFmt, ErrUnknownRoute, route))
		e.record(route, groups, err)
		return err
	}

	err := Authorize(groups, policy)
	e.record(route, groups, err)
	return err
}

func (e *Engine) IsAuthorized(route RouteID, groups Groups) bool {
	return e.Authorize(route, groups) == nil
}

func (e *Engine) Policy(route RouteID) (RoutePolicy, bool) {
	p, ok := e.routes[route]
	return p, ok
}

// Routes lists the configured route ids in a stable order.
func (e *Engine) Routes() []RouteID {
	ids := make([]RouteID, 0, len(e.routes))
	for id := range e.routes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RequireRoutes fails when any of ids has no policy.
func (e *Engine) RequireRoutes(ids ...RouteID) error {
	for _, id := range ids {
		if _, ok := e.routes[id]; !ok {
			return fmt.Errorf(errConfigMissingRouteFmt, id)
		}
	}
	return nil
}

func (e *Engine) FieldPolicy() FieldPolicy {
	return e.fields
}

// CheckFieldAccess applies the configured field policy.
func (e *Engine) CheckFieldAccess(groups Groups, requested []Field) error {
	err := e.fields.CheckFieldAccess(groups, requested)
	var ffe *ForbiddenFieldsError
	if errors.As(err, &ffe) {
		e.metrics.recordFieldRejections(ffe.Fields)
		e.logger.Warn("field access denied",
			zap.Stringer("roles", groups),
			zap.Strings("fields", fieldNames(ffe.Fields)),
		)
	}
	return err
}

// CanAssignRole applies the creation role rule.
func (e *Engine) CanAssignRole(groups Groups, target Role) error {
	err := CanAssignRole(groups, target)
	if err != nil && isRoleAssignmentDenied(err) {
		e.metrics.recordAssignmentDenied(target)
		e.logger.Warn("role assignment denied",
			zap.Stringer("roles", groups),
			zap.String("target_role", string(target)),
		)
	}
	return err
}

func (e *Engine) record(route RouteID, groups Groups, err error) {
	if err == nil {
		e.metrics.recordDecision(route, decisionAllow)
		e.logger.Debug("authorization granted",
			zap.String("route", string(route)),
			zap.Stringer("roles", groups),
		)
		return
	}
	e.metrics.recordDecision(route, decisionDeny)
	e.logger.Warn("authorization denied",
		zap.String("route", string(route)),
		zap.Stringer("roles", groups),
		zap.Error(err),
	)
}

func (l RoleList) clone() RoleList {
	if !l.present {
		return RoleList{}
	}
	return Roles(l.roles...)
}
