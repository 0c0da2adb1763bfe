// Package authz decides which roles may call which routes.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/thibovi/rebilt-backend/internal/models"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// catalogResources may be written by partner admins
var catalogResources = []string{
	"products", "categories", "filters", "options", "configurations",
	"partner-configurations", "house-styles", "cloudinary", "model-jobs", "images",
}

// Policy is one allow rule: role, route pattern, HTTP method or "*"
type Policy struct {
	Role   models.Role
	Path   string
	Method string
}

// DefaultPolicies returns the built-in role policy
func DefaultPolicies() []Policy {
	p := []Policy{
		{models.RolePlatformAdmin, "/*", "*"},
		{models.RolePartnerAdmin, "/api/v1/orders*", "GET"},
		{models.RolePartnerAdmin, "/api/v1/checkouts*", "GET"},
		{models.RolePartnerAdmin, "/api/v1/users*", "GET"},
		{models.RolePartnerOwner, "/api/v1/partners/*", "PUT"},
		{models.RolePartnerOwner, "/api/v1/orders/*", "PUT"},
		{models.RolePartnerOwner, "/api/v1/checkouts/*", "PUT"},
	}
	for _, res := range catalogResources {
		p = append(p, Policy{models.RolePartnerAdmin, "/api/v1/" + res + "*", "*"})
	}
	return p
}

// Enforcer evaluates the role policy
type Enforcer struct {
	e *casbin.Enforcer
}

// New builds an enforcer from policies. partner_owner inherits partner_admin.
func New(policies []Policy) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(string(p.Role), p.Path, p.Method); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", p, err)
		}
	}
	if _, err := e.AddGroupingPolicy(string(models.RolePartnerOwner), string(models.RolePartnerAdmin)); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}
	return &Enforcer{e: e}, nil
}

// Allow reports whether role may call method on the route pattern path
func (e *Enforcer) Allow(role models.Role, path, method string) (bool, error) {
	ok, err := e.e.Enforce(string(role), path, method)
	if err != nil {
		return false, fmt.Errorf("RBAC permission check failed: %w", err)
	}
	return ok, nil
}
