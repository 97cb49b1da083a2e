// Package access holds the route classification and redirect tables used to
// gate page requests by role, and the pure decision function over them.
package access

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
)

// RoleTargets are the fixed redirect targets of a role.
type RoleTargets struct {
	Home  string
	Login string
}

// Route marks every path at or below Prefix as requiring Role.
type Route struct {
	Prefix string
	Role   domainauth.Role
}

// PolicyConfig is the raw table data a Policy is built from.
type PolicyConfig struct {
	Routes       []Route
	Targets      map[domainauth.Role]RoleTargets
	GenericLogin string
}

// Policy is the immutable, validated form of PolicyConfig.
// It is safe for concurrent use.
type Policy struct {
	routes       []Route // longest prefix first
	targets      map[domainauth.Role]RoleTargets
	loginPaths   map[string]struct{}
	genericLogin string
}

// DefaultPolicyConfig returns the application's route and redirect tables.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Routes: []Route{
			{Prefix: "/dashboard", Role: domainauth.RoleStudent},
			{Prefix: "/complaints", Role: domainauth.RoleStudent},
			{Prefix: "/admin", Role: domainauth.RoleAdmin},
			{Prefix: "/department", Role: domainauth.RoleDepartmentOfficer},
		},
		Targets: map[domainauth.Role]RoleTargets{
			domainauth.RoleStudent:           {Home: "/dashboard", Login: "/login"},
			domainauth.RoleAdmin:             {Home: "/admin/dashboard", Login: "/admin/login"},
			domainauth.RoleDepartmentOfficer: {Home: "/department/dashboard", Login: "/department/login"},
		},
		GenericLogin: "/login",
	}
}

// DefaultPolicy returns the validated default policy.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultPolicyConfig())
	if err != nil {
		panic("access: default policy is invalid: " + err.Error()) //nolint:forbidigo // static tables, checked by tests
	}
	return p
}

// NewPolicy validates cfg and builds a Policy. It rejects tables where a
// role lacks a home or login path, a prefix is listed twice, a route names an
// unknown role, or a role's home page is not reachable by that role.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	p := &Policy{
		targets:    make(map[domainauth.Role]RoleTargets, len(cfg.Targets)),
		loginPaths: make(map[string]struct{}, len(cfg.Targets)+1),
	}

	if err := p.loadTargets(cfg); err != nil {
		return nil, err
	}
	if err := p.loadRoutes(cfg.Routes); err != nil {
		return nil, err
	}
	if err := p.checkHomes(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Policy) loadTargets(cfg PolicyConfig) error {
	for role := range cfg.Targets {
		if !role.Valid() {
			return fmt.Errorf("targets: unknown role %q", role)
		}
	}
	for _, role := range domainauth.Roles() {
		t, ok := cfg.Targets[role]
		if !ok {
			return fmt.Errorf("targets: role %q has no home/login paths", role)
		}
		if !isAbsPath(t.Home) || !isAbsPath(t.Login) {
			return fmt.Errorf("targets: role %q home and login must be absolute paths", role)
		}
		t.Home, t.Login = cleanPath(t.Home), cleanPath(t.Login)
		p.targets[role] = t
		p.loginPaths[t.Login] = struct{}{}
	}

	if !isAbsPath(cfg.GenericLogin) {
		return errors.New("generic login path must be an absolute path")
	}
	p.genericLogin = cleanPath(cfg.GenericLogin)
	p.loginPaths[p.genericLogin] = struct{}{}

	for role, t := range p.targets {
		if _, clash := p.loginPaths[t.Home]; clash {
			return fmt.Errorf("targets: home path %q of role %q is also a login path", t.Home, role)
		}
	}
	return nil
}

func (p *Policy) loadRoutes(routes []Route) error {
	seen := make(map[string]domainauth.Role, len(routes))
	for _, r := range routes {
		if !r.Role.Valid() {
			return fmt.Errorf("routes: prefix %q requires unknown role %q", r.Prefix, r.Role)
		}
		if !isAbsPath(r.Prefix) {
			return fmt.Errorf("routes: prefix %q must be an absolute path", r.Prefix)
		}
		prefix := cleanPath(r.Prefix)
		if prev, dup := seen[prefix]; dup {
			return fmt.Errorf("routes: prefix %q listed twice (%s, %s)", prefix, prev, r.Role)
		}
		seen[prefix] = r.Role
		p.routes = append(p.routes, Route{Prefix: prefix, Role: r.Role})
	}
	sort.SliceStable(p.routes, func(i, j int) bool {
		return len(p.routes[i].Prefix) > len(p.routes[j].Prefix)
	})
	return nil
}

// checkHomes makes sure sending a caller home can never bounce them again.
func (p *Policy) checkHomes() error {
	for role, t := range p.targets {
		required, ok := p.RequiredRole(t.Home)
		if !ok || required != role {
			return fmt.Errorf("targets: home path %q is not protected for role %q", t.Home, role)
		}
	}
	return nil
}

// RequiredRole returns the role protecting urlPath. The longest matching
// prefix wins; a prefix matches itself and anything below it on a path
// segment boundary, so /admin covers /admin/users but not /administrator.
func (p *Policy) RequiredRole(urlPath string) (domainauth.Role, bool) {
	clean := cleanPath(urlPath)
	for _, r := range p.routes {
		if matchesPrefix(clean, r.Prefix) {
			return r.Role, true
		}
	}
	return "", false
}

// IsLoginPath reports whether urlPath is one of the login pages.
func (p *Policy) IsLoginPath(urlPath string) bool {
	_, ok := p.loginPaths[cleanPath(urlPath)]
	return ok
}

// HomeFor returns the dashboard path of role.
func (p *Policy) HomeFor(role domainauth.Role) string { return p.targets[role].Home }

// LoginFor returns the login path of role.
func (p *Policy) LoginFor(role domainauth.Role) string { return p.targets[role].Login }

// GenericLogin returns the login path used when no role is known.
func (p *Policy) GenericLogin() string { return p.genericLogin }

// Routes returns a copy of the route table, longest prefix first.
func (p *Policy) Routes() []Route { return append([]Route(nil), p.routes...) }

func matchesPrefix(clean, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return clean == prefix || strings.HasPrefix(clean, prefix+"/")
}

func isAbsPath(v string) bool {
	return strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//")
}

// cleanPath normalizes a request path: dot segments and duplicate or trailing
// slashes are removed so "/admin/./users/" and "/admin/users" classify alike.
func cleanPath(v string) string {
	if v == "" {
		return "/"
	}
	if v[0] != '/' {
		v = "/" + v
	}
	return path.Clean(v)
}
