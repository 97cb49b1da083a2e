package access

import (
	"net/url"
	"strings"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
)

// Outcome is what the gate does with a request.
type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeRedirect
)

func (o Outcome) String() string {
	if o == OutcomeRedirect {
		return "redirect"
	}
	return "allow"
}

// Reason records why a decision was taken. Redirect reasons double as the
// gate's error taxonomy; none of them is ever surfaced as an HTTP error.
type Reason string

const (
	ReasonPublic           Reason = "public"
	ReasonLoginPage        Reason = "login_page"
	ReasonAuthorized       Reason = "authorized"
	ReasonNoSession        Reason = "no_session"
	ReasonUnknownPrincipal Reason = "unknown_principal"
	ReasonRoleMismatch     Reason = "role_mismatch"
	ReasonSignedIn         Reason = "already_signed_in"
)

// State is the per-request authentication state derived from a decision.
type State string

const (
	StateAnonymous                   State = "anonymous"
	StateUnauthenticated             State = "unauthenticated"
	StateAuthenticatedMismatchedRole State = "authenticated_mismatched_role"
	StateAuthenticatedMatchedRole    State = "authenticated_matched_role"
)

// RedirectParam is the query parameter carrying the originally requested path.
const RedirectParam = "redirectTo"

// Decision is the result of evaluating one request against a Policy.
type Decision struct {
	Outcome  Outcome
	Location string
	Reason   Reason
}

// Allowed reports whether the request passes through.
func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }

// State maps the decision reason onto the request state machine.
func (d Decision) State() State {
	switch d.Reason {
	case ReasonNoSession, ReasonUnknownPrincipal:
		return StateUnauthenticated
	case ReasonRoleMismatch:
		return StateAuthenticatedMismatchedRole
	case ReasonAuthorized, ReasonSignedIn:
		return StateAuthenticatedMatchedRole
	default:
		return StateAnonymous
	}
}

func allow(reason Reason) Decision { return Decision{Outcome: OutcomeAllow, Reason: reason} }

func redirect(location string, reason Reason) Decision {
	return Decision{Outcome: OutcomeRedirect, Location: location, Reason: reason}
}

// Class is the static classification of a path.
type Class int

const (
	ClassPublic Class = iota
	ClassLogin
	ClassProtected
)

// Classification pairs a Class with the role a protected path requires.
type Classification struct {
	Class    Class
	Required domainauth.Role
}

// NeedsSession reports whether deciding on the path requires looking at the
// caller's session. Public paths are decided without any lookups.
func (c Classification) NeedsSession() bool { return c.Class != ClassPublic }

// Classify resolves urlPath against the login pages and then the route table.
func (p *Policy) Classify(urlPath string) Classification {
	if p.IsLoginPath(urlPath) {
		return Classification{Class: ClassLogin}
	}
	if role, ok := p.RequiredRole(urlPath); ok {
		return Classification{Class: ClassProtected, Required: role}
	}
	return Classification{Class: ClassPublic}
}

// Caller describes what is known about the requester. HasSession is false
// when no valid session was found; RoleKnown is false when the directory
// could not resolve the session's principal.
type Caller struct {
	HasSession bool
	RoleKnown  bool
	Role       domainauth.Role
}

// Anonymous is a caller without a session.
func Anonymous() Caller { return Caller{} }

// SignedIn is a caller whose session and role both resolved.
func SignedIn(role domainauth.Role) Caller {
	return Caller{HasSession: true, RoleKnown: true, Role: role}
}

// UnknownPrincipal is a caller with a session whose role could not be read.
func UnknownPrincipal() Caller { return Caller{HasSession: true} }

// Request is the input to Evaluate. Path is the requested URL path without
// its query; it is also what the login page sends the caller back to.
type Request struct {
	Path string
}

// Evaluate decides on req for caller. It is pure: the same inputs always
// yield the same decision.
func (p *Policy) Evaluate(req Request, caller Caller) Decision {
	return p.Decide(p.Classify(req.Path), req, caller)
}

// Decide is Evaluate with a precomputed classification.
func (p *Policy) Decide(c Classification, req Request, caller Caller) Decision {
	switch c.Class {
	case ClassLogin:
		if caller.HasSession && caller.RoleKnown && caller.Role.Valid() {
			return redirect(p.HomeFor(caller.Role), ReasonSignedIn)
		}
		return allow(ReasonLoginPage)
	case ClassProtected:
		return p.decideProtected(c.Required, req, caller)
	default:
		return allow(ReasonPublic)
	}
}

func (p *Policy) decideProtected(required domainauth.Role, req Request, caller Caller) Decision {
	if !caller.HasSession {
		return redirect(LoginURL(p.LoginFor(required), req.Path), ReasonNoSession)
	}
	if !caller.RoleKnown || !caller.Role.Valid() {
		return redirect(p.GenericLogin(), ReasonUnknownPrincipal)
	}
	if caller.Role != required {
		return redirect(p.HomeFor(caller.Role), ReasonRoleMismatch)
	}
	return allow(ReasonAuthorized)
}

// LoginURL builds loginPath?redirectTo=returnTo. Slashes in the return path
// are kept literal so the common case reads /login?redirectTo=/dashboard.
func LoginURL(loginPath, returnTo string) string {
	if returnTo == "" {
		return loginPath
	}
	v := strings.ReplaceAll(url.QueryEscape(returnTo), "%2F", "/")
	return loginPath + "?" + RedirectParam + "=" + v
}
