package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/acadly/complaintdesk/internal/domain/access"
	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
	"github.com/acadly/complaintdesk/internal/observability/metrics"
	"github.com/acadly/complaintdesk/internal/ports"
)

var (
	// ErrNoSession is returned by ResolvePrincipal when the token does not
	// name a live session.
	ErrNoSession = errors.New("no session")
)

// AccessGateOptions groups dependencies for AccessGate.
type AccessGateOptions struct {
	Policy    *access.Policy
	Sessions  ports.SessionStore
	Directory ports.UserDirectory
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// AccessGate decides whether a page request passes, redirects to a login
// page, or redirects to the caller's home. It only reads the session store
// and the directory and is safe for concurrent use.
type AccessGate struct {
	policy    *access.Policy
	sessions  ports.SessionStore
	directory ports.UserDirectory
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccessGate constructs an AccessGate. A nil Policy selects the default
// route and redirect tables.
func NewAccessGate(opts AccessGateOptions) *AccessGate {
	policy := opts.Policy
	if policy == nil {
		policy = access.DefaultPolicy()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AccessGate{
		policy:    policy,
		sessions:  opts.Sessions,
		directory: opts.Directory,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "access_gate"),
		now:       now,
	}
}

// Policy returns the tables the gate evaluates against.
func (g *AccessGate) Policy() *access.Policy { return g.policy }

// GateResult is the decision for one request. Principal is set whenever the
// caller's session and role both resolved, including on redirects.
type GateResult struct {
	Decision  access.Decision
	Principal *domainauth.Principal
}

// Authorize evaluates req for the holder of sessionToken. Public paths are
// decided without touching the session store. Failures of the session store
// count as no session and failures of the directory as an unknown principal,
// so Authorize never returns an error.
func (g *AccessGate) Authorize(ctx context.Context, req access.Request, sessionToken string) GateResult {
	class := g.policy.Classify(req.Path)

	var (
		caller    = access.Anonymous()
		principal *domainauth.Principal
	)
	if class.Class != access.ClassPublic {
		caller, principal = g.resolveCaller(ctx, sessionToken)
	}

	decision := g.policy.Decide(class, req, caller)
	g.metrics.RecordGateDecision(decision.Outcome.String(), string(decision.Reason))
	if !decision.Allowed() {
		g.logger.DebugContext(ctx, "gate redirect",
			"path", req.Path,
			"reason", decision.Reason,
			"location", decision.Location,
		)
	}
	return GateResult{Decision: decision, Principal: principal}
}

func (g *AccessGate) resolveCaller(ctx context.Context, token string) (access.Caller, *domainauth.Principal) {
	sess, ok := g.currentSession(ctx, token)
	if !ok {
		return access.Anonymous(), nil
	}
	role, err := g.directory.RoleOf(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, ports.ErrUnknownPrincipal) {
			g.logger.WarnContext(ctx, "role lookup failed", "user_id", sess.UserID, "error", err)
		}
		return access.UnknownPrincipal(), nil
	}
	if !role.Valid() {
		return access.UnknownPrincipal(), nil
	}
	return access.SignedIn(role), &domainauth.Principal{UserID: sess.UserID, Email: sess.Email, Role: role}
}

func (g *AccessGate) currentSession(ctx context.Context, token string) (domainauth.Session, bool) {
	if token == "" {
		return domainauth.Session{}, false
	}
	sess, err := g.sessions.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ports.ErrSessionNotFound) {
			g.logger.WarnContext(ctx, "session lookup failed", "error", err)
		}
		return domainauth.Session{}, false
	}
	if sess.Expired(g.now()) {
		return domainauth.Session{}, false
	}
	return sess, true
}

// ResolvePrincipal returns the signed-in caller behind sessionToken for API
// requests. ErrNoSession means no live session; ports.ErrUnknownPrincipal
// means the session's user has no valid directory role.
func (g *AccessGate) ResolvePrincipal(ctx context.Context, sessionToken string) (*domainauth.Principal, error) {
	sess, ok := g.currentSession(ctx, sessionToken)
	if !ok {
		return nil, ErrNoSession
	}
	role, err := g.directory.RoleOf(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ports.ErrUnknownPrincipal
	}
	return &domainauth.Principal{UserID: sess.UserID, Email: sess.Email, Role: role}, nil
}
