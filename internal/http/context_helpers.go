package httpx

import (
	"context"

	domainauth "github.com/acadly/complaintdesk/internal/domain/auth"
)

// principalKey is an unexported context key type to avoid collisions across packages.
type principalKey struct{}

// SetPrincipalInContext returns a child context that carries p.
// If p is nil, the original ctx is returned unchanged.
func SetPrincipalInContext(ctx context.Context, p *domainauth.Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the signed-in caller and whether one is present.
func PrincipalFromContext(ctx context.Context) (*domainauth.Principal, bool) {
	if p, ok := ctx.Value(principalKey{}).(*domainauth.Principal); ok && p != nil {
		return p, true
	}
	return nil, false
}
