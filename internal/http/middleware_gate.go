package httpx

import (
	"context"
	"net/http"

	"github.com/acadly/complaintdesk/internal/domain/access"
	"github.com/acadly/complaintdesk/internal/service"
)

// PageGate decides whether a page request may proceed.
type PageGate interface {
	Authorize(ctx context.Context, req access.Request, sessionToken string) service.GateResult
}

// Gate returns a middleware that runs every request through the access gate.
// Redirect decisions end the request with 302 Found; allowed requests continue
// with the resolved principal, if any, in the context.
func Gate(g PageGate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := g.Authorize(r.Context(), access.Request{Path: r.URL.Path}, sessionToken(r))

			if !res.Decision.Allowed() {
				w.Header().Set("Location", res.Decision.Location)
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetPrincipalInContext(r.Context(), res.Principal)))
		})
	}
}
