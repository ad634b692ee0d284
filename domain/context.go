package domain

import "context"

// Principal is the authenticated identity attached to a request after
// bearer-token validation. It is passed explicitly through the request
// context instead of living in any process-wide accessor.
type Principal struct {
	Username      string
	ClientAddress string
	Provider      Provider
}

type principalContextKey struct{}

// ContextWithPrincipal returns a child context carrying the principal.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}
