package engine

import "context"

type cascadeKey struct{}

// WithCascade returns a context carrying a cascade token.
func WithCascade(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, cascadeKey{}, token)
}

// CascadeFrom returns the cascade token carried by ctx, or "" outside a
// cascade.
func CascadeFrom(ctx context.Context) string {
	if token, ok := ctx.Value(cascadeKey{}).(string); ok {
		return token
	}
	return ""
}
