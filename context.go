package streamauth

import "context"

type identityContextKey struct{}
type clientIPContextKey struct{}

// WithIdentity attaches a sanitized identity to ctx for the lifetime of a
// request. The auth gate calls this; handlers read it back with
// [IdentityFromContext]. Identities are never persisted from context.
func WithIdentity(ctx context.Context, user *UserIdentity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, user)
}

// IdentityFromContext returns the identity attached by the auth gate.
func IdentityFromContext(ctx context.Context) (*UserIdentity, bool) {
	user, ok := ctx.Value(identityContextKey{}).(*UserIdentity)
	return user, ok
}

// WithClientIP attaches the caller's IP address to ctx. The engine uses
// it for audit events only.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
