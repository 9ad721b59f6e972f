package flows

import "context"

// LogoutStore is the store slice logout needs.
type LogoutStore interface {
	ClearRefreshHash(ctx context.Context, userID string) error
}

// RunLogout unsets the stored refresh-token hash. It is idempotent: a
// second logout for the same user is a no-op. Cookie clearing is the
// transport layer's job and happens regardless of this result.
func RunLogout(ctx context.Context, userID string, st LogoutStore) error {
	return st.ClearRefreshHash(ctx, userID)
}
