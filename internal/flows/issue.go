package flows

import (
	"context"

	"github.com/atrisomya/streamauth/store"
)

// Pair is one freshly minted access/refresh token pair.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// IssueStore is the store slice session issuance needs.
type IssueStore interface {
	GetByID(ctx context.Context, id string) (*store.User, error)
	SetRefreshHash(ctx context.Context, userID string, hash [32]byte) error
}

// IssueDeps captures session issuance dependencies.
type IssueDeps struct {
	Store        IssueStore
	IssueAccess  func(subjectID string) (string, error)
	IssueRefresh func(subjectID string) (string, error)
	HashToken    func(token string) [32]byte
}

// RunIssue establishes a session: it loads the identity, mints both
// tokens, and persists the refresh-token hash. This is the only place a
// session comes into existence; rotation replaces the hash via CAS
// instead. Store sentinels pass through unmapped.
func RunIssue(ctx context.Context, userID string, deps IssueDeps) (Pair, error) {
	if _, err := deps.Store.GetByID(ctx, userID); err != nil {
		return Pair{}, err
	}

	access, err := deps.IssueAccess(userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := deps.IssueRefresh(userID)
	if err != nil {
		return Pair{}, err
	}

	if err := deps.Store.SetRefreshHash(ctx, userID, deps.HashToken(refresh)); err != nil {
		return Pair{}, err
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}
