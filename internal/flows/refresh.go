package flows

import (
	"context"
	"errors"

	"github.com/atrisomya/streamauth/store"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping. Every kind surfaces to the caller as unauthorized; the kind
// drives logging, metrics, and reuse-detection auditing only.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureDecode
	RefreshFailureSubjectNotFound
	RefreshFailureMismatch
	RefreshFailureMint
	RefreshFailureStore
)

// RefreshOutcome carries either the rotated pair or failure metadata.
type RefreshOutcome struct {
	Failure RefreshFailureKind
	Err     error
	UserID  string
	Pair    Pair
}

// RefreshStore is the store slice rotation needs.
type RefreshStore interface {
	GetByID(ctx context.Context, id string) (*store.User, error)
	RotateRefreshHash(ctx context.Context, userID string, provided, next [32]byte) error
}

// RefreshDeps captures refresh rotation dependencies.
type RefreshDeps struct {
	Store         RefreshStore
	VerifyRefresh func(tokenStr string) (string, error)
	MintAccess    func(subjectID string) (string, error)
	MintRefresh   func(subjectID string) (string, error)
	HashToken     func(token string) [32]byte
}

// RunRefresh validates an incoming refresh token against stored state and
// rotates the pair. The next pair is minted before the swap so the store
// update is a single compare-and-swap: the presented hash must still be
// the stored one, which is what detects reuse of a superseded token.
func RunRefresh(ctx context.Context, tokenStr string, deps RefreshDeps) RefreshOutcome {
	if tokenStr == "" {
		return RefreshOutcome{Failure: RefreshFailureMissing}
	}

	subjectID, err := deps.VerifyRefresh(tokenStr)
	if err != nil {
		return RefreshOutcome{Failure: RefreshFailureDecode, Err: err}
	}

	if _, err := deps.Store.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return RefreshOutcome{Failure: RefreshFailureSubjectNotFound, Err: err, UserID: subjectID}
		}
		return RefreshOutcome{Failure: RefreshFailureStore, Err: err, UserID: subjectID}
	}

	access, err := deps.MintAccess(subjectID)
	if err != nil {
		return RefreshOutcome{Failure: RefreshFailureMint, Err: err, UserID: subjectID}
	}
	refresh, err := deps.MintRefresh(subjectID)
	if err != nil {
		return RefreshOutcome{Failure: RefreshFailureMint, Err: err, UserID: subjectID}
	}

	err = deps.Store.RotateRefreshHash(ctx, subjectID, deps.HashToken(tokenStr), deps.HashToken(refresh))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRefreshHashMismatch):
			return RefreshOutcome{Failure: RefreshFailureMismatch, Err: err, UserID: subjectID}
		case errors.Is(err, store.ErrNotFound):
			return RefreshOutcome{Failure: RefreshFailureSubjectNotFound, Err: err, UserID: subjectID}
		default:
			return RefreshOutcome{Failure: RefreshFailureStore, Err: err, UserID: subjectID}
		}
	}

	return RefreshOutcome{
		UserID: subjectID,
		Pair:   Pair{AccessToken: access, RefreshToken: refresh},
	}
}
