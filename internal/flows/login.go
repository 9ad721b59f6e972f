package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/atrisomya/streamauth/store"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureMissingFields
	LoginFailureNotFound
	LoginFailureBadPassword
	LoginFailureIssue
	LoginFailureStore
)

// LoginOutcome carries either the sanitized identity plus issued pair, or
// failure metadata.
type LoginOutcome struct {
	Failure LoginFailureKind
	Err     error
	User    *store.User
	Pair    Pair
}

// LoginStore is the store slice login needs.
type LoginStore interface {
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*store.User, error)
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Store          LoginStore
	VerifyPassword func(password, encodedHash string) (bool, error)
	IssuePair      func(ctx context.Context, userID string) (Pair, error)
}

// RunLogin authenticates by username or email plus password and, on
// success, issues a fresh token pair through the session issuer.
func RunLogin(ctx context.Context, username, email, password string, deps LoginDeps) LoginOutcome {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.TrimSpace(email)

	if username == "" && email == "" {
		return LoginOutcome{Failure: LoginFailureMissingFields}
	}
	if password == "" {
		return LoginOutcome{Failure: LoginFailureMissingFields}
	}

	user, err := deps.Store.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginOutcome{Failure: LoginFailureNotFound, Err: err}
		}
		return LoginOutcome{Failure: LoginFailureStore, Err: err}
	}

	ok, err := deps.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// a hash that cannot be parsed is a corrupt record, not a bad guess
		return LoginOutcome{Failure: LoginFailureStore, Err: err, User: user}
	}
	if !ok {
		return LoginOutcome{Failure: LoginFailureBadPassword, User: user}
	}

	pair, err := deps.IssuePair(ctx, user.ID)
	if err != nil {
		return LoginOutcome{Failure: LoginFailureIssue, Err: err, User: user}
	}

	return LoginOutcome{User: user.Sanitized(), Pair: pair}
}
