package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atrisomya/streamauth/assets"
	"github.com/atrisomya/streamauth/store"
)

// RegisterFailureKind classifies registration failures for root-level
// mapping to public sentinel errors.
type RegisterFailureKind int

const (
	RegisterFailureNone RegisterFailureKind = iota
	RegisterFailureMissingFields
	RegisterFailureDuplicate
	RegisterFailureAvatarMissing
	RegisterFailureAvatarUpload
	RegisterFailureHash
	RegisterFailureCreate
	RegisterFailureConfirm
	RegisterFailureStore
)

// RegisterRequest is the flow-local registration input.
type RegisterRequest struct {
	FullName string
	Email    string
	Username string
	Password string
	Avatar   *assets.Source
	Cover    *assets.Source
}

// RegisterOutcome carries either the sanitized created user or failure
// metadata.
type RegisterOutcome struct {
	Failure RegisterFailureKind
	Err     error
	User    *store.User
}

// RegisterStore is the store slice registration needs.
type RegisterStore interface {
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*store.User, error)
	Create(ctx context.Context, user *store.User) error
	GetByID(ctx context.Context, id string) (*store.User, error)
}

// RegisterDeps captures registration dependencies.
type RegisterDeps struct {
	Store        RegisterStore
	Upload       func(ctx context.Context, src assets.Source) (string, error)
	HashPassword func(password string) (string, error)
	NewID        func() string
	Now          func() time.Time
}

// RunRegister validates input, enforces uniqueness, uploads media, creates
// the record, and confirms creation with a sanitized re-read. The avatar
// is mandatory: a missing source and a failed avatar upload are both
// treated as caller errors, not internal ones.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) RegisterOutcome {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if strings.TrimSpace(req.FullName) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Username) == "" ||
		req.Password == "" {
		return RegisterOutcome{Failure: RegisterFailureMissingFields}
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.TrimSpace(req.Email)

	existing, err := deps.Store.GetByUsernameOrEmail(ctx, username, email)
	switch {
	case err == nil && existing != nil:
		return RegisterOutcome{Failure: RegisterFailureDuplicate}
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return RegisterOutcome{Failure: RegisterFailureStore, Err: err}
	}

	if req.Avatar == nil {
		return RegisterOutcome{Failure: RegisterFailureAvatarMissing}
	}

	avatarURL, err := deps.Upload(ctx, *req.Avatar)
	if err != nil || avatarURL == "" {
		// provider failure mirrors "avatar missing" semantics for the caller
		return RegisterOutcome{Failure: RegisterFailureAvatarUpload, Err: err}
	}

	coverURL := ""
	if req.Cover != nil {
		if url, err := deps.Upload(ctx, *req.Cover); err == nil {
			coverURL = url
		}
	}

	passwordHash, err := deps.HashPassword(req.Password)
	if err != nil {
		return RegisterOutcome{Failure: RegisterFailureHash, Err: err}
	}

	user := &store.User{
		ID:            deps.NewID(),
		Username:      username,
		Email:         email,
		FullName:      strings.TrimSpace(req.FullName),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  passwordHash,
		CreatedAt:     deps.Now().Unix(),
	}

	if err := deps.Store.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateIdentifier) {
			return RegisterOutcome{Failure: RegisterFailureDuplicate, Err: err}
		}
		return RegisterOutcome{Failure: RegisterFailureCreate, Err: err}
	}

	created, err := deps.Store.GetByID(ctx, user.ID)
	if err != nil || created == nil {
		return RegisterOutcome{Failure: RegisterFailureConfirm, Err: err}
	}

	return RegisterOutcome{User: created.Sanitized()}
}
