package streamauth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/atrisomya/streamauth/internal/audit"
	"github.com/atrisomya/streamauth/internal/flows"
	"github.com/atrisomya/streamauth/internal/metrics"
	"github.com/atrisomya/streamauth/password"
	"github.com/atrisomya/streamauth/store"
	"github.com/atrisomya/streamauth/token"
)

// Engine is the credential/session engine. It is safe for concurrent use
// after construction through [Builder.Build]; every method is one linear
// request-scoped unit of work.
type Engine struct {
	config   Config
	store    CredentialStore
	codec    *token.Codec
	hasher   *password.Argon2
	uploader Uploader
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

// MetricsSnapshot is a point-in-time copy of the engine's counters.
type MetricsSnapshot = metrics.Snapshot

// Register creates a new user identity: validation, uniqueness, media
// upload, creation, and a sanitized confirmation re-read.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*UserIdentity, error) {
	if e == nil || e.store == nil || e.hasher == nil || e.uploader == nil {
		return nil, ErrEngineNotReady
	}

	outcome := flows.RunRegister(ctx, flows.RegisterRequest{
		FullName: in.FullName,
		Email:    in.Email,
		Username: in.Username,
		Password: in.Password,
		Avatar:   in.Avatar,
		Cover:    in.Cover,
	}, flows.RegisterDeps{
		Store:        e.store,
		Upload:       e.uploader.Upload,
		HashPassword: e.hasher.Hash,
		NewID:        uuid.NewString,
	})

	switch outcome.Failure {
	case flows.RegisterFailureNone:
		e.metrics.Inc(metrics.MetricRegisterSuccess)
		e.emitAudit(ctx, auditEventRegisterSuccess, true, outcome.User.ID, nil, func() map[string]string {
			return map[string]string{"username": outcome.User.Username}
		})
		return outcome.User, nil
	case flows.RegisterFailureMissingFields:
		e.metrics.Inc(metrics.MetricRegisterFailure)
		return nil, ErrFieldsRequired
	case flows.RegisterFailureDuplicate:
		e.metrics.Inc(metrics.MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrUserExists, func() map[string]string {
			return map[string]string{"username": in.Username, "reason": "duplicate"}
		})
		return nil, ErrUserExists
	case flows.RegisterFailureAvatarMissing, flows.RegisterFailureAvatarUpload:
		e.metrics.Inc(metrics.MetricRegisterFailure)
		e.warn("registration avatar unavailable", outcome.Err)
		return nil, ErrAvatarRequired
	case flows.RegisterFailureHash:
		e.metrics.Inc(metrics.MetricRegisterFailure)
		e.warn("password not hashable", outcome.Err)
		return nil, ErrFieldsRequired
	case flows.RegisterFailureConfirm:
		e.metrics.Inc(metrics.MetricRegisterFailure)
		e.warn("registration confirmation re-read failed", outcome.Err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", outcome.Err, nil)
		return nil, ErrRegistrationIncomplete
	default:
		e.metrics.Inc(metrics.MetricRegisterFailure)
		e.warn("registration failed", outcome.Err)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", outcome.Err, nil)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, outcome.Err)
	}
}

// Login authenticates by username or email plus password and issues a
// token pair. The transport layer owns cookie placement.
func (e *Engine) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if e == nil || e.store == nil || e.hasher == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	outcome := flows.RunLogin(ctx, in.Username, in.Email, in.Password, flows.LoginDeps{
		Store:          e.store,
		VerifyPassword: e.hasher.Verify,
		IssuePair: func(ctx context.Context, userID string) (flows.Pair, error) {
			pair, err := e.Issue(ctx, userID)
			return flows.Pair(pair), err
		},
	})

	switch outcome.Failure {
	case flows.LoginFailureNone:
		e.metrics.Inc(metrics.MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, outcome.User.ID, nil, nil)
		return &LoginResult{User: outcome.User, Tokens: TokenPair(outcome.Pair)}, nil
	case flows.LoginFailureMissingFields:
		e.metrics.Inc(metrics.MetricLoginFailure)
		return nil, ErrFieldsRequired
	case flows.LoginFailureNotFound:
		e.metrics.Inc(metrics.MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrUserNotFound, func() map[string]string {
			identifier := in.Username
			if identifier == "" {
				identifier = in.Email
			}
			return map[string]string{"identifier": identifier, "reason": "user_not_found"}
		})
		return nil, ErrUserNotFound
	case flows.LoginFailureBadPassword:
		e.metrics.Inc(metrics.MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, outcome.User.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		return nil, ErrInvalidCredentials
	default:
		e.metrics.Inc(metrics.MetricLoginFailure)
		e.warn("login failed", outcome.Err)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", outcome.Err, nil)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, outcome.Err)
	}
}

// Issue establishes a session for an already-verified identity: it mints
// the pair and persists the refresh-token hash. An absent identity is an
// internal inconsistency here since Issue only runs post-authentication.
func (e *Engine) Issue(ctx context.Context, userID string) (TokenPair, error) {
	if e == nil || e.store == nil || e.codec == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	pair, err := flows.RunIssue(ctx, userID, flows.IssueDeps{
		Store: e.store,
		IssueAccess: func(subjectID string) (string, error) {
			return e.codec.Issue(token.KindAccess, subjectID)
		},
		IssueRefresh: func(subjectID string) (string, error) {
			return e.codec.Issue(token.KindRefresh, subjectID)
		},
		HashToken: hashToken,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, ErrUserNotFound
		}
		return TokenPair{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return TokenPair(pair), nil
}

// Refresh rotates a token pair. Every failure surfaces as
// [ErrUnauthorized]; the original cause is logged and audited, and a
// stored-hash mismatch additionally records reuse detection.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if e == nil || e.store == nil || e.codec == nil {
		return TokenPair{}, ErrEngineNotReady
	}

	outcome := flows.RunRefresh(ctx, refreshToken, flows.RefreshDeps{
		Store: e.store,
		VerifyRefresh: func(tokenStr string) (string, error) {
			return e.codec.Verify(tokenStr, token.KindRefresh)
		},
		MintAccess: func(subjectID string) (string, error) {
			return e.codec.Issue(token.KindAccess, subjectID)
		},
		MintRefresh: func(subjectID string) (string, error) {
			return e.codec.Issue(token.KindRefresh, subjectID)
		},
		HashToken: hashToken,
	})

	switch outcome.Failure {
	case flows.RefreshFailureNone:
		e.metrics.Inc(metrics.MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, outcome.UserID, nil, nil)
		return TokenPair(outcome.Pair), nil
	case flows.RefreshFailureMismatch:
		e.metrics.Inc(metrics.MetricRefreshReuseDetected)
		e.warn("refresh rotation mismatch", ErrRefreshReuse)
		e.emitAudit(ctx, auditEventRefreshReuse, false, outcome.UserID, ErrRefreshReuse, nil)
		return TokenPair{}, ErrUnauthorized
	default:
		e.metrics.Inc(metrics.MetricRefreshFailure)
		e.warn("refresh rejected", outcome.Err)
		e.emitAudit(ctx, auditEventRefreshFailure, false, outcome.UserID, outcome.Err, nil)
		return TokenPair{}, ErrUnauthorized
	}
}

// Logout clears the stored refresh-token hash, ending the session. The
// caller clears both cookies regardless of this result.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := flows.RunLogout(ctx, userID, e.store); err != nil {
		e.warn("logout failed", err)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(metrics.MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)
	return nil
}

// Authenticate verifies an access token and resolves the sanitized
// identity behind it. It is a pure gate: no state is mutated, and every
// failure is [ErrUnauthorized].
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*UserIdentity, error) {
	if e == nil || e.store == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		e.metrics.Inc(metrics.MetricGateDenied)
		return nil, ErrUnauthorized
	}

	subjectID, err := e.codec.Verify(accessToken, token.KindAccess)
	if err != nil {
		e.metrics.Inc(metrics.MetricGateDenied)
		e.warn("access token rejected", err)
		e.emitAudit(ctx, auditEventGateDenied, false, "", err, nil)
		return nil, ErrUnauthorized
	}

	user, err := e.store.GetByID(ctx, subjectID)
	if err != nil {
		e.metrics.Inc(metrics.MetricGateDenied)
		e.warn("access token subject unresolved", err)
		e.emitAudit(ctx, auditEventGateDenied, false, subjectID, err, nil)
		return nil, ErrUnauthorized
	}

	e.metrics.Inc(metrics.MetricGateAllowed)
	return user.Sanitized(), nil
}

// Ping reports credential-store availability.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// Close flushes the audit dispatcher. The engine is unusable afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

func (e *Engine) warn(msg string, cause error) {
	if e.log == nil {
		return
	}
	e.log.WithError(cause).Warn(msg)
}

func hashToken(tokenStr string) [32]byte {
	return sha256.Sum256([]byte(tokenStr))
}
