package streamauth

import (
	"context"
	"io"

	"github.com/atrisomya/streamauth/assets"
	"github.com/atrisomya/streamauth/internal/audit"
	"github.com/atrisomya/streamauth/store"
)

// UserIdentity is the full account record held by the credential store.
// PasswordHash and RefreshTokenHash are secret fields: they are excluded
// from JSON encoding and zeroed by [store.User.Sanitized] before a record
// leaves the engine.
type UserIdentity = store.User

// TokenPair carries one access/refresh token pair. Only the hash of the
// refresh half is ever persisted, attached to the user record.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// CredentialStore is the user-record collaborator the engine runs against.
// [store.NewRedis] is the provided implementation; tests supply stubs.
//
// Implementations report outcomes with the store package sentinels:
// [store.ErrNotFound], [store.ErrDuplicateIdentifier],
// [store.ErrRefreshHashMismatch], [store.ErrUnavailable].
type CredentialStore interface {
	// GetByID loads a user by its stable id.
	GetByID(ctx context.Context, id string) (*UserIdentity, error)
	// GetByUsernameOrEmail loads a user matching either handle. Username
	// matching is case-insensitive; records store the lowercase form.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*UserIdentity, error)
	// Create persists a new user, claiming the username and email
	// uniqueness indexes atomically.
	Create(ctx context.Context, user *UserIdentity) error
	// SetRefreshHash unconditionally stores the refresh-token hash.
	SetRefreshHash(ctx context.Context, userID string, hash [32]byte) error
	// RotateRefreshHash replaces the stored hash only when it still equals
	// provided. A mismatch means the presented token was superseded.
	RotateRefreshHash(ctx context.Context, userID string, provided, next [32]byte) error
	// ClearRefreshHash unsets the stored hash. Unset is distinct from an
	// empty value: a logged-out user has no hash field at all.
	ClearRefreshHash(ctx context.Context, userID string) error
	// Ping reports backend availability.
	Ping(ctx context.Context) error
}

// AssetSource is one uploadable file taken from a multipart request.
type AssetSource = assets.Source

// Uploader is the asset-upload collaborator used during registration.
// [assets.S3Uploader] is the provided implementation.
type Uploader = assets.Uploader

// RegisterInput is the input for [Engine.Register]. Avatar is mandatory,
// Cover is optional.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
	Avatar   *AssetSource
	Cover    *AssetSource
}

// LoginInput is the input for [Engine.Login]. At least one of Username or
// Email must be set.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult is returned by [Engine.Login]: the sanitized identity plus
// the freshly issued pair. The transport layer owns cookie placement.
type LoginResult struct {
	User   *UserIdentity
	Tokens TokenPair
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = audit.Event

// AuditSink receives [AuditEvent] values from the engine's dispatcher.
type AuditSink = audit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = audit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = audit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
