package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// ErrDuplicateIdentifier is returned by Create when the username or email
// index is already claimed.
var ErrDuplicateIdentifier = errors.New("duplicate username or email")

// ErrRefreshHashMismatch is returned by RotateRefreshHash when the stored
// hash does not equal the provided one, including when no hash is stored.
var ErrRefreshHashMismatch = errors.New("refresh hash mismatch")

// ErrUnavailable wraps Redis transport failures.
var ErrUnavailable = errors.New("redis unavailable")

const (
	fieldID           = "id"
	fieldUsername     = "username"
	fieldEmail        = "email"
	fieldFullName     = "full_name"
	fieldAvatarURL    = "avatar_url"
	fieldCoverURL     = "cover_url"
	fieldPasswordHash = "password_hash"
	fieldRefreshHash  = "refresh_hash"
	fieldCreatedAt    = "created_at"
)

const (
	createStatusDuplicate int64 = 0
	createStatusCreated   int64 = 1
)

// createUserScript claims both uniqueness indexes and writes the record in
// one atomic step; a half-claimed index can never be observed.
const createUserScript = `
if redis.call("EXISTS", KEYS[2]) == 1 or redis.call("EXISTS", KEYS[3]) == 1 then
  return 0
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("SET", KEYS[3], ARGV[1])
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
return 1
`

var createUserLua = redis.NewScript(createUserScript)

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// rotateRefreshScript is the compare-and-swap at the heart of rotation:
// the stored hash is replaced only when it still equals the provided one,
// so two near-simultaneous rotations cannot both match the same value.
const rotateRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local current = redis.call("HGET", KEYS[1], ARGV[1])
if not current or current ~= ARGV[2] then
  return 1
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
return 2
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// Redis is the production credential store. User records live in one hash
// per user plus two unique-index keys (lowercased username and email).
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a credential store backed by the given Redis client.
// prefix sets the key namespace.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (s *Redis) userKey(id string) string {
	return s.prefix + ":user:" + id
}

func (s *Redis) usernameKey(username string) string {
	return s.prefix + ":idx:username:" + strings.ToLower(username)
}

func (s *Redis) emailKey(email string) string {
	return s.prefix + ":idx:email:" + strings.ToLower(email)
}

// Create persists a new user and claims both uniqueness indexes, failing
// with [ErrDuplicateIdentifier] when either handle is taken.
func (s *Redis) Create(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Username == "" || user.Email == "" {
		return errors.New("incomplete user record")
	}

	args := []interface{}{
		user.ID,
		fieldID, user.ID,
		fieldUsername, user.Username,
		fieldEmail, user.Email,
		fieldFullName, user.FullName,
		fieldAvatarURL, user.AvatarURL,
		fieldCoverURL, user.CoverImageURL,
		fieldPasswordHash, user.PasswordHash,
		fieldCreatedAt, strconv.FormatInt(user.CreatedAt, 10),
	}

	status, err := createUserLua.Run(
		ctx,
		s.client,
		[]string{s.userKey(user.ID), s.usernameKey(user.Username), s.emailKey(user.Email)},
		args...,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch status {
	case createStatusCreated:
		return nil
	case createStatusDuplicate:
		return ErrDuplicateIdentifier
	default:
		return fmt.Errorf("%w: unknown create script status %d", ErrUnavailable, status)
	}
}

// GetByID loads a user record by id.
func (s *Redis) GetByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	fields, err := s.client.HGetAll(ctx, s.userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	return decodeUser(fields)
}

// GetByUsernameOrEmail resolves either handle through its index key, then
// loads the record. Username matching is case-insensitive.
func (s *Redis) GetByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	if username != "" {
		id, err := s.client.Get(ctx, s.usernameKey(username)).Result()
		if err == nil {
			return s.GetByID(ctx, id)
		}
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if email != "" {
		id, err := s.client.Get(ctx, s.emailKey(email)).Result()
		if err == nil {
			return s.GetByID(ctx, id)
		}
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return nil, ErrNotFound
}

// SetRefreshHash unconditionally stores the refresh-token hash. Used at
// session issuance; rotation goes through [Redis.RotateRefreshHash].
func (s *Redis) SetRefreshHash(ctx context.Context, userID string, hash [32]byte) error {
	exists, err := s.client.Exists(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	err = s.client.HSet(ctx, s.userKey(userID), fieldRefreshHash, hex.EncodeToString(hash[:])).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RotateRefreshHash atomically swaps the stored hash from provided to
// next. [ErrRefreshHashMismatch] signals a superseded token.
func (s *Redis) RotateRefreshHash(ctx context.Context, userID string, provided, next [32]byte) error {
	status, err := rotateRefreshLua.Run(
		ctx,
		s.client,
		[]string{s.userKey(userID)},
		fieldRefreshHash,
		hex.EncodeToString(provided[:]),
		hex.EncodeToString(next[:]),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch status {
	case rotateStatusRotated:
		return nil
	case rotateStatusNotFound:
		return ErrNotFound
	case rotateStatusMismatch:
		return ErrRefreshHashMismatch
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrUnavailable, status)
	}
}

// ClearRefreshHash unsets the stored hash (field delete, not empty value).
// Clearing an already-cleared record is a no-op.
func (s *Redis) ClearRefreshHash(ctx context.Context, userID string) error {
	if err := s.client.HDel(ctx, s.userKey(userID), fieldRefreshHash).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping reports Redis availability.
func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func decodeUser(fields map[string]string) (*User, error) {
	createdAt, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: %v", err)
	}

	return &User{
		ID:            fields[fieldID],
		Username:      fields[fieldUsername],
		Email:         fields[fieldEmail],
		FullName:      fields[fieldFullName],
		AvatarURL:     fields[fieldAvatarURL],
		CoverImageURL: fields[fieldCoverURL],
		PasswordHash:  fields[fieldPasswordHash],
		RefreshHash:   fields[fieldRefreshHash],
		CreatedAt:     createdAt,
	}, nil
}
