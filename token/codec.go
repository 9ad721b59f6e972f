package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects which half of a token pair a codec operation applies to.
// The kind is embedded in the signed claims, so an access token can never
// be presented where a refresh token is expected even if the secrets were
// ever reused across kinds.
type Kind string

const (
	// KindAccess is the short-lived request credential.
	KindAccess Kind = "access"
	// KindRefresh is the long-lived rotation credential.
	KindRefresh Kind = "refresh"
)

// ErrExpired marks a well-formed token past its expiry.
var ErrExpired = errors.New("token expired")

// ErrInvalid marks a malformed token, a bad signature, or a kind mismatch.
var ErrInvalid = errors.New("token invalid")

// Config defines the secret and TTL pair for one token kind. Both kinds
// must be configured with distinct secrets.
type Config struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Codec signs and verifies the HS256 tokens that carry a subject identity
// claim. It is immutable after construction and safe for concurrent use.
type Codec struct {
	config Config
}

type claims struct {
	Kind Kind `json:"tkn"`
	jwt.RegisteredClaims
}

// NewCodec validates cfg and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both token secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("token secrets must differ per kind")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Issue mints a signed token of the given kind for subjectID, expiring
// after the kind's configured TTL.
func (c *Codec) Issue(kind Kind, subjectID string) (string, error) {
	secret, ttl, err := c.kindParams(kind)
	if err != nil {
		return "", err
	}
	if subjectID == "" {
		return "", errors.New("subject id required")
	}

	// the jti makes every mint distinct even within one clock second,
	// which rotation depends on to tell the next token from the current
	now := time.Now()
	cl := claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(secret)
}

// Verify checks signature, expiry, issuer, and kind, returning the subject
// id. Failures are classified as [ErrExpired] or [ErrInvalid] and nothing
// finer: callers treat both as unauthenticated.
func (c *Codec) Verify(tokenStr string, kind Kind) (string, error) {
	secret, _, err := c.kindParams(kind)
	if err != nil {
		return "", err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cl, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalid
	}
	if cl.Kind != kind {
		return "", fmt.Errorf("%w: wrong token kind", ErrInvalid)
	}
	if cl.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalid)
	}

	return cl.Subject, nil
}

func (c *Codec) kindParams(kind Kind) ([]byte, time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.config.AccessSecret, c.config.AccessTTL, nil
	case KindRefresh:
		return c.config.RefreshSecret, c.config.RefreshTTL, nil
	default:
		return nil, 0, errors.New("unsupported token kind")
	}
}
