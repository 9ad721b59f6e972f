package streamauth

import (
	"errors"
	"time"
)

// Config carries every tunable the engine reads. It is validated once in
// [Builder.Build] and treated as read-only afterwards; token secrets and
// TTLs are process-wide and never re-read at request time.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Store    StoreConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig holds the signing secret and TTL for each token kind. The
// two kinds never share a secret.
type TokenConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Issuer        string
}

// PasswordConfig holds the argon2id parameters. MinLength is an opt-in
// password length floor; zero, the default, accepts any non-empty
// password.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

// StoreConfig holds credential-store settings.
type StoreConfig struct {
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: 15m access tokens,
// 7d refresh tokens, argon2id at 64 MB. Secrets must still be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "streamauth",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Store: StoreConfig{
			RedisPrefix: "sa",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if len(c.Token.AccessSecret) < 32 {
		return errors.New("access secret must be at least 32 bytes")
	}
	if len(c.Token.RefreshSecret) < 32 {
		return errors.New("refresh secret must be at least 32 bytes")
	}
	if string(c.Token.AccessSecret) == string(c.Token.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("invalid TTL configuration")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if c.Store.RedisPrefix == "" {
		return errors.New("redis prefix must not be empty")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
