package streamauth

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/atrisomya/streamauth/internal/audit"
	"github.com/atrisomya/streamauth/internal/metrics"
	"github.com/atrisomya/streamauth/password"
	"github.com/atrisomya/streamauth/store"
	"github.com/atrisomya/streamauth/token"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until the first Engine method call.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	credStore CredentialStore
	uploader  Uploader
	sink      AuditSink
	log       *logrus.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default credential
// store. Ignored when [Builder.WithStore] is also called.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a custom credential store, replacing the Redis one.
func (b *Builder) WithStore(cs CredentialStore) *Builder {
	b.credStore = cs
	return b
}

// WithUploader supplies the asset-upload collaborator used by Register.
func (b *Builder) WithUploader(u Uploader) *Builder {
	b.uploader = u
	return b
}

// WithAuditSink supplies the audit sink. Defaults to a no-op sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger supplies the logger used for internal failure causes.
func (b *Builder) WithLogger(log *logrus.Logger) *Builder {
	b.log = log
	return b
}

// Build validates the configuration and wires the engine. A Builder can
// build at most once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	credStore := b.credStore
	if credStore == nil {
		if b.redis == nil {
			return nil, errors.New("credential store or redis client required")
		}
		credStore = store.NewRedis(b.redis, cfg.Store.RedisPrefix)
	}

	if b.uploader == nil {
		return nil, errors.New("asset uploader required")
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cfg.Token.AccessSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshSecret: cfg.Token.RefreshSecret,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		store:    credStore,
		codec:    codec,
		hasher:   hasher,
		uploader: b.uploader,
		metrics:  metrics.New(cfg.Metrics.Enabled),
		log:      b.log,
	}
	if cfg.Audit.Enabled {
		engine.audit = audit.NewDispatcher(audit.DispatcherConfig{
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.sink)
	}

	b.built = true

	return engine, nil
}
