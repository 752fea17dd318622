package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/hauldesk/authcore/logging"
	"github.com/hauldesk/authcore/password"
	"github.com/hauldesk/authcore/token"
)

// Builder assembles a Service from configuration and collaborators.
//
// Builder instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	redis     *redis.Client
	users     UserStore
	mailer    Mailer
	verifier  IdentityVerifier
	auditSink AuditSink
	logger    logging.Logger

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder configuration. The config is cloned so the
// caller's copy can be mutated afterwards without effect.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the challenge store and the token
// revocation cache. Required.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the persistent account store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithMailer sets the outbound mail delivery hook. Optional; a nil mailer
// degrades to NoOpMailer, which silently discards mail.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithIdentityVerifier sets the federated identity verifier. Optional;
// without one, FederatedLogin returns ErrServiceNotReady.
func (b *Builder) WithIdentityVerifier(verifier IdentityVerifier) *Builder {
	b.verifier = verifier
	return b
}

// WithAuditSink sets the destination for audit events. Optional; without one
// the dispatcher stays off even when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. Optional; defaults to a no-op.
func (b *Builder) WithLogger(logger logging.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the assembled dependencies and returns a ready Service. A
// Builder can be used at most once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	svc := &Service{
		config:     cfg,
		users:      b.users,
		hasher:     hasher,
		tokens:     tokens,
		challenges: newChallengeEngine(newChallengeStore(b.redis), cfg.Challenge),
		revoked:    NewRedisRevocationCache(b.redis),
		mailer:     b.mailer,
		verifier:   b.verifier,
		logger:     b.logger,
		metrics:    NewMetrics(cfg.Metrics),
	}

	if svc.mailer == nil {
		svc.mailer = NoOpMailer{}
	}
	if svc.logger == nil {
		svc.logger = logging.NewNop()
	}
	if cfg.Audit.Enabled && b.auditSink != nil {
		svc.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	}

	b.built = true
	return svc, nil
}
