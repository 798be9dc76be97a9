package goSeal

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goSeal/integrity"
	"github.com/MrEthical07/goSeal/internal/audit"
	"github.com/MrEthical07/goSeal/internal/rate"
	"github.com/MrEthical07/goSeal/jwt"
	"github.com/MrEthical07/goSeal/password"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. A Builder can be used for exactly one Build.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	principals PrincipalStore
	auditSink  AuditSink
	logger     *zap.Logger

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used for rate limiting. It is required only when
// RateLimit.Enabled is true.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.principals = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the Engine logger. Without it the Engine logs nothing.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.principals == nil {
		return nil, errors.New("principal store required")
	}
	if cfg.RateLimit.Enabled && b.redis == nil {
		return nil, errors.New("RateLimit requires redis client")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- TOKENS --------
	jm, err := jwt.NewManager(cfg.Token.managerConfig())
	if err != nil {
		return nil, err
	}
	verifier, err := integrity.NewVerifier(jm.ContentSigner())
	if err != nil {
		return nil, err
	}

	// -------- PASSWORDS --------
	ph, err := password.NewArgon2(cfg.Password.hasherConfig())
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	engine := &Engine{
		config:     cfg,
		tokens:     jm,
		content:    verifier,
		hasher:     ph,
		principals: b.principals,
		logger:     logger.Named("goseal"),
		metrics:    NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	// -------- RATE LIMITING --------
	if cfg.RateLimit.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.RateLimit.RedisPrefix,
			EnableIPThrottle: cfg.RateLimit.EnableIPThrottle,
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			LoginCooldown:    cfg.RateLimit.LoginCooldown,
			MaxRequests:      cfg.RateLimit.MaxRequests,
			RequestWindow:    cfg.RateLimit.RequestWindow,
		})
	}

	b.built = true

	return engine, nil
}
