package goSeal

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSeal/jwt"
	"github.com/MrEthical07/goSeal/password"
	"github.com/MrEthical07/goSeal/signer"
)

// Config is the Engine configuration. It is copied by Builder.WithConfig and
// never mutated afterwards.
type Config struct {
	Token     TokenConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls issuance and verification of outer tokens.
// AuthKey and ContentKey must each be at least 32 bytes and must differ.
type TokenConfig struct {
	TTL        time.Duration
	AuthKey    []byte
	ContentKey []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	// Now overrides the clock used for issuance and expiry; nil means time.Now.
	Now func() time.Time
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters and the length policy.
type PasswordConfig struct {
	Memory         uint32
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	MaxLength      int
	UpgradeOnLogin bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig enables Redis fixed-window throttling. When Enabled is
// false no Redis client is required and every check passes.
type RateLimitConfig struct {
	Enabled          bool
	RedisPrefix      string
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	// MaxRequests per RequestWindow for AllowRequest; 0 disables it.
	MaxRequests   int
	RequestWindow time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the verification latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a Config with safe defaults. Keys are left empty and
// must be supplied by the caller.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		Token: TokenConfig{
			TTL:    jwt.DefaultTTL,
			Leeway: 0,
		},
		Password: PasswordConfig{
			Memory:         pw.Memory,
			Time:           pw.Time,
			Parallelism:    pw.Parallelism,
			SaltLength:     pw.SaltLength,
			KeyLength:      pw.KeyLength,
			MinLength:      pw.MinPasswordBytes,
			MaxLength:      pw.MaxPasswordBytes,
			UpgradeOnLogin: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:          false,
			RedisPrefix:      "gs",
			EnableIPThrottle: true,
			MaxLoginAttempts: 5,
			LoginCooldown:    15 * time.Minute,
			MaxRequests:      120,
			RequestWindow:    time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AuthKey = cloneBytes(cfg.Token.AuthKey)
	out.Token.ContentKey = cloneBytes(cfg.Token.ContentKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for values the Engine cannot run with.
func (c *Config) Validate() error {
	// Token
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be within [0, 2m]")
	}
	if err := (signer.Keys{Auth: c.Token.AuthKey, Content: c.Token.ContentKey}).Validate(); err != nil {
		return err
	}

	// Password
	if c.Password.MinLength <= 0 {
		return errors.New("Password MinLength must be > 0")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.RedisPrefix == "" {
			return errors.New("RateLimit RedisPrefix must be set")
		}
		if c.RateLimit.MaxLoginAttempts <= 0 {
			return errors.New("RateLimit MaxLoginAttempts must be > 0")
		}
		if c.RateLimit.LoginCooldown <= 0 {
			return errors.New("RateLimit LoginCooldown must be > 0")
		}
		if c.RateLimit.MaxRequests < 0 {
			return errors.New("RateLimit MaxRequests must be >= 0")
		}
		if c.RateLimit.MaxRequests > 0 && c.RateLimit.RequestWindow <= 0 {
			return errors.New("RateLimit RequestWindow must be > 0 when MaxRequests is set")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (c PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		SaltLength:       c.SaltLength,
		KeyLength:        c.KeyLength,
		MinPasswordBytes: c.MinLength,
		MaxPasswordBytes: c.MaxLength,
	}
}

func (c TokenConfig) managerConfig() jwt.Config {
	return jwt.Config{
		TTL:        c.TTL,
		AuthKey:    cloneBytes(c.AuthKey),
		ContentKey: cloneBytes(c.ContentKey),
		Issuer:     c.Issuer,
		Audience:   c.Audience,
		Leeway:     c.Leeway,
		Now:        c.Now,
	}
}
