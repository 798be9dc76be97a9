package goSeal

import "time"

// SecurityReport summarizes the effective security posture of an Engine.
// It never includes key material.
type SecurityReport struct {
	SigningAlgorithm      string               `json:"signing_algorithm"`
	ContentAlgorithm      string               `json:"content_algorithm"`
	TokenTTL              time.Duration        `json:"token_ttl"`
	Leeway                time.Duration        `json:"leeway"`
	IssuerPinned          bool                 `json:"issuer_pinned"`
	AudiencePinned        bool                 `json:"audience_pinned"`
	Argon2                PasswordConfigReport `json:"argon2"`
	PasswordUpgrade       bool                 `json:"password_upgrade"`
	RateLimitingActive    bool                 `json:"rate_limiting_active"`
	IPThrottleActive      bool                 `json:"ip_throttle_active"`
	RequestThrottle       bool                 `json:"request_throttle"`
	AuditEnabled          bool                 `json:"audit_enabled"`
	MetricsEnabled        bool                 `json:"metrics_enabled"`
	ReplayProtection      bool                 `json:"replay_protection"`
	OrderSensitivePayload bool                 `json:"order_sensitive_payload"`
}

type PasswordConfigReport struct {
	Memory      uint32 `json:"memory"`
	Time        uint32 `json:"time"`
	Parallelism uint8  `json:"parallelism"`
	SaltLength  uint32 `json:"salt_length"`
	KeyLength   uint32 `json:"key_length"`
	MinLength   int    `json:"min_length"`
	MaxLength   int    `json:"max_length"`
}

func (e *Engine) SecurityReport() SecurityReport {
	if !e.ready() {
		return SecurityReport{}
	}

	rl := e.config.RateLimit
	return SecurityReport{
		SigningAlgorithm: e.tokens.AuthAlg(),
		ContentAlgorithm: e.tokens.ContentSigner().Alg(),
		TokenTTL:         e.tokens.TTL(),
		Leeway:           e.config.Token.Leeway,
		IssuerPinned:     e.config.Token.Issuer != "",
		AudiencePinned:   e.config.Token.Audience != "",
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
			MinLength:   e.config.Password.MinLength,
			MaxLength:   e.config.Password.MaxLength,
		},
		PasswordUpgrade:    e.config.Password.UpgradeOnLogin,
		RateLimitingActive: rl.Enabled,
		IPThrottleActive:   rl.Enabled && rl.EnableIPThrottle,
		RequestThrottle:    rl.Enabled && rl.MaxRequests > 0,
		AuditEnabled:       e.config.Audit.Enabled,
		MetricsEnabled:     e.config.Metrics.Enabled,
		// Bound tokens are reusable until expiry.
		ReplayProtection:      false,
		OrderSensitivePayload: true,
	}
}
