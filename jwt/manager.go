package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSeal/canonical"
	"github.com/MrEthical07/goSeal/signer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the validity window of both plain and bound tokens.
const DefaultTTL = 24 * time.Hour

var segmentEncoding = base64.RawURLEncoding.Strict()

// Config holds the token settings. It is fixed at startup.
type Config struct {
	TTL        time.Duration
	AuthKey    []byte
	ContentKey []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Manager issues plain and bound tokens and verifies outer tokens.
//
// A Manager holds only immutable configuration and is safe for concurrent use.
type Manager struct {
	config    Config
	auth      *signer.Signer
	content   *signer.Signer
	parser    *jwt.Parser
	validator *jwt.Validator
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.TTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if err := (signer.Keys{Auth: cfg.AuthKey, Content: cfg.ContentKey}).Validate(); err != nil {
		return nil, fmt.Errorf("invalid signing keys: %w", err)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	auth, err := signer.New(cfg.AuthKey)
	if err != nil {
		return nil, err
	}
	content, err := signer.New(cfg.ContentKey)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	return &Manager{
		config:    cfg,
		auth:      auth,
		content:   content,
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{auth.Alg()})),
		validator: jwt.NewValidator(options...),
	}, nil
}

// TTL returns the token validity window.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// AuthAlg returns the JWS algorithm of the outer token.
func (m *Manager) AuthAlg() string {
	return m.auth.Alg()
}

// ContentSigner returns the signer for content envelopes.
func (m *Manager) ContentSigner() *signer.Signer {
	return m.content
}

// IssueAuth returns a plain outer token for p.
func (m *Manager) IssueAuth(p Principal) (string, error) {
	return m.issue(p, nil)
}

// IssueBound canonicalizes payload, signs it under the content key and returns
// an outer token carrying the resulting envelope.
//
// Empty payloads fail with ErrEmptyContent; unserializable payloads fail with
// canonical.ErrSerialization.
func (m *Manager) IssueBound(p Principal, payload any) (string, error) {
	env, err := m.Seal(payload)
	if err != nil {
		return "", err
	}
	return m.issue(p, &wireEnvelope{
		Payload:   string(env.Canonical),
		Signature: segmentEncoding.EncodeToString(env.Signature),
	})
}

// Seal builds a content envelope for payload without issuing a token.
func (m *Manager) Seal(payload any) (Envelope, error) {
	c, err := canonical.Canonicalize(payload)
	if err != nil {
		return Envelope{}, err
	}
	if canonical.IsEmpty(c) {
		return Envelope{}, ErrEmptyContent
	}
	sig, err := m.content.Sign(c)
	if err != nil {
		return Envelope{}, fmt.Errorf("sign content: %w", err)
	}
	return Envelope{Canonical: c, Signature: sig}, nil
}

func (m *Manager) issue(p Principal, env *wireEnvelope) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", errors.New("principal id required")
	}

	now := m.config.Now()
	claims := wireClaims{
		Username: p.Username,
		Email:    p.Email,
		Content:  env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signing, err := token.SigningString()
	if err != nil {
		return "", err
	}
	sig, err := m.auth.Sign([]byte(signing))
	if err != nil {
		return "", err
	}
	return signing + "." + segmentEncoding.EncodeToString(sig), nil
}

// Verify authenticates an outer token and returns its claims unchanged:
// *BoundClaims when the token carries an envelope, *AuthClaims otherwise.
// The envelope itself is not checked here.
func (m *Manager) Verify(tokenStr string) (Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformedToken
	}

	sig, err := segmentEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable signature segment", ErrSignature)
	}
	if !m.auth.Verify([]byte(parts[0]+"."+parts[1]), sig) {
		return nil, ErrSignature
	}

	var wc wireClaims
	token, _, err := m.parser.ParseUnverified(tokenStr, &wc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if token.Method.Alg() != m.auth.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrSignature, token.Method.Alg())
	}

	if err := m.validator.Validate(&wc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrClaimsRejected, err)
	}
	if wc.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrClaimsRejected)
	}

	auth := wc.authClaims()
	if wc.Content == nil {
		return &auth, nil
	}

	// An undecodable inner signature is left empty so the content verifier
	// reports it as an invalid signature.
	innerSig, _ := segmentEncoding.DecodeString(wc.Content.Signature)
	return &BoundClaims{
		AuthClaims: auth,
		Envelope: Envelope{
			Canonical: []byte(wc.Content.Payload),
			Signature: innerSig,
		},
	}, nil
}
