package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the identity a token is issued for.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Claims is the decoded content of a verified outer token. It is either
// *AuthClaims or *BoundClaims; callers type-switch on the concrete value.
type Claims interface {
	Identity() *AuthClaims
	claims()
}

// AuthClaims identifies the caller of a plain outer token.
type AuthClaims struct {
	Subject   string
	Username  string
	Email     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity returns c.
func (c *AuthClaims) Identity() *AuthClaims { return c }

// Principal returns the identity the claims were issued for.
func (c *AuthClaims) Principal() Principal {
	return Principal{ID: c.Subject, Username: c.Username, Email: c.Email}
}

func (*AuthClaims) claims() {}

// Envelope binds a canonical payload to a signature under the content key.
type Envelope struct {
	Canonical []byte
	Signature []byte
}

// BoundClaims are AuthClaims plus the content envelope produced by the
// sign-content step.
type BoundClaims struct {
	AuthClaims
	Envelope Envelope
}

// Identity returns the embedded AuthClaims.
func (c *BoundClaims) Identity() *AuthClaims { return &c.AuthClaims }

func (*BoundClaims) claims() {}

type wireEnvelope struct {
	Payload   string `json:"payload"`
	Signature string `json:"sig"`
}

type wireClaims struct {
	Username string        `json:"username"`
	Email    string        `json:"email"`
	Content  *wireEnvelope `json:"cnt,omitempty"`
	jwt.RegisteredClaims
}

func (w *wireClaims) authClaims() AuthClaims {
	out := AuthClaims{
		Subject:  w.Subject,
		Username: w.Username,
		Email:    w.Email,
		TokenID:  w.ID,
	}
	if w.IssuedAt != nil {
		out.IssuedAt = w.IssuedAt.Time
	}
	if w.ExpiresAt != nil {
		out.ExpiresAt = w.ExpiresAt.Time
	}
	return out
}
