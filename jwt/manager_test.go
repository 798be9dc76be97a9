package jwt

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSeal/canonical"
	gjwt "github.com/golang-jwt/jwt/v5"
)

var (
	testAuthKey    = []byte("auth-key-0123456789abcdef0123456789")
	testContentKey = []byte("content-key-0123456789abcdef012345")
	testPrincipal  = Principal{ID: "u-1", Username: "alice", Email: "alice@example.com"}
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T, mutate func(*Config)) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	cfg := Config{
		AuthKey:    testAuthKey,
		ContentKey: testContentKey,
		Now:        clock.Now,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, clock
}

func TestIssueAuthRoundTrip(t *testing.T) {
	m, clock := newTestManager(t, nil)

	token, err := m.IssueAuth(testPrincipal)
	if err != nil {
		t.Fatalf("issue auth: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three segments, got %q", token)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	auth, ok := claims.(*AuthClaims)
	if !ok {
		t.Fatalf("expected *AuthClaims, got %T", claims)
	}
	if auth.Principal() != testPrincipal {
		t.Fatalf("principal mismatch: %+v", auth.Principal())
	}
	if !auth.IssuedAt.Equal(clock.now) {
		t.Fatalf("issuedAt = %v, want %v", auth.IssuedAt, clock.now)
	}
	if got := auth.ExpiresAt.Sub(auth.IssuedAt); got != DefaultTTL {
		t.Fatalf("ttl = %v, want %v", got, DefaultTTL)
	}
	if auth.TokenID == "" {
		t.Fatal("expected a token id")
	}
}

func TestIssueBoundCarriesEnvelope(t *testing.T) {
	m, _ := newTestManager(t, nil)

	token, err := m.IssueBound(testPrincipal, json.RawMessage(`{"title":"A", "content":"B"}`))
	if err != nil {
		t.Fatalf("issue bound: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	bound, ok := claims.(*BoundClaims)
	if !ok {
		t.Fatalf("expected *BoundClaims, got %T", claims)
	}
	if string(bound.Envelope.Canonical) != `{"title":"A","content":"B"}` {
		t.Fatalf("canonical = %s", bound.Envelope.Canonical)
	}
	if !m.ContentSigner().Verify(bound.Envelope.Canonical, bound.Envelope.Signature) {
		t.Fatal("inner signature must verify under the content key")
	}
	if bound.Identity().Subject != testPrincipal.ID {
		t.Fatalf("subject = %q", bound.Identity().Subject)
	}
	if got := bound.ExpiresAt.Sub(bound.IssuedAt); got != DefaultTTL {
		t.Fatalf("bound ttl = %v, want %v", got, DefaultTTL)
	}
}

func TestIssueBoundRejectsEmptyContent(t *testing.T) {
	m, _ := newTestManager(t, nil)

	for _, payload := range []any{nil, json.RawMessage(`{}`), json.RawMessage(` `), map[string]string{}} {
		if _, err := m.IssueBound(testPrincipal, payload); !errors.Is(err, ErrEmptyContent) {
			t.Fatalf("payload %#v: expected ErrEmptyContent, got %v", payload, err)
		}
	}
}

func TestIssueBoundRejectsUnserializable(t *testing.T) {
	m, _ := newTestManager(t, nil)

	if _, err := m.IssueBound(testPrincipal, map[string]any{"f": func() {}}); !errors.Is(err, canonical.ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
}

func TestVerifyErrorOrdering(t *testing.T) {
	m, _ := newTestManager(t, nil)
	token, err := m.IssueAuth(testPrincipal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"blank", "   ", ErrMissingToken},
		{"two segments", parts[0] + "." + parts[1], ErrMalformedToken},
		{"four segments", token + ".x", ErrMalformedToken},
		{"empty signature", parts[0] + "." + parts[1] + ".", ErrMalformedToken},
		{"bad signature", parts[0] + "." + parts[1] + ".AAAA", ErrSignature},
		{"undecodable signature", parts[0] + "." + parts[1] + ".!!!", ErrSignature},
		{"garbage claims", parts[0] + ".bm90LWpzb24." + parts[2], ErrSignature},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Verify(tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifySingleBitFlipIsSignatureError(t *testing.T) {
	m, _ := newTestManager(t, nil)
	token, err := m.IssueBound(testPrincipal, json.RawMessage(`{"title":"A","content":"B"}`))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			continue
		}
		altered := []byte(token)
		altered[i] ^= 0x01
		_, err := m.Verify(string(altered))
		if !errors.Is(err, ErrSignature) {
			t.Fatalf("flip at %d: expected ErrSignature, got %v", i, err)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m, clock := newTestManager(t, nil)
	token, err := m.IssueAuth(testPrincipal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = clock.now.Add(DefaultTTL - time.Second)
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("expected token valid before expiry: %v", err)
	}

	clock.now = clock.now.Add(time.Second)
	if _, err := m.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken at expiry, got %v", err)
	}
}

func TestVerifyRejectsForeignAlgorithmAndKey(t *testing.T) {
	m, clock := newTestManager(t, nil)
	claims := wireClaims{
		Username: "mallory",
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "u-2",
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	}

	foreign, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testContentKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := m.Verify(foreign); !errors.Is(err, ErrSignature) {
		t.Fatalf("token signed with the content key must fail: %v", err)
	}

	none, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := m.Verify(none); !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("unsigned token must fail structurally: %v", err)
	}
}

func TestVerifyIssuerAndAudience(t *testing.T) {
	issuer, _ := newTestManager(t, func(c *Config) {
		c.Issuer = "goseal"
		c.Audience = "api"
	})
	other, _ := newTestManager(t, func(c *Config) {
		c.Issuer = "other"
		c.Audience = "api"
	})

	token, err := other.IssueAuth(testPrincipal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrClaimsRejected) {
		t.Fatalf("expected ErrClaimsRejected for foreign issuer, got %v", err)
	}

	own, err := issuer.IssueAuth(testPrincipal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(own); err != nil {
		t.Fatalf("expected own token to verify: %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"negative ttl", Config{TTL: -time.Second, AuthKey: testAuthKey, ContentKey: testContentKey}},
		{"leeway too large", Config{Leeway: time.Hour, AuthKey: testAuthKey, ContentKey: testContentKey}},
		{"same keys", Config{AuthKey: testAuthKey, ContentKey: testAuthKey}},
		{"short key", Config{AuthKey: []byte("short"), ContentKey: testContentKey}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestIssueRequiresPrincipalID(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if _, err := m.IssueAuth(Principal{Username: "ghost"}); err == nil {
		t.Fatal("expected error for principal without id")
	}
}

func TestAuthAlgMatchesTokenHeader(t *testing.T) {
	m, _ := newTestManager(t, nil)

	token, err := m.IssueAuth(testPrincipal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parsed, _, err := gjwt.NewParser().ParseUnverified(token, gjwt.MapClaims{})
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if got := parsed.Header["alg"]; got != m.AuthAlg() {
		t.Fatalf("header alg = %v, AuthAlg = %q", got, m.AuthAlg())
	}
}
