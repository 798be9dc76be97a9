package signer

import (
	"bytes"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the shortest accepted shared secret in bytes.
const MinKeyLength = 32

var (
	// ErrKeyTooShort is returned for secrets shorter than MinKeyLength.
	ErrKeyTooShort = errors.New("signing key too short")
	// ErrKeysNotDistinct is returned when the auth and content keys are equal.
	ErrKeysNotDistinct = errors.New("auth and content keys must differ")
)

// Signer signs byte strings under a single shared secret.
//
// Signatures are deterministic: the same data and key always produce the same
// signature. A Signer is immutable and safe for concurrent use.
type Signer struct {
	key []byte
}

// New returns a Signer for key. The key is copied.
func New(key []byte) (*Signer, error) {
	if len(key) < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	return &Signer{key: bytes.Clone(key)}, nil
}

// Sign returns the HS256 signature of data.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	return jwt.SigningMethodHS256.Sign(string(data), s.key)
}

// Verify reports whether signature is the exact HS256 signature of data under
// this signer's key.
func (s *Signer) Verify(data, signature []byte) bool {
	if s == nil || len(signature) == 0 {
		return false
	}
	return jwt.SigningMethodHS256.Verify(string(data), signature, s.key) == nil
}

// Alg reports the JOSE algorithm name of the signatures.
func (s *Signer) Alg() string {
	return jwt.SigningMethodHS256.Alg()
}

// Keys is the process-wide key pair. It is fixed at startup and never mutated.
type Keys struct {
	Auth    []byte
	Content []byte
}

// Validate checks both keys are long enough and distinct.
func (k Keys) Validate() error {
	if len(k.Auth) < MinKeyLength || len(k.Content) < MinKeyLength {
		return ErrKeyTooShort
	}
	if bytes.Equal(k.Auth, k.Content) {
		return ErrKeysNotDistinct
	}
	return nil
}
