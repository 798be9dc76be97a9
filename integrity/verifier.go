package integrity

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSeal/canonical"
	"github.com/MrEthical07/goSeal/jwt"
	"github.com/MrEthical07/goSeal/signer"
)

var (
	// ErrMissingSignature is returned when the claims carry no content envelope.
	ErrMissingSignature = errors.New("content signature required")
	// ErrInvalidSignature is returned when the envelope does not verify under the content key.
	ErrInvalidSignature = errors.New("invalid content signature")
	// ErrPayloadMismatch is wrapped by every *PayloadMismatchError.
	ErrPayloadMismatch = errors.New("payload does not match signed content")
)

// PayloadMismatchError reports a request payload that differs from the signed
// one. Both canonical forms are kept for diagnostics.
type PayloadMismatchError struct {
	Submitted []byte
	Signed    []byte
}

func (e *PayloadMismatchError) Error() string {
	return fmt.Sprintf("%s: submitted %s, signed %s", ErrPayloadMismatch, e.Submitted, e.Signed)
}

// Unwrap returns ErrPayloadMismatch.
func (e *PayloadMismatchError) Unwrap() error {
	return ErrPayloadMismatch
}

// Verifier checks content envelopes under the content key.
type Verifier struct {
	content *signer.Signer
}

// NewVerifier returns a Verifier for the given content signer.
func NewVerifier(content *signer.Signer) (*Verifier, error) {
	if content == nil {
		return nil, errors.New("content signer required")
	}
	return &Verifier{content: content}, nil
}

// Verify accepts the request only if claims are bound, the envelope signature
// is valid, and requestPayload canonicalizes to exactly the signed bytes.
func (v *Verifier) Verify(claims jwt.Claims, requestPayload any) error {
	bound, ok := claims.(*jwt.BoundClaims)
	if !ok || bound == nil {
		return ErrMissingSignature
	}

	env := bound.Envelope
	if !v.content.Verify(env.Canonical, env.Signature) {
		return ErrInvalidSignature
	}

	live, err := canonical.Canonicalize(requestPayload)
	if err != nil {
		return err
	}
	if !bytes.Equal(live, env.Canonical) {
		return &PayloadMismatchError{
			Submitted: live,
			Signed:    bytes.Clone(env.Canonical),
		}
	}
	return nil
}
