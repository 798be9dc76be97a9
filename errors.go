package goSeal

import (
	"errors"

	"github.com/MrEthical07/goSeal/canonical"
	"github.com/MrEthical07/goSeal/integrity"
	"github.com/MrEthical07/goSeal/internal/rate"
	"github.com/MrEthical07/goSeal/jwt"
)

// Outer token failures.
var (
	ErrMissingToken   = jwt.ErrMissingToken
	ErrMalformedToken = jwt.ErrMalformedToken
	ErrSignature      = jwt.ErrSignature
	ErrExpiredToken   = jwt.ErrExpiredToken
	ErrClaimsRejected = jwt.ErrClaimsRejected
)

// Content integrity failures.
var (
	ErrMissingSignature = integrity.ErrMissingSignature
	ErrInvalidSignature = integrity.ErrInvalidSignature
	ErrPayloadMismatch  = integrity.ErrPayloadMismatch
	ErrEmptyContent     = jwt.ErrEmptyContent
	ErrSerialization    = canonical.ErrSerialization
)

var (
	// ErrInvalidCredentials is returned for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRateLimited is returned when the failed-login budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRateLimited is returned by AllowRequest when a client exceeds its window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRateLimiterUnavailable is returned when Redis cannot be reached.
	ErrRateLimiterUnavailable = errors.New("rate limiter backend unavailable")
	// ErrPrincipalNotFound is returned by a PrincipalStore for an unknown principal.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalExists is returned when registering a taken username.
	ErrPrincipalExists = errors.New("principal already exists")
	// ErrPasswordPolicy is returned for passwords outside the configured length bounds.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRegistrationInvalid is returned for a registration request with missing fields.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrEngineNotReady is returned when a nil or partially built Engine is used.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// PayloadMismatchError carries the submitted and signed canonical payloads.
type PayloadMismatchError = integrity.PayloadMismatchError

// ErrorClass groups errors by how a transport should answer them.
type ErrorClass uint8

const (
	ClassInternal ErrorClass = iota
	// ClassUnauthenticated covers outer token failures.
	ClassUnauthenticated
	// ClassIntegrity covers content envelope and payload failures.
	ClassIntegrity
	ClassRateLimited
	ClassConflict
	ClassNotFound
	ClassInvalid
)

func (c ErrorClass) String() string {
	switch c {
	case ClassUnauthenticated:
		return "unauthenticated"
	case ClassIntegrity:
		return "integrity"
	case ClassRateLimited:
		return "rate_limited"
	case ClassConflict:
		return "conflict"
	case ClassNotFound:
		return "not_found"
	case ClassInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

type errorKind struct {
	err   error
	kind  string
	class ErrorClass
}

// Ordered so that the more specific sentinel wins when an error wraps several.
var errorKinds = []errorKind{
	{ErrMissingToken, "missing_token", ClassUnauthenticated},
	{ErrMalformedToken, "malformed_token", ClassUnauthenticated},
	{ErrSignature, "invalid_token_signature", ClassUnauthenticated},
	{ErrExpiredToken, "expired_token", ClassUnauthenticated},
	{ErrClaimsRejected, "claims_rejected", ClassUnauthenticated},
	{ErrInvalidCredentials, "invalid_credentials", ClassUnauthenticated},
	{ErrMissingSignature, "missing_content_signature", ClassIntegrity},
	{ErrInvalidSignature, "invalid_content_signature", ClassIntegrity},
	{ErrPayloadMismatch, "payload_mismatch", ClassIntegrity},
	{ErrEmptyContent, "empty_content", ClassIntegrity},
	{ErrSerialization, "serialization_error", ClassIntegrity},
	{ErrLoginRateLimited, "login_rate_limited", ClassRateLimited},
	{ErrRateLimited, "rate_limited", ClassRateLimited},
	{ErrPrincipalExists, "principal_exists", ClassConflict},
	{ErrPrincipalNotFound, "principal_not_found", ClassNotFound},
	{ErrPasswordPolicy, "password_policy", ClassInvalid},
	{ErrRegistrationInvalid, "invalid_registration", ClassInvalid},
	{ErrRateLimiterUnavailable, "rate_limiter_unavailable", ClassInternal},
	{ErrEngineNotReady, "engine_not_ready", ClassInternal},
}

// Classify maps err onto an ErrorClass. Unknown errors are ClassInternal.
func Classify(err error) ErrorClass {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.class
		}
	}
	return ClassInternal
}

// ErrorKind returns a stable snake_case identifier for err, or "internal".
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

func mapLimiterError(err error, limited error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return limited
	default:
		return errors.Join(ErrRateLimiterUnavailable, err)
	}
}
