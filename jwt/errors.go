package jwt

import "errors"

var (
	// ErrMissingToken is returned when no bearer credential was supplied.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrMalformedToken is returned when a token cannot be split or decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrSignature is returned when the outer signature does not verify under the auth key.
	ErrSignature = errors.New("invalid token signature")
	// ErrExpiredToken is returned when the current time is at or past the token expiry.
	ErrExpiredToken = errors.New("token expired")
	// ErrClaimsRejected is returned for issuer, audience or issued-at violations.
	ErrClaimsRejected = errors.New("token claims rejected")
	// ErrEmptyContent is returned when a bound token is requested for an empty payload.
	ErrEmptyContent = errors.New("content payload is empty")
)
