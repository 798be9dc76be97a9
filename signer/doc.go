// Package signer produces and checks detached HMAC-SHA256 signatures.
//
// Two independent keys are in play: the auth key signs outer bearer tokens and
// the content key signs content envelopes. [Keys.Validate] refuses identical keys
// so that knowing one never lets a caller forge the other.
package signer
