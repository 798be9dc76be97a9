// Package jwt issues and verifies the outer bearer tokens, including bound
// tokens that carry a signed content envelope.
//
// # Wire format
//
// Tokens are compact JWS strings (header.claims.signature, each segment
// base64url) signed with HS256 under the auth key. Bound tokens add a private
// "cnt" claim holding the canonical payload and its HS256 signature under the
// content key.
//
// # Verification order
//
// [Manager.Verify] checks, in order: presence, three-segment structure, outer
// signature, segment decoding, expiry, then issuer/audience. A token altered in
// any header or claims byte therefore fails on its signature before anything
// inside it is trusted.
//
// # What this package must NOT do
//
//   - Judge whether an embedded envelope matches a request (see integrity).
//   - Track issued tokens. Tokens are never consumed; a bound token stays valid
//     for its payload until it expires.
package jwt
