// Package integrity checks that a mutating request carries exactly the payload
// its bound token was issued for.
//
// Verification is a pure function of the claims, the live payload and the
// content key. Nothing is recorded: a bound token keeps passing for its exact
// payload until the outer token expires.
package integrity
