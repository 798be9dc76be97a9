// Package goSeal authenticates API callers with signed bearer tokens and
// binds mutating requests to content the caller had signed in advance.
//
// A caller logs in and receives a plain token. Before a mutation it asks for
// a bound token over the exact JSON it intends to send. The bound token
// carries a content envelope (canonical payload plus an HMAC under a separate
// content key). On the mutating request the [Engine] verifies the outer token
// and then requires that the live request body canonicalizes to the exact
// signed bytes.
//
// # Construction
//
//	engine, err := goSeal.New().
//		WithConfig(cfg).
//		WithPrincipalStore(principals).
//		WithRedis(rdb).
//		WithLogger(logger).
//		Build()
//
// # Verification order
//
// Outer failures (missing, malformed, signature, expired, claims) are always
// reported before content failures (missing signature, invalid signature,
// payload mismatch). [Classify] maps any returned error onto that split.
//
// # Replay
//
// A bound token may be presented any number of times until it expires.
// Nothing here tracks single use.
package goSeal
