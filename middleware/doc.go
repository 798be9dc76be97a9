// Package middleware adapts goSeal.Engine to net/http.
//
//   - [RequireBearer] verifies the Authorization bearer token and stores the
//     claims in the request context.
//   - [RequireContent] additionally requires the request body to match the
//     content bound into the token.
//   - [Annotate] copies the client IP and request id into the context for
//     rate limiting and audit.
//
// All decisions are delegated to the Engine; this package only translates
// them into HTTP responses via [WriteError].
package middleware
