package middleware

import (
	"context"
	"net/http"
	"strings"

	goSeal "github.com/MrEthical07/goSeal"
)

type claimsContextKey struct{}

// Option configures RequireBearer and RequireContent.
type Option func(*options)

type options struct {
	writeError   ErrorWriter
	maxBodyBytes int64
}

// DefaultMaxBodyBytes bounds the body RequireContent will read.
const DefaultMaxBodyBytes int64 = 1 << 20

func buildOptions(opts []Option) options {
	o := options{
		writeError:   WriteError,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithErrorWriter replaces WriteError.
func WithErrorWriter(fn ErrorWriter) Option {
	return func(o *options) {
		if fn != nil {
			o.writeError = fn
		}
	}
}

// WithMaxBodyBytes sets the body limit for RequireContent.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// ClaimsFromContext returns the claims stored by RequireBearer.
func ClaimsFromContext(ctx context.Context) (goSeal.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(goSeal.Claims)
	return claims, ok && claims != nil
}

// RequireBearer rejects requests whose bearer token does not verify. A
// missing or non-Bearer Authorization header is reported as a missing token.
func RequireBearer(engine *goSeal.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := engine.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				o.writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token from r's Authorization header, or "".
func BearerToken(r *http.Request) string {
	return bearerToken(r.Header.Get("Authorization"))
}

// bearerToken returns "" unless value is "Bearer <token>". The scheme is
// matched case-insensitively.
func bearerToken(value string) string {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(value[len(bearer):])
}
