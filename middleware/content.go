package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	goSeal "github.com/MrEthical07/goSeal"
)

type boundClaimsContextKey struct{}

// BoundClaimsFromContext returns the claims accepted by RequireContent.
func BoundClaimsFromContext(ctx context.Context) (*goSeal.BoundClaims, bool) {
	claims, ok := ctx.Value(boundClaimsContextKey{}).(*goSeal.BoundClaims)
	return claims, ok && claims != nil
}

// RequireContent accepts a request only if its body canonicalizes to the
// content signed into the bearer token. It authenticates the token itself
// unless RequireBearer already ran. The body is restored for the handler.
func RequireContent(engine *goSeal.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			claims, ok := ClaimsFromContext(ctx)
			if !ok {
				var err error
				claims, err = engine.Authenticate(ctx, BearerToken(r))
				if err != nil {
					o.writeError(w, r, err)
					return
				}
				ctx = context.WithValue(ctx, claimsContextKey{}, claims)
			}

			body, err := readBody(w, r, o.maxBodyBytes)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
						Error:   "body_too_large",
						Message: err.Error(),
					})
					return
				}
				o.writeError(w, r, err)
				return
			}

			if err := engine.VerifyContent(ctx, claims, json.RawMessage(body)); err != nil {
				o.writeError(w, r, err)
				return
			}

			ctx = context.WithValue(ctx, boundClaimsContextKey{}, claims.(*goSeal.BoundClaims))
			r = r.WithContext(ctx)
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
}
