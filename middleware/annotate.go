package middleware

import (
	"net"
	"net/http"

	goSeal "github.com/MrEthical07/goSeal"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Annotate stores the client IP and the chi request id (when present) in the
// request context. Run it after chi's RealIP and RequestID.
func Annotate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := goSeal.WithClientIP(r.Context(), ClientIP(r))
		if id := chimw.GetReqID(ctx); id != "" {
			ctx = goSeal.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
