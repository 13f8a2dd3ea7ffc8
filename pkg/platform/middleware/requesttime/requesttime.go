// Package requesttime pins one "now" per HTTP request so handlers, stores and
// the access log agree on when the request started.
package requesttime

import (
	"context"
	"net/http"
	"time"

	"neom/pkg/requestcontext"
)

// Middleware stamps the request context with the current time.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock is Middleware with a custom time source.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Elapsed is the time since the request was stamped, or zero for an
// unstamped context.
func Elapsed(ctx context.Context) time.Duration {
	start := requestcontext.Now(ctx)
	if d := time.Since(start); d > 0 {
		return d
	}
	return 0
}
