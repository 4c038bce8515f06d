package middlewares

import (
	"context"
	"net/http"
	"time"
)

// WithTimeout acota la duración del request con un deadline en el contexto.
// Los repositorios y el resolver respetan el deadline; d <= 0 no aplica límite.
func WithTimeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
