package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/somahq/soma/internal/metrics"
)

// WithMetrics registra latencia y status por ruta (patrón de chi, no el path
// crudo, para no explotar la cardinalidad).
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.InflightInc(r.Method)
			defer metrics.InflightDec(r.Method)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			metrics.ObserveHTTP(r.Method, route, rec.status, time.Since(start))
		})
	}
}
