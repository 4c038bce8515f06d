package middlewares

import (
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/somahq/soma/internal/http/errors"
	"github.com/somahq/soma/internal/http/helpers"
	"github.com/somahq/soma/internal/metrics"
	"github.com/somahq/soma/internal/observability/logger"
	"github.com/somahq/soma/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// RateLimitConfig configura el comportamiento del middleware de rate limiting.
type RateLimitConfig struct {
	Limiter rate.Limiter
	// Route agrupa las claves y etiqueta la métrica (ej: "resolve", "confirm").
	Route      string
	KeyFunc    RateKeyFunc
	TrustProxy bool
}

// WithRateLimit crea un middleware de rate limiting por IP y grupo de rutas.
// Con un limiter nil o rate.Noop no agrega nada a la cadena.
// Si el limiter falla se deja pasar el request.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if _, noop := cfg.Limiter.(rate.Noop); cfg.Limiter == nil || noop {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		trust := cfg.TrustProxy
		cfg.KeyFunc = func(r *http.Request) string { return helpers.ClientIP(r, trust) }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Route + "|" + cfg.KeyFunc(r)
			res, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limit error", logger.Op("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if res.WindowTTL > 0 {
				resetAt := time.Now().Add(res.WindowTTL).Unix()
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
			}

			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				metrics.RecordRateLimited(cfg.Route)
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
