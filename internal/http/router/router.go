// Package router arma el árbol de rutas HTTP (chi) del servicio.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/somahq/soma/internal/http/controllers/health"
	tenantctrl "github.com/somahq/soma/internal/http/controllers/tenant"
	withdrawalctrl "github.com/somahq/soma/internal/http/controllers/withdrawal"
	httperrors "github.com/somahq/soma/internal/http/errors"
	mw "github.com/somahq/soma/internal/http/middlewares"
	"github.com/somahq/soma/internal/rate"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Tenant      *tenantctrl.TenantController
	Withdrawals *withdrawalctrl.WithdrawalController
	Health      *healthctrl.HealthController

	// Auth valida el bearer del dashboard (POST /api/withdrawals).
	Auth mw.TokenParser
	// RateLimiter aplica a resolución y confirmación. nil o rate.Noop = sin límite.
	RateLimiter rate.Limiter

	// MetricsHandler se monta en MetricsPath si no es nil.
	MetricsHandler http.Handler
	MetricsPath    string

	RequestTimeout    time.Duration
	TrustProxyHeaders bool
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Infra base para todas las rutas
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithMetrics(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithLogging(deps.TrustProxyHeaders),
			mw.WithTimeout(deps.RequestTimeout),
		)
		registerTenantRoutes(r, deps)
		registerWithdrawalRoutes(r, deps)
	})

	return r
}

// rateLimit crea el middleware de rate limiting para un grupo de rutas.
func rateLimit(deps Deps, route string) mw.Middleware {
	return mw.WithRateLimit(mw.RateLimitConfig{
		Limiter:    deps.RateLimiter,
		Route:      route,
		TrustProxy: deps.TrustProxyHeaders,
	})
}
