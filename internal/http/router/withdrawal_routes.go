package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/somahq/soma/internal/http/middlewares"
)

// registerWithdrawalRoutes registra los endpoints de retiros.
// El pedido requiere bearer; la confirmación se autentica con el token del email.
func registerWithdrawalRoutes(r chi.Router, deps Deps) {
	c := deps.Withdrawals
	if c == nil {
		return
	}

	if deps.Auth != nil {
		r.With(mw.RequireAuth(deps.Auth)).Post("/api/withdrawals", c.Create)
	}

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(deps, "confirm"))
		r.Get("/api/withdrawals/{id}/confirm", c.Confirm)
		r.Post("/api/withdrawals/{id}/confirm", c.Confirm)
	})
}
