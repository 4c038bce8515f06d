package router

import (
	"github.com/go-chi/chi/v5"
)

// registerTenantRoutes registra los endpoints de resolución (públicos, con rate limit).
func registerTenantRoutes(r chi.Router, deps Deps) {
	if deps.Tenant == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(deps, "resolve"))
		r.Get("/api/store-id", deps.Tenant.StoreID)
		r.Get("/api/tenant/resolve", deps.Tenant.Resolve)
	})
}
