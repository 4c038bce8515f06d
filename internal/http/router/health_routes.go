package router

import (
	"github.com/go-chi/chi/v5"
)

// registerHealthRoutes registra rutas de health check y métricas.
// Públicas y sin logging (muy frecuentes).
func registerHealthRoutes(r chi.Router, deps Deps) {
	if deps.Health != nil {
		r.Get("/healthz", deps.Health.Healthz)
		r.Get("/readyz", deps.Health.Readyz)
	}
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method("GET", path, deps.MetricsHandler)
	}
}
