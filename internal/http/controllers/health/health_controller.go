// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	httperrors "github.com/somahq/soma/internal/http/errors"
	"github.com/somahq/soma/internal/http/helpers"
	svc "github.com/somahq/soma/internal/http/services/health"
	"github.com/somahq/soma/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz (liveness: el proceso responde).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	response := c.service.Check(ctx)
	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}

	if response.Status == "unavailable" {
		log.Warn("service not ready", logger.Any("components", response.Components))
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable)
		return
	}

	log.Debug("health check completed",
		logger.String("status", response.Status),
		logger.Int("components_count", len(response.Components)),
	)
	helpers.WriteJSON(w, http.StatusOK, response)
}
