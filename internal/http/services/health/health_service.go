// Package health contiene el service para health checks.
package health

import (
	"context"
	"time"

	dto "github.com/somahq/soma/internal/http/dto/health"
	"github.com/somahq/soma/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Version string
	// StoreName etiqueta el componente del document store (ej: "postgres").
	StoreName  string
	StoreCheck func(ctx context.Context) error // crítico
	RedisCheck func(ctx context.Context) error // no crítico; nil = deshabilitado
	// CheckTimeout acota cada ping. Default 2s.
	CheckTimeout time.Duration
}

type healthService struct {
	deps Deps
	now  func() time.Time
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	if deps.CheckTimeout <= 0 {
		deps.CheckTimeout = 2 * time.Second
	}
	if deps.StoreName == "" {
		deps.StoreName = "store"
	}
	return &healthService{deps: deps, now: time.Now}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Version:    s.deps.Version,
		Timestamp:  s.now().UTC(),
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) Document store (crítico)
	storeKey := "store_" + s.deps.StoreName
	if s.deps.StoreCheck != nil {
		if err := s.ping(ctx, s.deps.StoreCheck); err != nil {
			response.Components[storeKey] = dto.HealthStatus{
				Status:  "error",
				Message: "unavailable",
			}
			hasCriticalErrors = true
			log.Error("document store unavailable", logger.Err(err))
		} else {
			response.Components[storeKey] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components[storeKey] = dto.HealthStatus{
			Status:  "error",
			Message: "store not initialized",
		}
		hasCriticalErrors = true
	}

	// 2) Redis (no crítico: el rate limiter deja pasar si falla)
	if s.deps.RedisCheck != nil {
		if err := s.ping(ctx, s.deps.RedisCheck); err != nil {
			response.Components["redis"] = dto.HealthStatus{
				Status:  "error",
				Message: "unavailable",
			}
			hasErrors = true
			log.Warn("redis unavailable", logger.Err(err))
		} else {
			response.Components["redis"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["redis"] = dto.HealthStatus{
			Status:  "disabled",
			Message: "in-memory rate limiting",
		}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}
	return response
}

func (s *healthService) ping(ctx context.Context, check func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.deps.CheckTimeout)
	defer cancel()
	return check(ctx)
}
