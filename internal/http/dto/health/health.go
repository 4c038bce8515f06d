// Package health contiene los DTOs de /readyz.
package health

import "time"

// HealthStatus es el estado de un componente.
type HealthStatus struct {
	Status  string `json:"status"` // "ok" | "error" | "disabled"
	Message string `json:"message,omitempty"`
}

// HealthResponse es la respuesta de GET /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // "ready" | "degraded" | "unavailable"
	Components map[string]HealthStatus `json:"components"`
	Version    string                  `json:"version,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}
