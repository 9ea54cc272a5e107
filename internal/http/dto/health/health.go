// Package health contiene DTOs para endpoints de health check.
package health

import "time"

// RootResponse es la respuesta de GET /.
type RootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// LivenessResponse es la respuesta de GET /health.
type LivenessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ComponentStatus es el estado de un componente.
type ComponentStatus struct {
	Status  string `json:"status"`            // "ok" | "error" | "disabled"
	Message string `json:"message,omitempty"`
}

// ReadyResponse es la respuesta de GET /readyz.
type ReadyResponse struct {
	Status     string                     `json:"status"` // "ready" | "unavailable"
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version,omitempty"`
	Timestamp  time.Time                  `json:"timestamp"`
}
