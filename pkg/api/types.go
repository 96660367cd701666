package api

import "time"

// API Request/Response Types

// ErrorResponse is the uniform JSON error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// EntityResponse wraps an upserted entity
type EntityResponse struct {
	ID        string `json:"id"`
	Created   bool   `json:"created"`
	FirstSeen string `json:"firstSeen"`
	LastSeen  string `json:"lastSeen"`
}

// RelationshipResponse wraps an added relationship
type RelationshipResponse struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight float64 `json:"weight"`
}

// HealthResponse reports liveness or readiness
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Uptime    string         `json:"uptime"`
	Checks    map[string]any `json:"checks,omitempty"`
}

// AlertActionRequest carries the actor and optional resolution for
// alert lifecycle transitions
type AlertActionRequest struct {
	By         string `json:"by"`
	Resolution string `json:"resolution,omitempty"`
}
