package model

// Response bodies of the clawdash HTTP API. Degraded is set to the failure
// kind when the gateway could not be queried and the collection is empty
// for that reason rather than because there is nothing to show.

// SessionsResponse is the body of GET /api/sessions/list.
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
	Degraded string    `json:"degraded,omitempty"`
}

// JobsResponse is the body of GET /api/cron/list.
type JobsResponse struct {
	Jobs     []ScheduledJob `json:"jobs"`
	Degraded string         `json:"degraded,omitempty"`
}

// AgentsResponse is the body of GET /api/agents/overview.
type AgentsResponse struct {
	AgentsOverview
	Degraded string `json:"degraded,omitempty"`
}

// MutationResponse is the body returned by job update and run.
type MutationResponse struct {
	Success bool `json:"success"`
}

// MemoryStats describes the API server's own memory use.
type MemoryStats struct {
	RSS       uint64 `json:"rss"`
	HeapUsed  uint64 `json:"heapUsed"`
	HeapTotal uint64 `json:"heapTotal"`
}

// SystemStatus is the body of GET /api/system/status.
type SystemStatus struct {
	Gateway GatewayStatus `json:"gateway"`
	Memory  *MemoryStats  `json:"memory,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
