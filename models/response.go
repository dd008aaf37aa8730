package models

// ResolveResponse is the response for POST /api/v1/resolve.
type ResolveResponse struct {
	// Success indicates whether the lookup ran without a systemic error.
	// A query with no match is still a success with a nil Entry.
	Success bool `json:"success"`

	// Query echoes the request query.
	Query string `json:"query"`

	// Entry is the resolved application, or nil when nothing matched.
	Entry *ResolvedEntry `json:"entry"`

	// Complete is true when both primary and fallback URLs were found.
	Complete bool `json:"complete"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent on a request.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Registry     int          `json:"registry_entries"`
	Version      string       `json:"version"`
}

// SessionStats reports the state of the shared site session.
type SessionStats struct {
	Requests          int64 `json:"requests"`
	ChallengesSolved  int64 `json:"challenges_solved"`
	ChallengeFailures int64 `json:"challenge_failures"`
	Blocked           bool  `json:"blocked"`
}
