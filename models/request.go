package models

// ResolveRequest is the payload for POST /api/v1/resolve.
type ResolveRequest struct {
	// Query is the free-text application name to look up. Required.
	Query string `json:"query" binding:"required"`

	// MaxResults overrides the configured attempt budget for this query.
	// Default: the server's max_results. Max: 50.
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1,max=50"`
}

// BatchRequest is the payload for POST /api/v1/batch/resolve.
type BatchRequest struct {
	// Queries is the ordered list of application names. Required.
	Queries []string `json:"queries" binding:"required,min=1,max=200"`

	// WebhookURL receives a signed "batch.completed" event when the job ends.
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}
