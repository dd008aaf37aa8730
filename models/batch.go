package models

// BatchResponse is the immediate response for POST /api/v1/batch/resolve.
type BatchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Completed int          `json:"completed"`
	Total     int          `json:"total"`
	Results   []*BatchItem `json:"results,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// BatchItem is the outcome for one query of a batch.
type BatchItem struct {
	Query string         `json:"query"`
	Entry *ResolvedEntry `json:"entry"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// BatchJob tracks an in-progress batch resolution.
type BatchJob struct {
	ID            string
	Status        string // "processing", "completed", "failed", "partial"
	Total         int
	Completed     int
	Results       []*BatchItem
	Error         *ErrorDetail
	CreatedAt     int64 // unix timestamp
	WebhookURL    string
	WebhookSecret string
}
