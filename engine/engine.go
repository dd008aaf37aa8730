package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultUserAgent is sent until a challenge solve hands back the browser's
// own user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Fetcher is what the resolution chain needs from the transport: a GET that
// returns the final page or an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL       string
	Headers   map[string]string
	UserAgent string
	Timeout   time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// Clearance is what a solved challenge leaves behind: the cookies the site
// issued and the user agent they are bound to.
type Clearance struct {
	Cookies   []*http.Cookie
	UserAgent string
}

// StatusError is returned for any non-2xx response. The body is kept so the
// caller can tell a challenge page from an ordinary error page.
type StatusError struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}
