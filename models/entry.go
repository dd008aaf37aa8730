package models

// SourceAPKMirror is the source tag written into every entry resolved from
// apkmirror.com.
const SourceAPKMirror = "apkmirror"

// Candidate is one raw entry parsed from a listing page, not yet
// deduplicated or resolved.
type Candidate struct {
	// Title is the display title exactly as listed.
	Title string `json:"title"`

	// URL is the absolute detail-page URL.
	URL string `json:"url"`

	// Developer is the publisher name, when the listing shows one.
	Developer string `json:"developer,omitempty"`

	// Version is set only when the title's last token is a dotted number.
	Version string `json:"version,omitempty"`
}

// ResolvedEntry is the per-application record handed to the downloader.
// It is "complete" once both download URLs are set.
type ResolvedEntry struct {
	Title               string `json:"title"`
	URL                 string `json:"url"`
	Source              string `json:"source"`
	Description         string `json:"description,omitempty"`
	Version             string `json:"version,omitempty"`
	Developer           string `json:"developer,omitempty"`
	DirectDownloadURL   string `json:"direct_download_url,omitempty"`
	FallbackDownloadURL string `json:"fallback_download_url,omitempty"`
}

// NewResolvedEntry copies the candidate fields into a fresh entry.
func NewResolvedEntry(c Candidate, source string) *ResolvedEntry {
	return &ResolvedEntry{
		Title:     c.Title,
		URL:       c.URL,
		Source:    source,
		Version:   c.Version,
		Developer: c.Developer,
	}
}

// Complete reports whether both the primary and fallback URLs are known.
func (e *ResolvedEntry) Complete() bool {
	return e.DirectDownloadURL != "" && e.FallbackDownloadURL != ""
}

// Clone returns a copy that callers may mutate freely.
func (e *ResolvedEntry) Clone() *ResolvedEntry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
