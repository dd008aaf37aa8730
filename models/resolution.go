package models

// Resolution is a successfully resolved direct link for one candidate.
type Resolution struct {
	URL         string
	Description string
	// Hops lists the pages fetched on the way, in order.
	Hops []string
}
