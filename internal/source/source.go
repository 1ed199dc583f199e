package source

import (
	"context"
	"errors"
)

// ErrUnavailable covers every adapter failure mode: network errors,
// non-2xx responses and malformed payloads. Callers record it against
// the current run and move on; no adapter retries internally.
var ErrUnavailable = errors.New("listing source unavailable")

// SearchQuery is the normalized parameter set produced by the criteria
// mapper. Optional fields stay nil and are omitted from the request.
type SearchQuery struct {
	Location     string
	MinPrice     *int
	MaxPrice     *int
	MinBedrooms  *int
	MinBathrooms *float64
	PropertyType string
	Status       string
	Limit        int
	Offset       int
}

// RawListing is one record as returned by a source, before reconciliation.
// ExternalID is stable and unique within the source. Payload carries the
// record as raw JSON for storage alongside the canonical fields.
type RawListing struct {
	ExternalID    string
	Title         string
	Description   string
	Price         float64
	Bedrooms      int
	Bathrooms     float64
	Address       string
	URL           string
	ImageURL      string
	PropertyType  string
	AvailableDate string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	Status        string
	Payload       []byte
}

type Source interface {
	// Name tags listings created from this source.
	Name() string
	Search(ctx context.Context, q SearchQuery) ([]RawListing, error)
}
