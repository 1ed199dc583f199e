package listing

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Listing is the canonical record for one advertised property. ExternalID
// is the stable identifier assigned by the source; there is exactly one
// Listing per ExternalID. DateFound is set once on insert and never
// changes afterwards.
type Listing struct {
	ID          uuid.UUID
	ExternalID  string
	Source      string
	Title       *string
	Description *string
	Price       *float64
	Bedrooms    *int
	Bathrooms   *float64
	Address     *string
	URL         *string
	ImageURL    *string

	PropertyType  *string
	AvailableFrom *string

	ContactName  *string
	ContactEmail *string
	ContactPhone *string

	// Raw holds the source payload as returned by the adapter. It is
	// replaced wholesale whenever a watched field changes.
	Raw []byte

	Status      string
	DateFound   time.Time
	LastUpdated time.Time
}
