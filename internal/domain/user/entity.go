package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        string
	FirstName           *string
	LastName            *string
	Phone               *string
	EmailAutomated      bool
	EmailReviewRequired bool
	Preferences         *Preferences
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Preferences is the rental search snapshot consumed by the sync engine.
// The engine only reads it; the profile surface owns mutation.
type Preferences struct {
	Location      string   `json:"location"`
	MinPrice      *int     `json:"min_price,omitempty"`
	MaxPrice      *int     `json:"max_price,omitempty"`
	MinBedrooms   *int     `json:"min_bedrooms,omitempty"`
	MinBathrooms  *float64 `json:"min_bathrooms,omitempty"`
	PropertyTypes []string `json:"property_types,omitempty"`
}

func (p *Preferences) Empty() bool {
	if p == nil {
		return true
	}
	return p.Location == "" && p.MinPrice == nil && p.MaxPrice == nil &&
		p.MinBedrooms == nil && p.MinBathrooms == nil && len(p.PropertyTypes) == 0
}
