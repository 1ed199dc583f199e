package match

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusNew              = "new"
	StatusViewed           = "viewed"
	StatusContacted        = "contacted"
	StatusViewingScheduled = "viewing_scheduled"
	StatusRejected         = "rejected"
)

// Match links one user to one listing. The (UserID, ListingID) pair is
// unique; a match is created once and never deleted. DateMatched is
// immutable after creation.
type Match struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ListingID   uuid.UUID
	Status      string
	Contacted   bool
	DateMatched time.Time
	LastUpdated time.Time
}

func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusViewed, StatusContacted, StatusViewingScheduled, StatusRejected:
		return true
	}
	return false
}
