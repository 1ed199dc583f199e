package ws

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MatchesUpdatedEvent tells connected consumers that a sync run created
// new matches for a user; they re-read matches with status=new instead of
// polling.
type MatchesUpdatedEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	NewMatches int    `json:"new_matches"`
	Timestamp  string `json:"timestamp"`
}

var defaultHub atomic.Pointer[Hub]

func SetDefaultHub(h *Hub) {
	defaultHub.Store(h)
}

func NotifyMatchesUpdated(userID uuid.UUID, newMatches int) {
	h := defaultHub.Load()
	if h == nil {
		return
	}
	if newMatches <= 0 {
		return
	}

	evt := MatchesUpdatedEvent{
		Type:       "matches_updated",
		UserID:     userID.String(),
		NewMatches: newMatches,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Publish(userID, b)
}
