package ws

import (
	"log"
	"sync/atomic"

	"github.com/google/uuid"
)

// Hub routes match events to the open sessions of a single user. A
// session only ever receives the feed of the account that
// authenticated it; events are never fanned out across users.
type Hub struct {
	feeds map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	publish    chan userEvent

	sessions atomic.Int64
	logger   *log.Logger
}

type userEvent struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		feeds:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		publish:    make(chan userEvent, 1024),
		logger:     logger,
	}
}

// Run owns the feed table; all mutation happens on this goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if client != nil {
				h.attach(client)
			}

		case client := <-h.unregister:
			if client != nil {
				h.detach(client)
			}

		case evt := <-h.publish:
			for client := range h.feeds[evt.userID] {
				select {
				case client.send <- evt.payload:
				default:
					h.detach(client)
				}
			}
		}
	}
}

func (h *Hub) attach(client *Client) {
	feed, ok := h.feeds[client.userID]
	if !ok {
		feed = make(map[*Client]struct{})
		h.feeds[client.userID] = feed
	}
	feed[client] = struct{}{}
	h.sessions.Add(1)
	if h.logger != nil {
		h.logger.Printf("[WS] session opened | user_id=%s total=%d", client.userID, h.sessions.Load())
	}
}

func (h *Hub) detach(client *Client) {
	feed, ok := h.feeds[client.userID]
	if !ok {
		return
	}
	if _, ok := feed[client]; !ok {
		return
	}
	delete(feed, client)
	close(client.send)
	if len(feed) == 0 {
		delete(h.feeds, client.userID)
	}
	h.sessions.Add(-1)
	if h.logger != nil {
		h.logger.Printf("[WS] session closed | user_id=%s total=%d", client.userID, h.sessions.Load())
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	h.unregister <- client
}

// Publish queues an event for every open session of one user. When the
// hub is saturated the event is dropped; consumers re-read their
// matches on connect, so a dropped nudge is not lost data.
func (h *Hub) Publish(userID uuid.UUID, payload []byte) {
	if h == nil {
		return
	}
	select {
	case h.publish <- userEvent{userID: userID, payload: payload}:
	default:
		if h.logger != nil {
			h.logger.Printf("[WS] event dropped | user_id=%s reason=buffer_full", userID)
		}
	}
}

func (h *Hub) SessionCount() int {
	if h == nil {
		return 0
	}
	return int(h.sessions.Load())
}
