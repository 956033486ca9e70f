package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/changex/eduspace/internal/pkg/events"
)

// Update is the wire format pushed to subscribed clients.
type Update struct {
	Type       string          `json:"type"`
	OfferingID int64           `json:"offeringId"`
	UserID     int64           `json:"userId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Hub maintains the set of connected clients grouped by course offering
// and pushes updates to them.
type Hub struct {
	rooms map[int64]map[*Client]bool

	broadcast  chan *Update
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[int64]map[*Client]bool),
		broadcast:  make(chan *Update, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts. Call it in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case update := <-h.broadcast:
			h.broadcastUpdate(update)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.offeringID]; !ok {
		h.rooms[client.offeringID] = make(map[*Client]bool)
	}
	h.rooms[client.offeringID][client] = true

	h.logger.Info().
		Int64("offeringID", client.offeringID).
		Int64("userID", client.userID).
		Msg("Realtime client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.offeringID]
	if !ok {
		return
	}
	if _, ok := room[client]; ok {
		delete(room, client)
		close(client.send)
		if len(room) == 0 {
			delete(h.rooms, client.offeringID)
		}

		h.logger.Info().
			Int64("offeringID", client.offeringID).
			Int64("userID", client.userID).
			Msg("Realtime client unregistered")
	}
}

func (h *Hub) broadcastUpdate(update *Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[update.OfferingID]
	if !ok {
		return
	}

	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error().Err(err).Int64("offeringID", update.OfferingID).
			Msg("Failed to marshal realtime update")
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			// Slow client, drop the connection rather than block the hub.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// Broadcast queues an update for delivery to the offering's room.
func (h *Hub) Broadcast(update *Update) {
	select {
	case h.broadcast <- update:
	default:
		h.logger.Warn().Int64("offeringID", update.OfferingID).
			Msg("Realtime broadcast queue full, update dropped")
	}
}

// ClientCount returns the number of connected clients for an offering.
func (h *Hub) ClientCount(offeringID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[offeringID])
}

// EventHandler adapts the hub into a dispatcher handler so that
// enrollment and grade events reach subscribed clients.
func (h *Hub) EventHandler() events.Handler {
	return events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if event.OfferingID == 0 {
			return nil
		}

		var payload json.RawMessage
		if len(event.Payload) > 0 {
			data, err := json.Marshal(event.Payload)
			if err != nil {
				return err
			}
			payload = data
		}

		h.Broadcast(&Update{
			Type:       event.Type,
			OfferingID: event.OfferingID,
			UserID:     event.UserID,
			Payload:    payload,
			Timestamp:  event.OccurredAt,
		})
		return nil
	})
}
