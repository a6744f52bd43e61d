// Package realtime pushes per-user events (meal logged, recommendation
// accepted, reminder due) to connected websocket clients.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nutrition-backend/internal/shared/telemetry"
)

// Event types.
const (
	EventMealLogged         = "meal.logged"
	EventMealDeleted        = "meal.deleted"
	EventRecommendationTake = "recommendation.accepted"
	EventReminder           = "reminder.due"
	EventGoalsUpdated       = "goals.updated"
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Publisher is the narrow interface domain services depend on.
type Publisher interface {
	Publish(userID string, ev Event) int
}

const sendBuffer = 16

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Hub tracks websocket clients by user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

var _ Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set := h.clients[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Connected reports how many sockets a user has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish queues ev for every socket of userID and returns how many accepted
// it. Slow clients whose buffer is full miss the event.
func (h *Hub) Publish(userID string, ev Event) int {
	if h == nil {
		return 0
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		telemetry.Error("realtime.encode_failed", map[string]any{"user_id": userID, "type": ev.Type, "error": err})
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
			delivered++
		default:
			telemetry.Warn("realtime.dropped", map[string]any{"user_id": userID, "type": ev.Type})
		}
	}
	return delivered
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*client]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for c := range set {
			c.close()
		}
	}
}
