package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wirdan1/Webchat/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent represents a WebSocket frame in either direction
type WSEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message,omitempty"`
	Text    string          `json:"text,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
	Online  *bool           `json:"online,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// wsClient wraps a connection with a write lock. gorilla/websocket allows at
// most one concurrent writer per connection, and writes come from both
// handler goroutines and HTTP send goroutines.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages the WebSocket connections of the room. One connection per
// user; a new connection replaces the previous one.
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[string]*wsClient),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if existing, ok := h.clients[userID]; ok {
		existing.conn.Close()
	}
	h.clients[userID] = &wsClient{conn: conn}
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")

	online := true
	h.broadcastPresence(userID, &online)
}

// Unregister removes a user's WebSocket connection. Only the connection that
// is currently registered may take its user offline: a stale handler winding
// down after a reconnect must not kick the replacement.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	client, ok := h.clients[userID]
	if ok && client.conn == conn {
		delete(h.clients, userID)
	} else {
		ok = false
	}
	h.mu.Unlock()

	conn.Close()

	if ok {
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
		online := false
		h.broadcastPresence(userID, &online)
	}
}

// SendToUser sends an event to a specific user
func (h *WSHub) SendToUser(userID string, event WSEvent) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send event: %w", err)
	}

	return nil
}

// BroadcastMessage pushes a new message to every connected user
func (h *WSHub) BroadcastMessage(msg *models.Message) {
	h.broadcast(WSEvent{Type: "message", Message: msg})
}

// IsOnline checks if a user has a live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// OnlineUserIDs returns the IDs of all connected users
func (h *WSHub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *WSHub) broadcastPresence(userID string, online *bool) {
	h.broadcast(WSEvent{Type: "presence", UserID: userID, Online: online})
}

func (h *WSHub) broadcast(event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	clients := make(map[string]*wsClient, len(h.clients))
	for id, client := range h.clients {
		clients[id] = client
	}
	h.mu.RUnlock()

	for id, client := range clients {
		if err := client.write(data); err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("Failed to broadcast event")
			h.Unregister(id, client.conn)
		}
	}
}
