package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wirdan1/Webchat/internal/middleware"
	"github.com/wirdan1/Webchat/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *services.WSHub
	sessionService *services.SessionService
	messageService *services.MessageService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	sessionService *services.SessionService,
	messageService *services.MessageService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		sessionService: sessionService,
		messageService: messageService,
	}
}

// HandleWebSocket handles GET /ws. Authenticates via the session cookie,
// registers the connection with the hub, and routes inbound frames.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil {
		respondError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	userID, err := h.sessionService.Validate(r.Context(), cookie.Value)
	if err != nil {
		respondError(w, "Invalid session", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var event services.WSEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket event")
			h.sendError(userID, "Invalid event format")
			continue
		}

		switch event.Type {
		case "send_message":
			if event.Text == "" {
				h.sendError(userID, "text is required")
				continue
			}
			if _, err := h.messageService.Send(ctx, userID, event.Text, nil); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to send message over WebSocket")
				h.sendError(userID, "Failed to send message")
			}
		default:
			h.sendError(userID, "Unknown event type")
		}
	}
}

// sendError sends an error event to a user. Routed through the hub so the
// write is serialized with broadcasts on the same connection.
func (h *WebSocketHandler) sendError(userID, message string) {
	event := services.WSEvent{
		Type:  "error",
		Error: message,
	}
	if err := h.hub.SendToUser(userID, event); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send error event")
	}
}
