package handlers

import (
	"errors"
	"net/http"

	"github.com/wirdan1/Webchat/internal/middleware"
	"github.com/wirdan1/Webchat/internal/models"
	"github.com/wirdan1/Webchat/internal/services"

	"github.com/rs/zerolog/log"
)

const maxAttachmentBytes = 25 << 20

// MessageHandler handles message HTTP requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// ListMessages handles GET /api/v1/messages
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messages, err := h.messageService.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list messages")
		respondError(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	respondJSON(w, http.StatusOK, messages)
}

// SendMessage handles POST /api/v1/messages (multipart form: text, optional file)
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxAttachmentBytes)
	if err := r.ParseMultipartForm(maxAttachmentBytes); err != nil {
		respondError(w, "Invalid or oversized form", http.StatusBadRequest)
		return
	}

	text := r.FormValue("text")

	var upload *services.Upload
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		upload = &services.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        file,
		}
	}

	if text == "" && upload == nil {
		respondError(w, "message is empty", http.StatusBadRequest)
		return
	}

	msg, err := h.messageService.Send(ctx, userID, text, upload)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send message")
		respondError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Str("message_id", msg.ID).Msg("Message sent")
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ActiveUsers handles GET /api/v1/users/active
func (h *MessageHandler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.messageService.ActiveUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active users")
		respondError(w, "Failed to list active users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	respondJSON(w, http.StatusOK, users)
}
