package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wirdan1/Webchat/internal/models"
	"github.com/wirdan1/Webchat/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ListLimit caps how many messages a single List call returns.
const ListLimit = 100

const previewRunes = 80

// MessageService handles message business logic
type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	storage     ObjectStorage
	hub         *WSHub
	notifier    *Notifier
}

// NewMessageService creates a new message service. hub is required; notifier
// may be nil when push notifications are not configured.
func NewMessageService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	storage ObjectStorage,
	hub *WSHub,
	notifier *Notifier,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		storage:     storage,
		hub:         hub,
		notifier:    notifier,
	}
}

// Send posts a message to the room. The author's name is snapshotted onto the
// message at send time. An attachment, if present, is stored through the
// object storage boundary. Broadcast and push fan-out are best-effort and
// never fail the send.
func (s *MessageService) Send(ctx context.Context, userID, text string, file *Upload) (*models.Message, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up author: %w", err)
	}

	msg := &models.Message{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		UserName:  user.Name,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if file != nil {
		key := fmt.Sprintf("attachments/%s/%s", msg.ID, file.Name)
		url, err := s.storage.Store(ctx, key, file.ContentType, file.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		msg.FileURL = &url
		msg.FileType = &file.ContentType
		msg.FileName = &file.Name
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.hub.BroadcastMessage(msg)
	if s.notifier != nil {
		go s.notifyOffline(msg)
	}

	return msg, nil
}

// List returns the newest messages, capped at ListLimit, in ascending
// creation order (oldest of the window first).
func (s *MessageService) List(ctx context.Context) ([]*models.Message, error) {
	messages, err := s.messageRepo.ListRecent(ctx, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// Repository returns newest first; the room renders oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ActiveUsers returns the users that currently hold a live WebSocket connection
func (s *MessageService) ActiveUsers(ctx context.Context) ([]*models.User, error) {
	ids := s.hub.OnlineUserIDs()
	if len(ids) == 0 {
		return nil, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve active users: %w", err)
	}
	return users, nil
}

// notifyOffline alerts users with a registered device token that are not
// currently connected
func (s *MessageService) notifyOffline(msg *models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := s.userRepo.ListWithPushToken(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list push targets")
		return
	}

	body := msg.Text
	if runes := []rune(body); len(runes) > previewRunes {
		body = string(runes[:previewRunes])
	}
	if body == "" && msg.FileName != nil {
		body = *msg.FileName
	}

	for _, user := range users {
		if user.ID == msg.UserID || s.hub.IsOnline(user.ID) {
			continue
		}
		if err := s.notifier.Notify(*user.PushToken, msg.UserName, body); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send push notification")
		}
	}
}
