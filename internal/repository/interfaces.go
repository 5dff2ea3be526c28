package repository

import (
	"context"
	"errors"

	"github.com/wirdan1/Webchat/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository handles persistence for users
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	// UpdateProfile overwrites name and phone. A nil avatarURL leaves the
	// stored avatar untouched.
	UpdateProfile(ctx context.Context, id, name, phone string, avatarURL *string) error
	UpdatePushToken(ctx context.Context, id string, pushToken *string) error
	ListWithPushToken(ctx context.Context) ([]*models.User, error)
}

// MessageRepository handles persistence for messages
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListRecent returns up to limit messages, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Message, error)
}

// SessionRepository handles persistence for sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}
