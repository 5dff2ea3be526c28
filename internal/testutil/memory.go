// Package testutil provides in-memory implementations of the repository and
// storage interfaces for tests that do not need a real database.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/wirdan1/Webchat/internal/models"
	"github.com/wirdan1/Webchat/internal/repository"
)

// MemUserRepo is an in-memory repository.UserRepository
type MemUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: make(map[string]*models.User)}
}

func (r *MemUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the unique constraint on users.phone.
	for _, existing := range r.users {
		if existing.Phone == user.Phone {
			return fmt.Errorf("phone %s: %w", user.Phone, repository.ErrDuplicate)
		}
	}
	u := *user
	r.users[u.ID] = &u
	return nil
}

func (r *MemUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	u := *user
	return &u, nil
}

func (r *MemUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Phone == phone {
			u := *user
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with phone %s: %w", phone, repository.ErrNotFound)
}

func (r *MemUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*models.User
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			u := *user
			users = append(users, &u)
		}
	}
	return users, nil
}

func (r *MemUserRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemUserRepo) UpdateProfile(ctx context.Context, id, name, phone string, avatarURL *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	user.Name = name
	user.Phone = phone
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}
	return nil
}

func (r *MemUserRepo) UpdatePushToken(ctx context.Context, id string, pushToken *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	user.PushToken = pushToken
	return nil
}

func (r *MemUserRepo) ListWithPushToken(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*models.User
	for _, user := range r.users {
		if user.PushToken != nil {
			u := *user
			users = append(users, &u)
		}
	}
	return users, nil
}

// Remove deletes a user directly, simulating out-of-band deletion
func (r *MemUserRepo) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

// MemMessageRepo is an in-memory repository.MessageRepository
type MemMessageRepo struct {
	mu       sync.Mutex
	messages []*models.Message
}

func NewMemMessageRepo() *MemMessageRepo {
	return &MemMessageRepo{}
}

func (r *MemMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *msg
	r.messages = append(r.messages, &m)
	return nil
}

func (r *MemMessageRepo) ListRecent(ctx context.Context, limit int) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]*models.Message, len(r.messages))
	copy(sorted, r.messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]*models.Message, len(sorted))
	for i, msg := range sorted {
		m := *msg
		out[i] = &m
	}
	return out, nil
}

// MemSessionRepo is an in-memory repository.SessionRepository
type MemSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func NewMemSessionRepo() *MemSessionRepo {
	return &MemSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *MemSessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *session
	r.sessions[s.ID] = &s
	return nil
}

func (r *MemSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, repository.ErrNotFound)
	}
	s := *session
	return &s, nil
}

func (r *MemSessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// ExpireAll moves every stored session's expiry into the past
func (r *MemSessionRepo) ExpireAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		session.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// MemStorage is an in-memory services.ObjectStorage
type MemStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (s *MemStorage) Store(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = data
	s.Types[key] = contentType
	return "mem://" + key, nil
}
