package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/wirdan1/Webchat/internal/models"
	"github.com/wirdan1/Webchat/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPhoneExists is returned when registering a phone number that is taken.
	ErrPhoneExists = errors.New("phone number already registered")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a referenced user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// UserService handles account business logic
type UserService struct {
	userRepo repository.UserRepository
	storage  ObjectStorage
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, storage ObjectStorage) *UserService {
	return &UserService{
		userRepo: userRepo,
		storage:  storage,
	}
}

// Register creates a new user. The phone number must not be registered yet.
// Passwords are stored as bcrypt hashes, never in cleartext.
func (s *UserService) Register(ctx context.Context, name, phone, password string) (*models.User, error) {
	exists, err := s.userRepo.PhoneExists(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone existence: %w", err)
	}
	if exists {
		return nil, ErrPhoneExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration may win the phone between the pre-check
		// and the insert.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrPhoneExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies phone and password and returns the matching user
func (s *UserService) Login(ctx context.Context, phone, password string) (*models.User, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetProfile retrieves a user by ID
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput carries the profile fields a user may change.
type UpdateProfileInput struct {
	Name      string
	Phone     string
	Avatar    *Upload
	PushToken *string
}

// UpdateProfile overwrites name and phone and, when an avatar is supplied,
// stores it through the object storage boundary and records its URL.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) error {
	var avatarURL *string
	if input.Avatar != nil {
		key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), path.Ext(input.Avatar.Name))
		url, err := s.storage.Store(ctx, key, input.Avatar.ContentType, input.Avatar.Data)
		if err != nil {
			return fmt.Errorf("failed to store avatar: %w", err)
		}
		avatarURL = &url
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, input.Name, input.Phone, avatarURL); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if input.PushToken != nil {
		if err := s.userRepo.UpdatePushToken(ctx, userID, input.PushToken); err != nil {
			return fmt.Errorf("failed to update push token: %w", err)
		}
	}

	return nil
}
