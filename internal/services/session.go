package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wirdan1/Webchat/internal/models"
	"github.com/wirdan1/Webchat/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrSessionInvalid is returned for missing, expired, tampered or revoked sessions.
var ErrSessionInvalid = errors.New("invalid session")

// SessionTTL is how long an issued session cookie stays valid.
const SessionTTL = 7 * 24 * time.Hour

// SessionService issues and validates session tokens. A token is a signed JWT
// whose jti must resolve to a live row in the sessions table, so revoking the
// row invalidates the cookie server-side before its expiry.
type SessionService struct {
	sessionRepo repository.SessionRepository
	secret      string
}

// NewSessionService creates a new session service
func NewSessionService(sessionRepo repository.SessionRepository, secret string) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		secret:      secret,
	}
}

// Issue creates a session for a user and returns the signed token
func (s *SessionService) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	claims := jwt.MapClaims{
		"sub": userID,
		"jti": session.ID,
		"exp": session.ExpiresAt.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate checks a token's signature, expiry and backing session row,
// and returns the user ID it was issued for
func (s *SessionService) Validate(ctx context.Context, tokenString string) (string, error) {
	userID, sessionID, err := s.parse(tokenString, true)
	if err != nil {
		return "", ErrSessionInvalid
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSessionInvalid
		}
		return "", fmt.Errorf("failed to look up session: %w", err)
	}

	if session.UserID != userID || time.Now().After(session.ExpiresAt) {
		return "", ErrSessionInvalid
	}

	return userID, nil
}

// Revoke deletes the session backing a token. Idempotent: revoking an
// already-revoked or unparseable token succeeds.
func (s *SessionService) Revoke(ctx context.Context, tokenString string) error {
	_, sessionID, err := s.parse(tokenString, false)
	if err != nil {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// parse verifies the signature and extracts sub and jti claims
func (s *SessionService) parse(tokenString string, validateClaims bool) (userID, sessionID string, err error) {
	opts := []jwt.ParserOption{}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	}, opts...)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	userID, ok = claims["sub"].(string)
	if !ok {
		return "", "", fmt.Errorf("sub not found in token")
	}
	sessionID, ok = claims["jti"].(string)
	if !ok {
		return "", "", fmt.Errorf("jti not found in token")
	}

	return userID, sessionID, nil
}
