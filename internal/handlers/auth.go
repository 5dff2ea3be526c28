package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wirdan1/Webchat/internal/middleware"
	"github.com/wirdan1/Webchat/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	secureCookies  bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService, sessionService *services.SessionService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		sessionService: sessionService,
		secureCookies:  secureCookies,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse carries the id of the authenticated user
type AuthResponse struct {
	ID string `json:"id"`
}

// Register handles POST /api/v1/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Phone == "" || req.Password == "" {
		respondError(w, "name, phone and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(ctx, req.Name, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrPhoneExists) {
			respondError(w, "User with this phone number already exists", http.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("Failed to register user")
		respondError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	if err := h.establishSession(w, r, user.ID); err != nil {
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusOK, AuthResponse{ID: user.ID})
}

// Login handles POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Login(ctx, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("Failed to log in user")
		respondError(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	if err := h.establishSession(w, r, user.ID); err != nil {
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, AuthResponse{ID: user.ID})
}

// Logout handles POST /api/v1/logout. Revokes the session server-side and
// clears the cookie; idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.sessionService.Revoke(r.Context(), cookie.Value); err != nil {
			log.Error().Err(err).Msg("Failed to revoke session")
			respondError(w, "Failed to log out", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		MaxAge:   -1,
	})

	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, userID string) error {
	token, err := h.sessionService.Issue(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to issue session")
		respondError(w, "Failed to establish session", http.StatusInternalServerError)
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(services.SessionTTL.Seconds()),
	})
	return nil
}
