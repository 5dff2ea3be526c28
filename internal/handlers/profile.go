package handlers

import (
	"errors"
	"net/http"

	"github.com/wirdan1/Webchat/internal/middleware"
	"github.com/wirdan1/Webchat/internal/services"

	"github.com/rs/zerolog/log"
)

const maxAvatarBytes = 5 << 20

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(userService *services.UserService, sessionService *services.SessionService) *ProfileHandler {
	return &ProfileHandler{
		userService:    userService,
		sessionService: sessionService,
	}
}

// GetProfile handles GET /api/v1/profile. Fails silently: a missing cookie,
// an invalid session or a vanished user all answer a null body.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil {
		respondJSON(w, http.StatusOK, nil)
		return
	}

	userID, err := h.sessionService.Validate(ctx, cookie.Value)
	if err != nil {
		respondJSON(w, http.StatusOK, nil)
		return
	}

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondJSON(w, http.StatusOK, nil)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get profile")
		respondError(w, "Failed to get profile", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/v1/profile (multipart form: name, phone,
// optional avatar file, optional push_token)
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondError(w, "Invalid or oversized form", http.StatusBadRequest)
		return
	}

	input := services.UpdateProfileInput{
		Name:  r.FormValue("name"),
		Phone: r.FormValue("phone"),
	}
	if input.Name == "" || input.Phone == "" {
		respondError(w, "name and phone are required", http.StatusBadRequest)
		return
	}

	if token := r.FormValue("push_token"); token != "" {
		input.PushToken = &token
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		input.Avatar = &services.Upload{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        file,
		}
	}

	if err := h.userService.UpdateProfile(ctx, userID, input); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, "User not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondError(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")
	respondJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
