package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/phim-stream/internal/api/middleware"
	"github.com/dom/phim-stream/internal/domain"
	"github.com/dom/phim-stream/internal/service"
)

type UserHandler struct {
	profileService *service.ProfileService
	logger         *slog.Logger
}

func NewUserHandler(profileService *service.ProfileService, logger *slog.Logger) *UserHandler {
	return &UserHandler{profileService: profileService, logger: logger}
}

type UpdateProfileResponse struct {
	Message  string `json:"message"`
	NewToken string `json:"newToken"`
}

type UserResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Avatar    string        `json:"avatar"`
	Gender    domain.Gender `json:"gender"`
	CreatedAt time.Time     `json:"createdAt"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	account, err := h.profileService.GetAccount(r.Context(), claims)
	if err != nil {
		writeServiceError(w, r, h.logger, "me", err)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{User: UserResponse{
		ID:        account.ID.String(),
		Name:      account.Name,
		Email:     account.Email,
		Avatar:    account.Avatar,
		Gender:    account.Gender,
		CreatedAt: account.CreatedAt,
	}})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req service.UpdateProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	newToken, err := h.profileService.UpdateProfile(r.Context(), claims, req)
	if err != nil {
		writeServiceError(w, r, h.logger, "update_profile", err)
		return
	}

	writeJSON(w, http.StatusOK, UpdateProfileResponse{
		Message:  "Profile updated",
		NewToken: newToken,
	})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req service.ChangePasswordInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profileService.ChangePassword(r.Context(), claims, req); err != nil {
		writeServiceError(w, r, h.logger, "change_password", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password changed"})
}
