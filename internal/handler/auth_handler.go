package handlers

import (
	"net/http"

	"tesatiki/internal/models"
	"tesatiki/internal/validation"
)

type RegisterRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type UserResponse struct {
	Success bool         `json:"success,omitempty"`
	User    *models.User `json:"user"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AuthService.Register(r.Context(), req.Phone, req.Password, req.FullName); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, LoginResponse{Token: token, User: user}, http.StatusOK)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.AuthService.Me(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, UserResponse{User: user}, http.StatusOK)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req validation.ProfileInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.AuthService.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, UserResponse{Success: true, User: user}, http.StatusOK)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		WriteError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, SuccessResponse{Success: true, Message: "Password changed successfully"}, http.StatusOK)
}
