package handlers

import (
	"net/http"
)

// AdminUserRequest is the body of the admin account routes.
type AdminUserRequest struct {
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req AdminUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.ResetPassword(r.Context(), req.UserID, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handlers) VerifyUser(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, true)
}

func (h *Handlers) UnverifyUser(w http.ResponseWriter, r *http.Request) {
	h.setVerified(w, r, false)
}

func (h *Handlers) setVerified(w http.ResponseWriter, r *http.Request, verified bool) {
	var req AdminUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.SetVerified(r.Context(), req.UserID, verified); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.UserService.DeleteUser(r.Context(), req.UserID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, SuccessResponse{Success: true}, http.StatusOK)
}
