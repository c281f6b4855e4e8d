package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tesatiki/internal/service"
)

func TestAdminUserHandlers(t *testing.T) {
	h, deps := createTestHandler()
	deps.users.On("ResetPassword", anyCtx, "u1", "Secret123").Return(nil)
	deps.users.On("SetVerified", anyCtx, "u1", true).Return(nil)
	deps.users.On("SetVerified", anyCtx, "u1", false).Return(nil)
	deps.users.On("DeleteUser", anyCtx, "u1").Return(nil)

	body := map[string]string{"userId": "u1", "newPassword": "Secret123"}
	routes := []struct {
		name    string
		path    string
		handler http.HandlerFunc
	}{
		{"reset password", "/api/admin/reset-password", h.ResetPassword},
		{"verify", "/api/admin/verify-user", h.VerifyUser},
		{"unverify", "/api/admin/unverify-user", h.UnverifyUser},
		{"delete", "/api/admin/delete-user", h.DeleteUser},
	}

	for _, route := range routes {
		t.Run(route.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			route.handler(rr, jsonRequest(t, http.MethodPost, route.path, body))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, `{"success":true}`, rr.Body.String())
		})
	}
	deps.users.AssertExpectations(t)
}

func TestDeleteUserHandler_NotFound(t *testing.T) {
	h, deps := createTestHandler()
	deps.users.On("DeleteUser", anyCtx, "ghost").
		Return(&service.Error{Kind: service.ErrNotFound, Message: "User not found"})

	rr := httptest.NewRecorder()
	h.DeleteUser(rr, jsonRequest(t, http.MethodPost, "/api/admin/delete-user", map[string]string{"userId": "ghost"}))

	assertJSONError(t, rr, http.StatusNotFound, "User not found")
}
