package handler

import (
	"net/http"

	"github.com/pokerledger/platform/internal/domain"
	"github.com/pokerledger/platform/internal/service"
)

// AuthHandler handles login and user administration endpoints.
type AuthHandler struct {
	authSvc *service.AuthService
	proxies *TrustedProxies
}

// NewAuthHandler creates a new AuthHandler. proxies may be nil.
func NewAuthHandler(authSvc *service.AuthService, proxies *TrustedProxies) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, proxies: proxies}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := DecodeAndValidate(r, &input); err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.authSvc.Login(r.Context(), input, h.proxies.ClientIP(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/logout. Tokens are self-contained, so the client drops its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	RespondMessage(w, "Logged out successfully")
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeAndValidate(r, &input); err != nil {
		RespondError(w, err)
		return
	}

	user, err := h.authSvc.Register(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, user)
}

// Me handles GET /api/users/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	self, err := h.authSvc.GetSelf(r.Context(), id)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, self)
}

// ListUsers handles GET /api/users.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, users)
}

type changeRoleRequest struct {
	Role domain.Role `json:"role" validate:"required"`
}

// ChangeRole handles PUT /api/users/{userId}/role.
func (h *AuthHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var req changeRoleRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	if err := h.authSvc.ChangeRole(r.Context(), userID, req.Role); err != nil {
		RespondError(w, err)
		return
	}
	RespondMessage(w, "User role updated successfully")
}

// ChangePassword handles PUT /api/users/{userId}/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	userID, err := uuidParam(r, "userId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var input service.ChangePasswordInput
	if err := DecodeAndValidate(r, &input); err != nil {
		RespondError(w, err)
		return
	}

	if err := h.authSvc.ChangePassword(r.Context(), id, userID, input); err != nil {
		RespondError(w, err)
		return
	}
	RespondMessage(w, "Password updated successfully")
}

type updateProfileRequest struct {
	Username string `json:"username" validate:"required"`
}

// UpdateProfile handles PUT /api/users/{userId}/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	userID, err := uuidParam(r, "userId")
	if err != nil {
		RespondError(w, err)
		return
	}
	var req updateProfileRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	if err := h.authSvc.UpdateProfile(r.Context(), id, userID, req.Username); err != nil {
		RespondError(w, err)
		return
	}
	RespondMessage(w, "Profile updated successfully")
}

// DeleteUser handles DELETE /api/users/{userId}.
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "userId")
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.authSvc.DeleteUser(r.Context(), userID); err != nil {
		RespondError(w, err)
		return
	}
	RespondMessage(w, "User deleted successfully")
}
