// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// SessionService is the part of the session manager the auth routes use
type SessionService interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*session.Result, error)
	Login(ctx context.Context, email, password string) (*session.Result, error)
	Refresh(ctx context.Context, s *session.Session, identity *user.Identity) error
	Logout(ctx context.Context, s *session.Session)
}

// AccountService manages the signed-in account
type AccountService interface {
	GetProfile(ctx context.Context, id uint) (*user.User, error)
	UpdateProfile(ctx context.Context, id uint, req *user.UpdateProfileRequest) (*user.Identity, error)
	ChangePassword(ctx context.Context, id uint, req *user.ChangePasswordRequest) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	sessions SessionService
	accounts AccountService
	log      logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions SessionService, accounts AccountService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		accounts: accounts,
		log:      log,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	result, err := h.sessions.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to register user")
		return
	}

	respondOK(c, http.StatusCreated, "User registered successfully", result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err, "Failed to sign in")
		return
	}

	respondOK(c, http.StatusOK, "Login successful", result)
}

// Logout handles POST /auth/logout. Signing out always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	s, _ := middleware.SessionFromContext(c)
	h.sessions.Logout(c.Request.Context(), s)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	profile, err := h.accounts.GetProfile(c.Request.Context(), identity.ID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve profile")
		return
	}

	respondOK(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// UpdateMe handles PUT /auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	updated, err := h.accounts.UpdateProfile(c.Request.Context(), identity.ID, &req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update profile")
		return
	}

	if s, ok := middleware.SessionFromContext(c); ok {
		if err := h.sessions.Refresh(c.Request.Context(), s, updated); err != nil {
			h.log.WithError(err).WithField("user_id", identity.ID).Warn("session identity refresh failed")
		}
	}
	middleware.SetIdentity(c, updated)

	respondOK(c, http.StatusOK, "Profile updated successfully", updated)
}

// ChangePassword handles PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req user.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	if err := h.accounts.ChangePassword(c.Request.Context(), identity.ID, &req); err != nil {
		respondError(c, h.log, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}
