package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zaphub/ticket-lifecycle/internal/auth"
	"github.com/zaphub/ticket-lifecycle/internal/config"
	apperrors "github.com/zaphub/ticket-lifecycle/pkg/util"
)

// AuthHandler issues admin tokens for the engine's settings API. The engine
// carries no user store; the single admin credential comes from config.
type AuthHandler struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(cfg config.AuthConfig, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, tokens: tokens}
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CompanyID int64  `json:"companyId"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login verifies the configured admin credential and issues a tenant-scoped
// admin token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.CompanyID <= 0 {
		return apperrors.NewValidationError("companyId is required", nil)
	}
	if h.cfg.AdminPasswordHash == "" {
		return apperrors.NewUnauthorized("admin API not configured")
	}
	if !strings.EqualFold(req.Email, h.cfg.AdminEmail) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(h.cfg.AdminPasswordHash, req.Password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.CompanyID, auth.ProfileAdmin)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(loginResponse{Token: token, ExpiresAt: expiresAt})
}
