package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zaphub/ticket-lifecycle/internal/auth"
	"github.com/zaphub/ticket-lifecycle/internal/service"
	apperrors "github.com/zaphub/ticket-lifecycle/pkg/util"
)

// SettingsHandler exposes per-tenant settings reads and the write path that
// drives the escalation timer.
type SettingsHandler struct {
	settings *service.SettingService
}

// NewSettingsHandler returns a new handler instance.
func NewSettingsHandler(settings *service.SettingService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

// List returns all settings for the caller's tenant.
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	settings, err := h.settings.List(c.UserContext(), principal.CompanyID)
	if err != nil {
		return err
	}
	return c.JSON(settings)
}

// Update writes one setting key for the caller's tenant.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req updateSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	setting, err := h.settings.Update(c.UserContext(), principal.CompanyID, c.Params("key"), req.Value)
	if err != nil {
		return err
	}
	return c.JSON(setting)
}
