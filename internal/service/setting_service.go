package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
	"github.com/zaphub/ticket-lifecycle/internal/events"
	"github.com/zaphub/ticket-lifecycle/internal/lifecycle"
	"github.com/zaphub/ticket-lifecycle/internal/repository"
	apperrors "github.com/zaphub/ticket-lifecycle/pkg/util"
)

// SettingService owns the per-tenant settings write path. Writing either
// escalation key recomputes the derived poll interval and restarts (or
// stops) the escalation timer as part of the same operation, not as a side
// effect discovered later.
type SettingService struct {
	settings   repository.SettingRepository
	escalation *lifecycle.EscalationScheduler
	bus        events.Bus
	logger     *zap.Logger
}

// SettingDependencies bundles collaborators.
type SettingDependencies struct {
	Settings   repository.SettingRepository
	Escalation *lifecycle.EscalationScheduler
	Bus        events.Bus
	Logger     *zap.Logger
}

// NewSettingService creates the service.
func NewSettingService(deps SettingDependencies) *SettingService {
	return &SettingService{
		settings:   deps.Settings,
		escalation: deps.Escalation,
		bus:        deps.Bus,
		logger:     deps.Logger,
	}
}

// List returns every setting for the tenant.
func (s *SettingService) List(ctx context.Context, companyID int64) ([]domain.Setting, error) {
	settings, err := s.settings.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}

// Update persists the key/value pair for the tenant, reconfigures the
// escalation timer when an escalation key changed, and announces the update
// on the tenant's main channel.
func (s *SettingService) Update(ctx context.Context, companyID int64, key, value string) (*domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.NewValidationError("setting key is required", nil)
	}

	setting, err := s.settings.Upsert(ctx, companyID, key, value)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if key == domain.SettingKeyEscalationEnabled || key == domain.SettingKeyEscalationWaitMinutes {
		if err := s.escalation.Reconfigure(ctx, companyID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	channel := fmt.Sprintf("company-%d-mainchannel", companyID)
	event := fmt.Sprintf("company-%d-settings", companyID)
	payload := map[string]any{"action": "update", "setting": setting}
	if err := s.bus.Publish(ctx, channel, event, payload); err != nil {
		// Fire-and-forget: the write already succeeded.
		s.logger.Error("failed to publish setting update",
			zap.Int64("company_id", companyID),
			zap.String("key", key),
			zap.Error(err))
	}

	return setting, nil
}
