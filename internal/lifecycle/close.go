package lifecycle

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
	"github.com/zaphub/ticket-lifecycle/internal/messaging"
	"github.com/zaphub/ticket-lifecycle/internal/observability"
	"github.com/zaphub/ticket-lifecycle/internal/repository"
	"github.com/zaphub/ticket-lifecycle/internal/template"
	apperrors "github.com/zaphub/ticket-lifecycle/pkg/util"
)

// botMessageMarker prefixes engine-authored sends so the inbound handler
// recognizes them as non-human.
const botMessageMarker = "‎"

// CloseJob closes autoassigned tickets whose channel has seen no activity
// past the tenant's idle-close timeout, clearing bot-integration state and
// optionally sending a closing notice. Closing is idempotent: a closed
// ticket no longer matches the status filter on the next tick.
type CloseJob struct {
	tickets  repository.TicketRepository
	channels repository.ChannelRepository
	sender   messaging.Sender
	metrics  *observability.Metrics
	logger   *zap.Logger
	clock    func() time.Time
}

// CloseDependencies bundles collaborators.
type CloseDependencies struct {
	Tickets  repository.TicketRepository
	Channels repository.ChannelRepository
	Sender   messaging.Sender
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewCloseJob creates the job.
func NewCloseJob(deps CloseDependencies) *CloseJob {
	return &CloseJob{
		tickets:  deps.Tickets,
		channels: deps.Channels,
		sender:   deps.Sender,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		clock:    time.Now,
	}
}

// Run executes one close pass. Only the initial fetch can fail the pass;
// everything after is isolated per ticket.
func (j *CloseJob) Run(ctx context.Context) error {
	tickets, err := j.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:    []domain.TicketStatus{domain.TicketStatusAutoAssigned},
		WithContact: true,
	})
	if err != nil {
		return err
	}

	closed := 0
	for _, ticket := range tickets {
		if j.process(ctx, ticket) {
			closed++
		}
	}

	if closed > 0 {
		j.metrics.RecordEngine("tickets_closed", int64(closed))
	}
	j.logger.Info("inactivity close pass finished",
		zap.Int("candidates", len(tickets)),
		zap.Int("closed", closed))
	return nil
}

func (j *CloseJob) process(ctx context.Context, ticket domain.Ticket) bool {
	channel, err := j.channels.GetByCompany(ctx, ticket.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			j.logger.Warn("no channel configured for company",
				zap.Int64("company_id", ticket.CompanyID),
				zap.Int64("ticket_id", ticket.ID))
		} else {
			j.logger.Error("failed to load channel config",
				zap.Int64("company_id", ticket.CompanyID),
				zap.Error(err))
		}
		return false
	}

	minutes, err := j.closeTimeout(channel)
	if err != nil {
		if apperrors.IsConfigurationMissing(err) {
			j.logger.Warn("idle-close timeout not configured",
				zap.Int64("channel_id", channel.ID),
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err))
		} else {
			j.logger.Error("failed to resolve idle-close timeout",
				zap.Int64("channel_id", channel.ID),
				zap.Error(err))
		}
		return false
	}
	if minutes <= 0 {
		return false
	}

	if ticket.UpdatedAt.IsZero() {
		j.logger.Warn("ticket has no updatedAt; skipping",
			zap.Int64("ticket_id", ticket.ID))
		return false
	}

	cutoff := j.clock().Add(-time.Duration(minutes) * time.Minute)
	if !ticket.UpdatedAt.Before(cutoff) {
		return false
	}

	if err := j.tickets.CloseInactive(ctx, ticket.ID); err != nil {
		j.logger.Error("failed to close inactive ticket",
			zap.Int64("ticket_id", ticket.ID),
			zap.Error(err))
		return false
	}
	j.logger.Info("ticket closed for inactivity",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("company_id", ticket.CompanyID),
		zap.Int("timeout_minutes", minutes))

	j.sendClosingNotice(ctx, ticket, channel)
	return true
}

// closeTimeout parses the channel's idle-close minutes. Absent or
// non-numeric values yield a CONFIGURATION_MISSING error the caller treats
// as a per-ticket skip; a non-positive value is a valid "disabled" config.
func (j *CloseJob) closeTimeout(channel *domain.Channel) (int, error) {
	raw := strings.TrimSpace(channel.ExpiresTicket)
	if raw == "" {
		return 0, apperrors.NewConfigurationMissing("idle-close timeout not set",
			map[string]any{"channelId": channel.ID})
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewConfigurationMissing("idle-close timeout is not numeric",
			map[string]any{"channelId": channel.ID, "value": raw})
	}
	return minutes, nil
}

// sendClosingNotice renders and delivers the channel's closing message.
// Delivery failure does not roll back the close; the ticket stays closed.
func (j *CloseJob) sendClosingNotice(ctx context.Context, ticket domain.Ticket, channel *domain.Channel) {
	if channel.ExpiresInactiveMessage == "" {
		return
	}
	if ticket.Contact == nil || ticket.Contact.Number == "" {
		j.logger.Error("no contact number for closing notice",
			zap.Int64("ticket_id", ticket.ID))
		return
	}

	body := template.Render(botMessageMarker+" "+channel.ExpiresInactiveMessage, template.Contact{
		Name:   ticket.Contact.Name,
		Number: ticket.Contact.Number,
		Email:  ticket.Contact.Email,
	})

	if err := j.sender.SendMessage(ctx, ticket, *ticket.Contact, body); err != nil {
		j.logger.Error("failed to send closing notice",
			zap.Int64("ticket_id", ticket.ID),
			zap.Error(err))
		return
	}
	j.logger.Info("closing notice sent", zap.Int64("ticket_id", ticket.ID))
}
