package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
	"github.com/zaphub/ticket-lifecycle/internal/events"
	"github.com/zaphub/ticket-lifecycle/internal/observability"
	"github.com/zaphub/ticket-lifecycle/internal/repository"
)

// notificationChannel is the audience every transfer broadcast reaches in
// addition to the status channel and the ticket's own channel.
const notificationChannel = "notification"

// TicketUpdatePayload is broadcast after a lifecycle transition mutates a
// ticket.
type TicketUpdatePayload struct {
	Action string                   `json:"action"`
	Ticket *domain.TicketProjection `json:"ticket"`
}

// TransferJob moves unassigned autoassigned tickets into their channel's
// fallback queue once the idle-transfer timeout elapses. The ticket update,
// the tracking update and the broadcast form a short saga: each step
// tolerates the previous one having completed without it.
type TransferJob struct {
	tickets   repository.TicketRepository
	trackings repository.TrackingRepository
	channels  repository.ChannelRepository
	bus       events.Bus
	metrics   *observability.Metrics
	logger    *zap.Logger
	clock     func() time.Time
}

// TransferDependencies bundles collaborators.
type TransferDependencies struct {
	Tickets   repository.TicketRepository
	Trackings repository.TrackingRepository
	Channels  repository.ChannelRepository
	Bus       events.Bus
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// NewTransferJob creates the job.
func NewTransferJob(deps TransferDependencies) *TransferJob {
	return &TransferJob{
		tickets:   deps.Tickets,
		trackings: deps.Trackings,
		channels:  deps.Channels,
		bus:       deps.Bus,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		clock:     time.Now,
	}
}

// Run executes one transfer pass. Per-ticket transfers run concurrently;
// one ticket's failure never cancels the others.
func (j *TransferJob) Run(ctx context.Context) error {
	tickets, err := j.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:   []domain.TicketStatus{domain.TicketStatusAutoAssigned},
		QueueUnset: true,
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, ticket := range tickets {
		wg.Add(1)
		go func(t domain.Ticket) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					j.logger.Error("transfer panicked",
						zap.Int64("ticket_id", t.ID),
						zap.Any("panic", r))
				}
			}()
			j.process(ctx, t)
		}(ticket)
	}
	wg.Wait()

	j.logger.Info("inactivity transfer pass finished", zap.Int("candidates", len(tickets)))
	return nil
}

func (j *TransferJob) process(ctx context.Context, ticket domain.Ticket) {
	channel, err := j.channels.GetByID(ctx, ticket.WhatsappID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			j.logger.Warn("channel not found for ticket",
				zap.Int64("ticket_id", ticket.ID),
				zap.Int64("whatsapp_id", ticket.WhatsappID))
		} else {
			j.logger.Error("failed to load channel config",
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err))
		}
		return
	}

	// Unset timeout, zero timeout or missing fallback queue disables
	// transfer for the channel; no warning, this is a valid configuration.
	if channel.TimeToTransfer == nil || *channel.TimeToTransfer == 0 || channel.TransferQueueID == nil {
		return
	}

	if ticket.UpdatedAt.IsZero() {
		j.logger.Warn("ticket has no updatedAt; skipping",
			zap.Int64("ticket_id", ticket.ID))
		return
	}

	deadline := ticket.UpdatedAt.Add(time.Duration(*channel.TimeToTransfer) * time.Minute)
	now := j.clock()
	if !now.After(deadline) {
		return
	}

	queueID := *channel.TransferQueueID
	if err := j.tickets.AssignQueue(ctx, ticket.ID, queueID); err != nil {
		j.logger.Error("failed to assign fallback queue",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("queue_id", queueID),
			zap.Error(err))
		return
	}

	j.updateTracking(ctx, ticket, queueID, now)
	j.broadcast(ctx, ticket)

	j.metrics.RecordEngine("tickets_transferred", 1)
	j.logger.Info("ticket transferred to fallback queue",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("queue_id", queueID))
}

// updateTracking re-queues the most recent tracking record rather than
// inserting a duplicate. A ticket without any tracking record is an
// anomaly: warn and create one so the audit trail is not silently dropped.
func (j *TransferJob) updateTracking(ctx context.Context, ticket domain.Ticket, queueID int64, queuedAt time.Time) {
	tracking, err := j.trackings.GetLatestByTicket(ctx, ticket.ID)
	switch {
	case err == nil:
		if err := j.trackings.UpdateQueue(ctx, tracking.ID, queueID, queuedAt); err != nil {
			j.logger.Error("failed to update tracking record",
				zap.Int64("ticket_id", ticket.ID),
				zap.Int64("tracking_id", tracking.ID),
				zap.Error(err))
		}
	case errors.Is(err, pgx.ErrNoRows):
		j.logger.Warn("no tracking record for transferred ticket; creating one",
			zap.Int64("ticket_id", ticket.ID))
		created := &domain.TicketTracking{
			TicketID:   ticket.ID,
			CompanyID:  ticket.CompanyID,
			WhatsappID: ticket.WhatsappID,
			QueueID:    &queueID,
			QueuedAt:   &queuedAt,
		}
		if err := j.trackings.Create(ctx, created); err != nil {
			j.logger.Error("failed to create tracking record",
				zap.Int64("ticket_id", ticket.ID),
				zap.Error(err))
		}
	default:
		j.logger.Error("failed to load tracking record",
			zap.Int64("ticket_id", ticket.ID),
			zap.Error(err))
	}
}

// broadcast refetches the display-ready projection and publishes the update
// to three audiences: the ticket's status channel, the general notification
// channel and the ticket-specific channel.
func (j *TransferJob) broadcast(ctx context.Context, ticket domain.Ticket) {
	projection, err := j.tickets.GetProjection(ctx, ticket.ID, ticket.CompanyID)
	if err != nil {
		j.logger.Error("failed to fetch ticket projection",
			zap.Int64("ticket_id", ticket.ID),
			zap.Error(err))
		return
	}

	event := fmt.Sprintf("company-%d-ticket", ticket.CompanyID)
	payload := TicketUpdatePayload{Action: "update", Ticket: projection}

	channels := []string{
		string(ticket.Status),
		notificationChannel,
		strconv.FormatInt(ticket.ID, 10),
	}
	for _, channel := range channels {
		if err := j.bus.Publish(ctx, channel, event, payload); err != nil {
			j.logger.Error("failed to broadcast ticket update",
				zap.Int64("ticket_id", ticket.ID),
				zap.String("channel", channel),
				zap.Error(err))
		}
	}
}
