package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
)

// TrackingRepository stores ticket queue-assignment history.
type TrackingRepository interface {
	GetLatestByTicket(ctx context.Context, ticketID int64) (*domain.TicketTracking, error)
	UpdateQueue(ctx context.Context, id, queueID int64, queuedAt time.Time) error
	Create(ctx context.Context, tracking *domain.TicketTracking) error
}

type trackingRepository struct {
	pool *pgxpool.Pool
}

// NewTrackingRepository builds repository.
func NewTrackingRepository(pool *pgxpool.Pool) TrackingRepository {
	return &trackingRepository{pool: pool}
}

func (r *trackingRepository) GetLatestByTicket(ctx context.Context, ticketID int64) (*domain.TicketTracking, error) {
	const query = `
        SELECT id, ticket_id, company_id, whatsapp_id, user_id, queue_id, queued_at, started_at, finished_at, created_at, updated_at
        FROM ticket_trackings WHERE ticket_id=$1
        ORDER BY created_at DESC LIMIT 1`
	var tracking domain.TicketTracking
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&tracking.ID,
		&tracking.TicketID,
		&tracking.CompanyID,
		&tracking.WhatsappID,
		&tracking.UserID,
		&tracking.QueueID,
		&tracking.QueuedAt,
		&tracking.StartedAt,
		&tracking.FinishedAt,
		&tracking.CreatedAt,
		&tracking.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (r *trackingRepository) UpdateQueue(ctx context.Context, id, queueID int64, queuedAt time.Time) error {
	const query = `UPDATE ticket_trackings SET queue_id=$1, queued_at=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.pool.Exec(ctx, query, queueID, queuedAt, id)
	return err
}

func (r *trackingRepository) Create(ctx context.Context, tracking *domain.TicketTracking) error {
	const query = `
        INSERT INTO ticket_trackings (ticket_id, company_id, whatsapp_id, user_id, queue_id, queued_at, started_at, finished_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tracking.TicketID,
		tracking.CompanyID,
		tracking.WhatsappID,
		tracking.UserID,
		tracking.QueueID,
		tracking.QueuedAt,
		tracking.StartedAt,
		tracking.FinishedAt,
	).Scan(&tracking.ID, &tracking.CreatedAt, &tracking.UpdatedAt)
}
