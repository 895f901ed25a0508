package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
)

// ChannelRepository reads per-channel (WhatsApp inbox) lifecycle config.
// The engine never mutates channels; tenant administration owns them.
type ChannelRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Channel, error)
	GetByCompany(ctx context.Context, companyID int64) (*domain.Channel, error)
}

type channelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository instantiates repository.
func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepository{pool: pool}
}

const channelColumns = `id, company_id, name, time_to_transfer, transfer_queue_id,
               COALESCE(expires_ticket, ''), COALESCE(expires_inactive_message, '')`

func (r *channelRepository) GetByID(ctx context.Context, id int64) (*domain.Channel, error) {
	query := "SELECT " + channelColumns + " FROM whatsapps WHERE id=$1"
	return r.fetchSingle(ctx, query, id)
}

func (r *channelRepository) GetByCompany(ctx context.Context, companyID int64) (*domain.Channel, error) {
	query := "SELECT " + channelColumns + " FROM whatsapps WHERE company_id=$1 ORDER BY id ASC LIMIT 1"
	return r.fetchSingle(ctx, query, companyID)
}

func (r *channelRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Channel, error) {
	var channel domain.Channel
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&channel.ID,
		&channel.CompanyID,
		&channel.Name,
		&channel.TimeToTransfer,
		&channel.TransferQueueID,
		&channel.ExpiresTicket,
		&channel.ExpiresInactiveMessage,
	); err != nil {
		return nil, err
	}
	return &channel, nil
}
