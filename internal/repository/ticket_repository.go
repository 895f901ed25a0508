package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
)

// TicketFilter captures lifecycle query parameters.
type TicketFilter struct {
	CompanyID     *int64
	Statuses      []domain.TicketStatus
	QueueUnset    bool
	UpdatedBefore *time.Time
	WithContact   bool
	Limit         int
}

// TicketRepository encapsulates ticket persistence for the lifecycle engine.
type TicketRepository interface {
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListPendingWithRelations(ctx context.Context) ([]domain.PendingTicket, error)
	CloseInactive(ctx context.Context, id int64) error
	AssignQueue(ctx context.Context, id, queueID int64) error
	GetProjection(ctx context.Context, id, companyID int64) (*domain.TicketProjection, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.uuid, t.status, t.company_id, t.queue_id, t.whatsapp_id, t.contact_id,
               t.user_id, t.last_message, t.unread_messages, t.from_me, t.is_group,
               t.prompt_id, t.integration_id, t.use_integration, t.typebot_status, t.typebot_session_id,
               t.created_at, t.updated_at`

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := "SELECT " + ticketColumns
	join := ""
	if filter.WithContact {
		base += `, c.id, c.company_id, c.name, c.number, c.email, c.profile_pic_url, c.created_at, c.updated_at`
		join = " LEFT JOIN contacts c ON c.id = t.contact_id"
	}
	base += " FROM tickets t" + join

	clauses := []string{"1=1"}
	args := []any{}

	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		clauses = append(clauses, fmt.Sprintf("t.company_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.QueueUnset {
		clauses = append(clauses, "t.queue_id IS NULL")
	}
	if filter.UpdatedBefore != nil {
		args = append(args, *filter.UpdatedBefore)
		clauses = append(clauses, fmt.Sprintf("t.updated_at < $%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY t.updated_at ASC", base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows, filter.WithContact)
}

func (r *ticketRepository) ListPendingWithRelations(ctx context.Context) ([]domain.PendingTicket, error) {
	query := fmt.Sprintf(`
        SELECT %s,
               co.id, co.name,
               c.id, c.company_id, c.name, c.number, c.email, c.profile_pic_url, c.created_at, c.updated_at
        FROM tickets t
        JOIN companies co ON co.id = t.company_id
        LEFT JOIN contacts c ON c.id = t.contact_id
        WHERE t.status=$1
        ORDER BY t.updated_at ASC`, ticketColumns)

	rows, err := r.pool.Query(ctx, query, domain.TicketStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PendingTicket
	for rows.Next() {
		var item domain.PendingTicket
		var contact nullableContact
		dest := ticketDest(&item.Ticket)
		dest = append(dest, &item.Company.ID, &item.Company.Name)
		dest = append(dest, contact.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		item.Contact = contact.value()
		item.Ticket.Contact = item.Contact
		result = append(result, item)
	}
	return result, rows.Err()
}

// CloseInactive transitions the ticket to closed and clears every
// bot-integration field so a reopened conversation starts a fresh session.
func (r *ticketRepository) CloseInactive(ctx context.Context, id int64) error {
	const query = `
        UPDATE tickets SET status=$1, prompt_id=NULL, integration_id=NULL, use_integration=false,
            typebot_status=false, typebot_session_id=NULL, updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusClosed, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) AssignQueue(ctx context.Context, id, queueID int64) error {
	const query = `UPDATE tickets SET queue_id=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, queueID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetProjection(ctx context.Context, id, companyID int64) (*domain.TicketProjection, error) {
	const query = `
        SELECT t.id, t.uuid, t.status, t.company_id, t.queue_id, q.name, t.whatsapp_id, t.contact_id,
               t.last_message, t.unread_messages, t.is_group, t.updated_at,
               c.id, c.company_id, c.name, c.number, c.email, c.profile_pic_url, c.created_at, c.updated_at
        FROM tickets t
        LEFT JOIN queues q ON q.id = t.queue_id
        LEFT JOIN contacts c ON c.id = t.contact_id
        WHERE t.id=$1 AND t.company_id=$2`

	var projection domain.TicketProjection
	var contact nullableContact
	dest := []any{
		&projection.ID,
		&projection.UUID,
		&projection.Status,
		&projection.CompanyID,
		&projection.QueueID,
		&projection.QueueName,
		&projection.WhatsappID,
		&projection.ContactID,
		&projection.LastMessage,
		&projection.UnreadMessages,
		&projection.IsGroup,
		&projection.UpdatedAt,
	}
	dest = append(dest, contact.dest()...)
	if err := r.pool.QueryRow(ctx, query, id, companyID).Scan(dest...); err != nil {
		return nil, err
	}
	projection.Contact = contact.value()
	return &projection, nil
}

func ticketDest(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.UUID,
		&ticket.Status,
		&ticket.CompanyID,
		&ticket.QueueID,
		&ticket.WhatsappID,
		&ticket.ContactID,
		&ticket.UserID,
		&ticket.LastMessage,
		&ticket.UnreadMessages,
		&ticket.FromMe,
		&ticket.IsGroup,
		&ticket.PromptID,
		&ticket.IntegrationID,
		&ticket.UseIntegration,
		&ticket.TypebotStatus,
		&ticket.TypebotSessionID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	}
}

func scanTickets(rows pgx.Rows, withContact bool) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		dest := ticketDest(&ticket)
		var contact nullableContact
		if withContact {
			dest = append(dest, contact.dest()...)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if withContact {
			ticket.Contact = contact.value()
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

// nullableContact scans a LEFT JOINed contact row that may be entirely NULL.
type nullableContact struct {
	id            *int64
	companyID     *int64
	name          *string
	number        *string
	email         *string
	profilePicURL *string
	createdAt     *time.Time
	updatedAt     *time.Time
}

func (n *nullableContact) dest() []any {
	return []any{&n.id, &n.companyID, &n.name, &n.number, &n.email, &n.profilePicURL, &n.createdAt, &n.updatedAt}
}

func (n *nullableContact) value() *domain.Contact {
	if n.id == nil {
		return nil
	}
	contact := &domain.Contact{ID: *n.id}
	if n.companyID != nil {
		contact.CompanyID = *n.companyID
	}
	if n.name != nil {
		contact.Name = *n.name
	}
	if n.number != nil {
		contact.Number = *n.number
	}
	if n.email != nil {
		contact.Email = *n.email
	}
	if n.profilePicURL != nil {
		contact.ProfilePicURL = *n.profilePicURL
	}
	if n.createdAt != nil {
		contact.CreatedAt = *n.createdAt
	}
	if n.updatedAt != nil {
		contact.UpdatedAt = *n.updatedAt
	}
	return contact
}
