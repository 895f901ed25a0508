package domain

import "time"

// TicketTracking is one record of a ticket's queue-assignment history.
// Records are append-only; the most recent one (by creation time) reflects
// the current queue assignment.
type TicketTracking struct {
	ID         int64
	TicketID   int64
	CompanyID  int64
	WhatsappID int64
	UserID     *int64
	QueueID    *int64
	QueuedAt   *time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
