package messaging

import (
	"context"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
)

// Sender delivers an outbound message to the contact behind a ticket.
// Delivery failures are non-fatal to lifecycle transitions; callers log
// and continue.
type Sender interface {
	SendMessage(ctx context.Context, ticket domain.Ticket, contact domain.Contact, body string) error
}
