package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending      TicketStatus = "pending"
	TicketStatusOpen         TicketStatus = "open"
	TicketStatusAutoAssigned TicketStatus = "autoassigned"
	TicketStatusClosed       TicketStatus = "closed"
)

// Ticket is the aggregate the lifecycle engine observes and mutates.
// IDs are tenant-scoped integers; the UUID is the stable external handle.
type Ticket struct {
	ID               int64
	UUID             string
	Status           TicketStatus
	CompanyID        int64
	QueueID          *int64
	WhatsappID       int64
	ContactID        int64
	UserID           *int64
	LastMessage      string
	UnreadMessages   int
	FromMe           bool
	IsGroup          bool
	PromptID         *int64
	IntegrationID    *int64
	UseIntegration   bool
	TypebotStatus    bool
	TypebotSessionID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Contact is populated when the query joins the contact relation.
	Contact *Contact
}

// PendingTicket pairs a pending ticket with its owning company and the
// contact the conversation belongs to, for escalation evaluation.
type PendingTicket struct {
	Ticket  Ticket
	Company Company
	Contact *Contact
}

// TicketProjection is the display-ready shape broadcast to connected
// clients after a lifecycle transition.
type TicketProjection struct {
	ID             int64        `json:"id"`
	UUID           string       `json:"uuid"`
	Status         TicketStatus `json:"status"`
	CompanyID      int64        `json:"companyId"`
	QueueID        *int64       `json:"queueId"`
	QueueName      *string      `json:"queueName"`
	WhatsappID     int64        `json:"whatsappId"`
	ContactID      int64        `json:"contactId"`
	LastMessage    string       `json:"lastMessage"`
	UnreadMessages int          `json:"unreadMessages"`
	IsGroup        bool         `json:"isGroup"`
	Contact        *Contact     `json:"contact,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
