package domain

// Channel is a tenant's WhatsApp connection (inbox) together with the
// lifecycle thresholds its administrator configured. Read-only from the
// engine's perspective.
type Channel struct {
	ID        int64
	CompanyID int64
	Name      string

	// TimeToTransfer is the idle-transfer timeout in minutes; nil or zero
	// disables automatic transfer for the channel.
	TimeToTransfer  *int
	TransferQueueID *int64

	// ExpiresTicket is the idle-close timeout in minutes, stored as text by
	// tenant administration. Non-numeric values are treated as missing.
	ExpiresTicket          string
	ExpiresInactiveMessage string
}
