package domain

import (
	"strings"
	"time"
)

// Setting keys consumed by the lifecycle engine.
const (
	SettingKeyEscalationEnabled     = "sendManagerWait"
	SettingKeyEscalationWaitMinutes = "sendManagerWaitMinutes"
)

// Setting is one per-tenant key/value pair.
type Setting struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"companyId"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EscalationConfig is the typed view of a tenant's escalation setting pair.
type EscalationConfig struct {
	Enabled     bool
	WaitMinutes int
}

// Active reports whether the configuration can ever fire: a zero or
// negative threshold disables escalation.
func (c EscalationConfig) Active() bool {
	return c.Enabled && c.WaitMinutes > 0
}

// ParseEnabled interprets the stored sendManagerWait value. Empty and the
// usual negative spellings are falsy; anything else enables escalation.
func ParseEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "disabled", "off":
		return false
	}
	return true
}
