package lifecycle

import "sync"

// NotificationDeduper tracks which ticket ids were already notified within
// one escalation cycle. It is reset unconditionally at the start of every
// cycle, regardless of how the previous cycle ended, so dedup state never
// leaks across cycles.
type NotificationDeduper struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

// NewNotificationDeduper builds an empty deduper.
func NewNotificationDeduper() *NotificationDeduper {
	return &NotificationDeduper{seen: make(map[int64]struct{})}
}

// Reset clears all membership.
func (d *NotificationDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[int64]struct{})
}

// Seen reports whether the ticket was already notified this cycle.
func (d *NotificationDeduper) Seen(ticketID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[ticketID]
	return ok
}

// Mark records the ticket as notified for the remainder of the cycle.
func (d *NotificationDeduper) Mark(ticketID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[ticketID] = struct{}{}
}
