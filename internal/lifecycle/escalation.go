package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
	"github.com/zaphub/ticket-lifecycle/internal/events"
	"github.com/zaphub/ticket-lifecycle/internal/observability"
	"github.com/zaphub/ticket-lifecycle/internal/repository"
)

// EscalationActionPending identifies the escalation payload to clients.
const EscalationActionPending = "pendingTicket"

// EscalationNotification is the payload published to a tenant's main
// channel when a pending ticket breaches its wait threshold.
type EscalationNotification struct {
	Action        string              `json:"action"`
	StatusPending string              `json:"statusPending"`
	WaitedMinutes int                 `json:"waitedMinutes"`
	Ticket        EscalationTicket    `json:"ticket"`
	Company       domain.Company      `json:"company"`
	Contact       *domain.Contact     `json:"contact,omitempty"`
	Status        domain.TicketStatus `json:"status"`
}

// EscalationTicket is the ticket slice carried in the notification.
type EscalationTicket struct {
	ID             int64               `json:"id"`
	UUID           string              `json:"uuid"`
	Status         domain.TicketStatus `json:"status"`
	CompanyID      int64               `json:"companyId"`
	WhatsappID     int64               `json:"whatsappId"`
	ContactID      int64               `json:"contactId"`
	QueueID        *int64              `json:"queueId"`
	LastMessage    string              `json:"lastMessage"`
	UnreadMessages int                 `json:"unreadMessages"`
	FromMe         bool                `json:"fromMe"`
	IsGroup        bool                `json:"isGroup"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// EscalationScheduler notifies connected clients at most once per cycle when
// a pending ticket exceeds its tenant's wait threshold. It owns the single
// process-wide escalation timer; Reconfigure restarts or stops the timer
// whenever a tenant writes either escalation setting key.
type EscalationScheduler struct {
	settings repository.SettingRepository
	tickets  repository.TicketRepository
	bus      events.Bus
	metrics  *observability.Metrics
	logger   *zap.Logger
	clock    func() time.Time

	deduper *NotificationDeduper

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// EscalationDependencies bundles collaborators.
type EscalationDependencies struct {
	Settings repository.SettingRepository
	Tickets  repository.TicketRepository
	Bus      events.Bus
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewEscalationScheduler creates the scheduler in the Idle state.
func NewEscalationScheduler(deps EscalationDependencies) *EscalationScheduler {
	return &EscalationScheduler{
		settings: deps.Settings,
		tickets:  deps.Tickets,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		clock:    time.Now,
		deduper:  NewNotificationDeduper(),
	}
}

// Reconfigure re-reads the writing tenant's escalation pair and applies it:
// enabled with a positive threshold restarts the timer with the derived
// interval, anything else stops it. The recomputation is part of the
// setting's write path, so callers invoke this synchronously after a write.
func (s *EscalationScheduler) Reconfigure(ctx context.Context, companyID int64) error {
	cfg, err := s.settings.EscalationConfig(ctx, companyID)
	if err != nil {
		return err
	}

	if !cfg.Active() {
		s.logger.Info("escalation disabled",
			zap.Int64("company_id", companyID),
			zap.Bool("enabled", cfg.Enabled),
			zap.Int("wait_minutes", cfg.WaitMinutes))
		s.Stop()
		return nil
	}

	interval := time.Duration(cfg.WaitMinutes) * time.Minute
	s.logger.Info("escalation timer reconfigured",
		zap.Int64("company_id", companyID),
		zap.Duration("interval", interval))
	s.Start(ctx, interval)
	return nil
}

// Bootstrap resumes the timer after a process restart using the stored
// settings: the smallest enabled wait threshold drives the interval so the
// most demanding tenant is polled often enough.
func (s *EscalationScheduler) Bootstrap(ctx context.Context) error {
	configs, err := s.settings.EscalationConfigs(ctx)
	if err != nil {
		return err
	}

	minWait := 0
	for _, cfg := range configs {
		if !cfg.Active() {
			continue
		}
		if minWait == 0 || cfg.WaitMinutes < minWait {
			minWait = cfg.WaitMinutes
		}
	}
	if minWait == 0 {
		return nil
	}

	interval := time.Duration(minWait) * time.Minute
	s.logger.Info("escalation timer resumed", zap.Duration("interval", interval))
	s.Start(ctx, interval)
	return nil
}

// Start (re)starts the timer with the given period. A running timer is
// canceled first; at most one timer instance exists at any time. The timer
// outlives the caller's context: Reconfigure is invoked from request
// handlers whose context is canceled when the request ends, so the
// goroutine and its ticks run on a detached context and only Stop ends
// them.
func (s *EscalationScheduler) Start(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	if s.running {
		close(s.stop)
	}
	stop := make(chan struct{})
	s.stop = stop
	s.running = true
	s.mu.Unlock()

	tickCtx := context.WithoutCancel(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.tick(tickCtx)
			}
		}
	}()
}

// Stop cancels the timer and clears the running guard so a future setting
// change can start a fresh one. An in-flight tick runs to completion.
func (s *EscalationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stop)
		s.stop = nil
		s.running = false
	}
}

// IsRunning reports whether the timer is active.
func (s *EscalationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// tick runs one escalation cycle. Any panic escaping the cycle clears the
// running guard so the next setting change is never permanently blocked.
func (s *EscalationScheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("escalation cycle panicked", zap.Any("panic", r))
			s.Stop()
		}
	}()

	// Dedup state never survives into a new cycle.
	s.deduper.Reset()

	configs, err := s.settings.EscalationConfigs(ctx)
	if err != nil {
		s.logger.Error("failed to read escalation settings", zap.Error(err))
		s.Stop()
		return
	}

	anyActive := false
	for _, cfg := range configs {
		if cfg.Active() {
			anyActive = true
			break
		}
	}
	if !anyActive {
		s.logger.Info("escalation disabled for all tenants; stopping timer")
		s.Stop()
		return
	}

	pending, err := s.tickets.ListPendingWithRelations(ctx)
	if err != nil {
		s.logger.Error("failed to fetch pending tickets", zap.Error(err))
		s.Stop()
		return
	}

	now := s.clock()
	for _, item := range pending {
		s.evaluate(ctx, item, configs, now)
	}
}

// evaluate applies one tenant's threshold to one pending ticket. Failures
// notifying a single ticket never abort the remainder of the cycle.
func (s *EscalationScheduler) evaluate(ctx context.Context, item domain.PendingTicket, configs map[int64]domain.EscalationConfig, now time.Time) {
	ticket := item.Ticket

	cfg, ok := configs[ticket.CompanyID]
	if !ok || !cfg.Active() {
		return
	}

	threshold := time.Duration(cfg.WaitMinutes) * time.Minute
	elapsed := now.Sub(ticket.UpdatedAt)

	// Strict comparisons: a future updatedAt (clock skew) never notifies,
	// and a breach requires exceeding, not meeting, the threshold.
	if elapsed <= 0 || elapsed <= threshold {
		return
	}
	if s.deduper.Seen(ticket.ID) {
		return
	}

	notification := EscalationNotification{
		Action:        EscalationActionPending,
		StatusPending: fmt.Sprintf("Ticket has been pending for more than %d minutes.", cfg.WaitMinutes),
		WaitedMinutes: cfg.WaitMinutes,
		Ticket: EscalationTicket{
			ID:             ticket.ID,
			UUID:           ticket.UUID,
			Status:         ticket.Status,
			CompanyID:      ticket.CompanyID,
			WhatsappID:     ticket.WhatsappID,
			ContactID:      ticket.ContactID,
			QueueID:        ticket.QueueID,
			LastMessage:    ticket.LastMessage,
			UnreadMessages: ticket.UnreadMessages,
			FromMe:         ticket.FromMe,
			IsGroup:        ticket.IsGroup,
			UpdatedAt:      ticket.UpdatedAt,
		},
		Company: item.Company,
		Contact: item.Contact,
		Status:  ticket.Status,
	}

	channel := fmt.Sprintf("company-%d-mainchannel", ticket.CompanyID)
	event := fmt.Sprintf("company-%d-notification", ticket.CompanyID)
	if err := s.bus.Publish(ctx, channel, event, notification); err != nil {
		s.logger.Error("failed to publish escalation",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("company_id", ticket.CompanyID),
			zap.Error(err))
		return
	}

	s.deduper.Mark(ticket.ID)
	s.metrics.RecordEngine("escalations_emitted", 1)
	s.logger.Info("escalation emitted",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("company_id", ticket.CompanyID),
		zap.Int("wait_minutes", cfg.WaitMinutes))
}
