package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
	"github.com/zaphub/ticket-lifecycle/internal/events"
	"github.com/zaphub/ticket-lifecycle/internal/repository"
)

// fakeTicketRepo keeps tickets in memory and answers lifecycle queries the
// way the SQL repository would.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[int64]*domain.Ticket

	companies map[int64]domain.Company

	listErr    error
	listPanic  bool
	pendingErr error
	closeCalls []int64
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{
		tickets:   make(map[int64]*domain.Ticket),
		companies: make(map[int64]domain.Company),
	}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
		repo.companies[t.CompanyID] = domain.Company{ID: t.CompanyID, Name: "company"}
	}
	return repo
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if r.listPanic {
		panic("ticket store corrupted")
	}
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Ticket
	for _, t := range r.tickets {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.QueueUnset && t.QueueID != nil {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (r *fakeTicketRepo) ListPendingWithRelations(_ context.Context) ([]domain.PendingTicket, error) {
	if r.pendingErr != nil {
		return nil, r.pendingErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.PendingTicket
	for _, t := range r.tickets {
		if t.Status != domain.TicketStatusPending {
			continue
		}
		result = append(result, domain.PendingTicket{
			Ticket:  *t,
			Company: r.companies[t.CompanyID],
			Contact: t.Contact,
		})
	}
	return result, nil
}

func (r *fakeTicketRepo) CloseInactive(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = domain.TicketStatusClosed
	t.PromptID = nil
	t.IntegrationID = nil
	t.UseIntegration = false
	t.TypebotStatus = false
	t.TypebotSessionID = nil
	r.closeCalls = append(r.closeCalls, id)
	return nil
}

func (r *fakeTicketRepo) AssignQueue(_ context.Context, id, queueID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.QueueID = &queueID
	return nil
}

func (r *fakeTicketRepo) GetProjection(_ context.Context, id, companyID int64) (*domain.TicketProjection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.CompanyID != companyID {
		return nil, pgx.ErrNoRows
	}
	return &domain.TicketProjection{
		ID:        t.ID,
		UUID:      t.UUID,
		Status:    t.Status,
		CompanyID: t.CompanyID,
		QueueID:   t.QueueID,
		ContactID: t.ContactID,
		Contact:   t.Contact,
		UpdatedAt: t.UpdatedAt,
	}, nil
}

func (r *fakeTicketRepo) get(id int64) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tickets[id]
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// fakeTrackingRepo stores at most one tracking record per ticket.
type fakeTrackingRepo struct {
	mu       sync.Mutex
	latest   map[int64]*domain.TicketTracking
	created  []*domain.TicketTracking
	updated  map[int64]int64 // tracking id -> queue id
	queuedAt map[int64]time.Time
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{
		latest:   make(map[int64]*domain.TicketTracking),
		updated:  make(map[int64]int64),
		queuedAt: make(map[int64]time.Time),
	}
}

func (r *fakeTrackingRepo) GetLatestByTicket(_ context.Context, ticketID int64) (*domain.TicketTracking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracking, ok := r.latest[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *tracking
	return &copied, nil
}

func (r *fakeTrackingRepo) UpdateQueue(_ context.Context, id, queueID int64, queuedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated[id] = queueID
	r.queuedAt[id] = queuedAt
	for _, tracking := range r.latest {
		if tracking.ID == id {
			tracking.QueueID = &queueID
			at := queuedAt
			tracking.QueuedAt = &at
		}
	}
	return nil
}

func (r *fakeTrackingRepo) Create(_ context.Context, tracking *domain.TicketTracking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracking.ID = int64(len(r.created) + 1000)
	tracking.CreatedAt = time.Now()
	r.created = append(r.created, tracking)
	r.latest[tracking.TicketID] = tracking
	return nil
}

// fakeChannelRepo maps both lookup styles onto a static channel set.
type fakeChannelRepo struct {
	byID      map[int64]*domain.Channel
	byCompany map[int64]*domain.Channel
}

func newFakeChannelRepo(channels ...*domain.Channel) *fakeChannelRepo {
	repo := &fakeChannelRepo{
		byID:      make(map[int64]*domain.Channel),
		byCompany: make(map[int64]*domain.Channel),
	}
	for _, ch := range channels {
		repo.byID[ch.ID] = ch
		if _, ok := repo.byCompany[ch.CompanyID]; !ok {
			repo.byCompany[ch.CompanyID] = ch
		}
	}
	return repo
}

func (r *fakeChannelRepo) GetByID(_ context.Context, id int64) (*domain.Channel, error) {
	ch, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ch, nil
}

func (r *fakeChannelRepo) GetByCompany(_ context.Context, companyID int64) (*domain.Channel, error) {
	ch, ok := r.byCompany[companyID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ch, nil
}

// fakeSettingRepo serves escalation configs from a plain map.
type fakeSettingRepo struct {
	mu      sync.Mutex
	values  map[int64]map[string]string
	readErr error
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{values: make(map[int64]map[string]string)}
}

func (r *fakeSettingRepo) set(companyID int64, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values[companyID] == nil {
		r.values[companyID] = make(map[string]string)
	}
	r.values[companyID][key] = value
}

func (r *fakeSettingRepo) Get(_ context.Context, companyID int64, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.values[companyID][key]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return value, nil
}

func (r *fakeSettingRepo) Upsert(_ context.Context, companyID int64, key, value string) (*domain.Setting, error) {
	r.set(companyID, key, value)
	return &domain.Setting{CompanyID: companyID, Key: key, Value: value}, nil
}

func (r *fakeSettingRepo) ListByCompany(_ context.Context, companyID int64) ([]domain.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Setting
	for key, value := range r.values[companyID] {
		result = append(result, domain.Setting{CompanyID: companyID, Key: key, Value: value})
	}
	return result, nil
}

func (r *fakeSettingRepo) EscalationConfig(_ context.Context, companyID int64) (domain.EscalationConfig, error) {
	if r.readErr != nil {
		return domain.EscalationConfig{}, r.readErr
	}
	configs, _ := r.EscalationConfigs(context.Background())
	return configs[companyID], nil
}

func (r *fakeSettingRepo) EscalationConfigs(_ context.Context) (map[int64]domain.EscalationConfig, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	configs := make(map[int64]domain.EscalationConfig)
	for companyID, pairs := range r.values {
		cfg := domain.EscalationConfig{Enabled: domain.ParseEnabled(pairs[domain.SettingKeyEscalationEnabled])}
		if raw, ok := pairs[domain.SettingKeyEscalationWaitMinutes]; ok {
			cfg.WaitMinutes = atoiOrZero(raw)
		}
		configs[companyID] = cfg
	}
	return configs, nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0
		}
		n = n*10 + int(ch-'0')
	}
	return n
}

// capturedEvent records one publication on the capture bus.
type capturedEvent struct {
	Channel string
	Event   string
	Payload any
}

// captureBus records publications and can fail selected channels.
type captureBus struct {
	mu       sync.Mutex
	events   []capturedEvent
	failFor  map[string]bool
	memory   *events.MemoryBus
	failNext int
}

func newCaptureBus() *captureBus {
	return &captureBus{failFor: make(map[string]bool), memory: events.NewMemoryBus()}
}

func (b *captureBus) Publish(ctx context.Context, channel, event string, payload any) error {
	b.mu.Lock()
	if b.failNext > 0 {
		b.failNext--
		b.mu.Unlock()
		return errors.New("publish failed")
	}
	if b.failFor[channel] {
		b.mu.Unlock()
		return errors.New("publish failed")
	}
	b.events = append(b.events, capturedEvent{Channel: channel, Event: event, Payload: payload})
	b.mu.Unlock()
	return b.memory.Publish(ctx, channel, event, payload)
}

func (b *captureBus) all() []capturedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]capturedEvent{}, b.events...)
}

// fakeSender records outbound messages and can be told to fail.
type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	failed bool
}

func (s *fakeSender) SendMessage(_ context.Context, _ domain.Ticket, _ domain.Contact, body string) error {
	if s.failed {
		return errors.New("delivery failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, body)
	return nil
}

func (s *fakeSender) bodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.sent...)
}
