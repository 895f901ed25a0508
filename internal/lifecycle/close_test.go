package lifecycle

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/zaphub/ticket-lifecycle/internal/domain"
	"github.com/zaphub/ticket-lifecycle/internal/observability"
)

func newTestCloseJob(tickets *fakeTicketRepo, channels *fakeChannelRepo, sender *fakeSender) *CloseJob {
	return NewCloseJob(CloseDependencies{
		Tickets:  tickets,
		Channels: channels,
		Sender:   sender,
		Metrics:  observability.NewMetrics(),
		Logger:   zap.NewNop(),
	})
}

func autoAssignedTicket(id, companyID int64, updatedAt time.Time) *domain.Ticket {
	promptID := int64(3)
	integrationID := int64(4)
	sessionID := "session-abc"
	return &domain.Ticket{
		ID:               id,
		UUID:             "uuid-ticket",
		Status:           domain.TicketStatusAutoAssigned,
		CompanyID:        companyID,
		WhatsappID:       1,
		ContactID:        1,
		PromptID:         &promptID,
		IntegrationID:    &integrationID,
		UseIntegration:   true,
		TypebotStatus:    true,
		TypebotSessionID: &sessionID,
		UpdatedAt:        updatedAt,
		Contact: &domain.Contact{
			ID:        1,
			CompanyID: companyID,
			Name:      "Ada Lovelace",
			Number:    "5511999990000",
		},
	}
}

func TestCloseInactiveTicketClearsBotFields(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(3, 1, now.Add(-31*time.Minute)))
	channels := newFakeChannelRepo(&domain.Channel{
		ID:                     1,
		CompanyID:              1,
		ExpiresTicket:          "30",
		ExpiresInactiveMessage: "Bye {{firstName}}",
	})
	sender := &fakeSender{}

	j := newTestCloseJob(tickets, channels, sender)
	j.clock = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := tickets.get(3)
	if got.Status != domain.TicketStatusClosed {
		t.Errorf("expected closed status, got %q", got.Status)
	}
	if got.UseIntegration {
		t.Error("expected useIntegration cleared")
	}
	if got.TypebotSessionID != nil {
		t.Error("expected typebot session cleared")
	}
	if got.PromptID != nil || got.IntegrationID != nil || got.TypebotStatus {
		t.Error("expected all bot-integration fields cleared")
	}

	bodies := sender.bodies()
	if len(bodies) != 1 {
		t.Fatalf("expected 1 closing notice, got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], "Bye Ada") {
		t.Errorf("expected rendered closing notice, got %q", bodies[0])
	}
	if !strings.HasPrefix(bodies[0], botMessageMarker) {
		t.Error("expected bot message marker prefix")
	}
}

func TestCloseIsIdempotentAcrossRuns(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(3, 1, now.Add(-31*time.Minute)))
	channels := newFakeChannelRepo(&domain.Channel{ID: 1, CompanyID: 1, ExpiresTicket: "30"})
	sender := &fakeSender{}

	j := newTestCloseJob(tickets, channels, sender)
	j.clock = func() time.Time { return now }

	ctx := context.Background()
	if err := j.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := j.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// The closed ticket no longer matches the status filter; no second update.
	if got := len(tickets.closeCalls); got != 1 {
		t.Errorf("expected exactly 1 close update, got %d", got)
	}
}

func TestCloseSkipsRecentlyActiveTicket(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(3, 1, now.Add(-10*time.Minute)))
	channels := newFakeChannelRepo(&domain.Channel{ID: 1, CompanyID: 1, ExpiresTicket: "30"})

	j := newTestCloseJob(tickets, channels, &fakeSender{})
	j.clock = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := tickets.get(3); got.Status != domain.TicketStatusAutoAssigned {
		t.Errorf("expected ticket untouched, got status %q", got.Status)
	}
}

func TestCloseMissingTimeoutSkipsWithoutError(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(4, 1, now.Add(-48*time.Hour)))
	channels := newFakeChannelRepo(&domain.Channel{ID: 1, CompanyID: 1})

	j := newTestCloseJob(tickets, channels, &fakeSender{})
	j.clock = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := tickets.get(4); got.Status != domain.TicketStatusAutoAssigned {
		t.Errorf("expected ticket untouched, got status %q", got.Status)
	}
}

func TestCloseNonNumericTimeoutTreatedAsMissing(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(4, 1, now.Add(-48*time.Hour)))
	channels := newFakeChannelRepo(&domain.Channel{ID: 1, CompanyID: 1, ExpiresTicket: "soon"})

	j := newTestCloseJob(tickets, channels, &fakeSender{})
	j.clock = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := tickets.get(4); got.Status != domain.TicketStatusAutoAssigned {
		t.Errorf("expected ticket untouched, got status %q", got.Status)
	}
}

func TestCloseZeroTimeoutDisablesJob(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(4, 1, now.Add(-48*time.Hour)))
	channels := newFakeChannelRepo(&domain.Channel{ID: 1, CompanyID: 1, ExpiresTicket: "0"})

	j := newTestCloseJob(tickets, channels, &fakeSender{})
	j.clock = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := tickets.get(4); got.Status != domain.TicketStatusAutoAssigned {
		t.Errorf("expected zero timeout to disable closing, got status %q", got.Status)
	}
}

func TestCloseSendFailureDoesNotRollBack(t *testing.T) {
	now := time.Now()
	tickets := newFakeTicketRepo(autoAssignedTicket(3, 1, now.Add(-31*time.Minute)))
	channels := newFakeChannelRepo(&domain.Channel{
		ID:                     1,
		CompanyID:              1,
		ExpiresTicket:          "30",
		ExpiresInactiveMessage: "Bye",
	})
	sender := &fakeSender{failed: true}

	j := newTestCloseJob(tickets, channels, sender)
	j.clock = func() time.Time { return now }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := tickets.get(3); got.Status != domain.TicketStatusClosed {
		t.Errorf("expected ticket to stay closed despite send failure, got %q", got.Status)
	}
}
