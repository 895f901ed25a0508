package messaging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kgo "github.com/segmentio/kafka-go"

	"github.com/zaphub/ticket-lifecycle/internal/config"
	"github.com/zaphub/ticket-lifecycle/internal/domain"
)

// OutboundMessage is the payload the WhatsApp gateway consumes from the
// outbound topic.
type OutboundMessage struct {
	TicketID   int64  `json:"ticketId"`
	TicketUUID string `json:"ticketUuid"`
	CompanyID  int64  `json:"companyId"`
	WhatsappID int64  `json:"whatsappId"`
	Number     string `json:"number"`
	Body       string `json:"body"`
}

// KafkaSender produces outbound messages to a Kafka topic. Keying by ticket
// id keeps messages for one conversation ordered.
type KafkaSender struct {
	writer  *kgo.Writer
	timeout time.Duration
}

// NewKafkaSender builds a sender from config.
func NewKafkaSender(cfg config.KafkaConfig) *KafkaSender {
	w := &kgo.Writer{
		Addr:         kgo.TCP(cfg.BrokerList()...),
		Topic:        cfg.OutboundTopic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
	}

	return &KafkaSender{
		writer:  w,
		timeout: cfg.WriteTimeout(),
	}
}

// Close releases the underlying writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

// SendMessage publishes one outbound message. A bounded timeout keeps the
// lifecycle tick from hanging when the broker is down.
func (s *KafkaSender) SendMessage(ctx context.Context, ticket domain.Ticket, contact domain.Contact, body string) error {
	msg := OutboundMessage{
		TicketID:   ticket.ID,
		TicketUUID: ticket.UUID,
		CompanyID:  ticket.CompanyID,
		WhatsappID: ticket.WhatsappID,
		Number:     contact.Number,
		Body:       body,
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(strconv.FormatInt(ticket.ID, 10)),
		Value: value,
		Time:  time.Now(),
	})
}
