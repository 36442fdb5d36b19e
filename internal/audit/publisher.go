package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// streamPayload is the JSON structure published to the audit topic. Field
// names are stable; downstream consumers materialize them for querying.
type streamPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	CompanyID string `json:"company_id,omitempty"`
	RoundID   string `json:"round_id,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
}

// Publisher captures structured audit events. Events always land in the
// local store; when a Kafka producer is configured they are additionally
// published to the audit topic. Stream publishing is best-effort: the local
// store is the compliance record of truth and a broker outage must never
// fail the business operation being audited.
type Publisher struct {
	store    Store
	producer *kgo.Client
	topic    string
	logger   *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublisherOption configures optional publisher behavior.
type PublisherOption func(*Publisher)

// WithProducer attaches a Kafka producer and topic for stream publishing.
func WithProducer(producer *kgo.Client, topic string) PublisherOption {
	return func(p *Publisher) {
		p.producer = producer
		p.topic = topic
	}
}

// Emit records an audit event. Missing ID and timestamp are filled in so
// call sites stay terse.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	p.publish(ctx, event)
	return nil
}

// List returns the audit trail for a company in append order.
func (p *Publisher) List(ctx context.Context, companyID string) ([]Event, error) {
	return p.store.ListByCompany(ctx, companyID)
}

func (p *Publisher) publish(ctx context.Context, event Event) {
	if p.producer == nil {
		return
	}
	payload := streamPayload{
		ID:        event.ID.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    string(event.Action),
		CompanyID: event.CompanyID,
		RoundID:   event.RoundID,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal audit payload", "error", err, "event_id", event.ID)
		return
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.CompanyID),
		Value: value,
	}
	p.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit stream publish failed",
				"error", err,
				"event_id", payload.ID,
				"action", payload.Action,
			)
		}
	})
}
