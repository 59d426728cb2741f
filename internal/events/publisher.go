package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"rfid-admin-service/internal/client"
	"rfid-admin-service/internal/util"
)

// Event types emitted on the audit topic.
const (
	TypeAccountCreated = "account_created"
	TypeAccountUpdated = "account_updated"
	TypeStatusChanged  = "account_status_changed"
)

// Event is one audit record of an account mutation. Only non-sensitive
// attributes travel on the topic.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	CPOOwnerID int64     `json:"cpo_owner_id"`
	AccountID  int64     `json:"account_id,omitempty"`
	Username   string    `json:"username,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher records account lifecycle events. Implementations are
// best-effort; callers never fail an operation over a publish error.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// KafkaPublisher writes events to the audit topic keyed by owner id.
type KafkaPublisher struct {
	producer *client.KafkaProducer
}

func NewKafkaPublisher(producer *client.KafkaProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	event.ID = uuid.New().String()
	event.OccurredAt = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		util.Error("Failed to marshal audit event",
			util.String("type", event.Type),
			util.ErrorField(err),
		)
		return
	}

	key := []byte(strconv.FormatInt(event.CPOOwnerID, 10))
	if err := p.producer.Produce(ctx, key, payload); err != nil {
		util.Warn("Failed to publish audit event",
			util.String("type", event.Type),
			util.Int64("cpo_owner_id", event.CPOOwnerID),
			util.ErrorField(err),
		)
	}
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
