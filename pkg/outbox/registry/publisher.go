package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/config"
	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
	"github.com/lokapasar/lokapasar-backend/pkg/enums"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox"
	"github.com/lokapasar/lokapasar-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate, destination topic
// and payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor. Rows with
// event types missing from the registry are dead-lettered, never retried.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry wires every supported event onto its topic. Order
// lifecycle events ride the orders topic; moderation and payout decisions
// feed the notification topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, fmt.Errorf("orders topic is required")
	}
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("notification topic is required")
	}

	orderEvents := map[enums.OutboxEventType]func() any{
		enums.OutboxEventTypeOrderCreated:   func() any { return &payloads.OrderCreatedEvent{} },
		enums.OutboxEventTypeOrderPaid:      func() any { return &payloads.OrderPaidEvent{} },
		enums.OutboxEventTypeOrderPacked:    func() any { return &payloads.OrderPackedEvent{} },
		enums.OutboxEventTypeOrderShipped:   func() any { return &payloads.OrderShippedEvent{} },
		enums.OutboxEventTypeOrderCompleted: func() any { return &payloads.OrderCompletedEvent{} },
		enums.OutboxEventTypeOrderCancelled: func() any { return &payloads.OrderCancelledEvent{} },
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for eventType, factory := range orderEvents {
		reg.entries[eventType] = EventDescriptor{
			EventType:      eventType,
			AggregateType:  enums.OutboxAggregateTypeOrder,
			Topic:          cfg.OrdersTopic,
			PayloadFactory: factory,
		}
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.OutboxEventTypeOrgStatusChanged,
			AggregateType:  enums.OutboxAggregateTypeOrganization,
			PayloadFactory: func() any { return &payloads.OrganizationStatusChangedEvent{} },
		},
		{
			EventType:      enums.OutboxEventTypeProductModerated,
			AggregateType:  enums.OutboxAggregateTypeProduct,
			PayloadFactory: func() any { return &payloads.ProductModeratedEvent{} },
		},
		{
			EventType:      enums.OutboxEventTypeWithdrawalDecided,
			AggregateType:  enums.OutboxAggregateTypeWithdrawal,
			PayloadFactory: func() any { return &payloads.WithdrawalDecidedEvent{} },
		},
	} {
		desc.Topic = cfg.NotificationTopic
		reg.entries[desc.EventType] = desc
	}

	return reg, nil
}

// Resolve validates the row against its descriptor and decodes the typed
// payload. Every failure here is permanent; malformed rows cannot succeed
// on retry.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
