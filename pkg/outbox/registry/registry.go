// Package registry maps outbox event types to their topic and payload schema
// so the publisher can validate rows before forwarding them.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/relacksation-backend/pkg/config"
	"github.com/angelmondragon/relacksation-backend/pkg/db/models"
	"github.com/angelmondragon/relacksation-backend/pkg/enums"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox"
	"github.com/angelmondragon/relacksation-backend/pkg/outbox/payloads"
)

// EventDescriptor binds an event type to its aggregate, topic and payload.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is a validated outbox row with its decoded payload.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	byType map[enums.OutboxEventType]EventDescriptor
}

func describe[T any](event enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      event,
		AggregateType:  aggregate,
		Topic:          topic,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry routes booking events to BookingsTopic and product or
// blockout events to InventoryTopic, falling back to BookingsTopic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	bookings := cfg.BookingsTopic
	if bookings == "" {
		return nil, errors.New("bookings topic is required")
	}
	inventory := cfg.InventoryTopic
	if inventory == "" {
		inventory = bookings
	}

	descriptors := []EventDescriptor{
		describe[payloads.BookingCreatedEvent](enums.EventBookingCreated, enums.AggregateBooking, bookings),
		describe[payloads.BookingStatusChangedEvent](enums.EventBookingStatusChanged, enums.AggregateBooking, bookings),
		describe[payloads.BlockoutCreatedEvent](enums.EventBlockoutCreated, enums.AggregateBlockout, inventory),
		describe[payloads.BlockoutRemovedEvent](enums.EventBlockoutRemoved, enums.AggregateBlockout, inventory),
		describe[payloads.ProductUpdatedEvent](enums.EventProductUpdated, enums.AggregateProduct, inventory),
	}
	reg := &EventRegistry{byType: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, d := range descriptors {
		reg.byType[d.EventType] = d
	}
	return reg, nil
}

// Topics returns the distinct topics in sorted order.
func (r *EventRegistry) Topics() []string {
	set := map[string]struct{}{}
	for _, d := range r.byType {
		set[d.Topic] = struct{}{}
	}
	topics := make([]string, 0, len(set))
	for t := range set {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Descriptor looks up the registration for eventType.
func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	d, ok := r.byType[eventType]
	return d, ok
}

// Resolve checks the row against its registration and decodes the payload.
// Every failure is a NonRetryableError since retrying cannot repair the row.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.byType[row.EventType]
	switch {
	case !ok:
		return nil, permanent(fmt.Sprintf("unsupported event type %s", row.EventType), nil)
	case desc.AggregateType != row.AggregateType:
		return nil, permanent(fmt.Sprintf("%s belongs to %s, row says %s", row.EventType, desc.AggregateType, row.AggregateType), nil)
	case row.AggregateID == uuid.Nil:
		return nil, permanent("missing aggregate_id", nil)
	}

	env, err := outbox.OpenEnvelope(row.Payload)
	if err != nil {
		return nil, permanent("bad envelope", err)
	}
	if bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, permanent(fmt.Sprintf("payload missing for %s", row.EventType), nil)
	}

	payload := desc.PayloadFactory()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, permanent(fmt.Sprintf("decode %s payload", row.EventType), err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: env, Payload: payload}, nil
}
