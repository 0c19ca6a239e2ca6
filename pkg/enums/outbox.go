package enums

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBooking  OutboxAggregateType = "booking"
	AggregateBlockout OutboxAggregateType = "blockout"
	AggregateProduct  OutboxAggregateType = "product"
)

var aggregateTypes = []OutboxAggregateType{AggregateBooking, AggregateBlockout, AggregateProduct}

func (a OutboxAggregateType) IsValid() bool { return member(aggregateTypes, a) }

func ParseOutboxAggregateType(raw string) (OutboxAggregateType, error) {
	return parse(aggregateTypes, raw, "aggregate type")
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBookingCreated       OutboxEventType = "booking_created"
	EventBookingStatusChanged OutboxEventType = "booking_status_changed"
	EventBlockoutCreated      OutboxEventType = "blockout_created"
	EventBlockoutRemoved      OutboxEventType = "blockout_removed"
	EventProductUpdated       OutboxEventType = "product_updated"
)

var eventTypes = []OutboxEventType{
	EventBookingCreated,
	EventBookingStatusChanged,
	EventBlockoutCreated,
	EventBlockoutRemoved,
	EventProductUpdated,
}

func (e OutboxEventType) IsValid() bool { return member(eventTypes, e) }

func ParseOutboxEventType(raw string) (OutboxEventType, error) {
	return parse(eventTypes, raw, "event type")
}

// OutboxDLQErrorReason records why a row was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return r == OutboxDLQReasonMaxAttempts || r == OutboxDLQReasonNonRetryable
}
