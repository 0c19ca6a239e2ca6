package enums

import "testing"

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCanceled, true},
		{BookingStatusConfirmed, BookingStatusPending, true},
		{BookingStatusConfirmed, BookingStatusCanceled, true},
		{BookingStatusCanceled, BookingStatusPending, false},
		{BookingStatusCanceled, BookingStatusConfirmed, false},
		{BookingStatusPending, BookingStatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestBookingStatusConsumesCapacity(t *testing.T) {
	if !BookingStatusPending.ConsumesCapacity() || !BookingStatusConfirmed.ConsumesCapacity() {
		t.Fatal("pending and confirmed bookings must consume capacity")
	}
	if BookingStatusCanceled.ConsumesCapacity() {
		t.Fatal("canceled bookings must not consume capacity")
	}
}

func TestParseBlockReason(t *testing.T) {
	for _, raw := range []string{"maintenance", "holiday", "owner-block", "weather", "other"} {
		reason, err := ParseBlockReason(raw)
		if err != nil || !reason.IsValid() {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseBlockReason("vacation"); err == nil {
		t.Fatal("expected unknown reason to fail")
	}
}

func TestParseBookingStatus(t *testing.T) {
	if _, err := ParseBookingStatus("archived"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	status, err := ParseBookingStatus("confirmed")
	if err != nil || status != BookingStatusConfirmed {
		t.Fatalf("unexpected parse result %v %v", status, err)
	}
}

func TestOutboxEnums(t *testing.T) {
	if _, err := ParseOutboxEventType("booking_created"); err != nil {
		t.Fatalf("expected booking_created to parse: %v", err)
	}
	if OutboxEventType("order_created").IsValid() {
		t.Fatal("unexpected event type accepted")
	}
	if !AggregateBooking.IsValid() {
		t.Fatal("booking aggregate should be valid")
	}
}

func TestBlockReasonsReturnsCopy(t *testing.T) {
	reasons := BlockReasons()
	reasons[0] = "tampered"
	if BlockReasons()[0] != BlockReasonMaintenance {
		t.Fatal("BlockReasons must not expose the backing slice")
	}
}

func TestParseErrorsNameTheKind(t *testing.T) {
	_, err := ParseOutboxAggregateType("order")
	if err == nil || err.Error() != `invalid aggregate type "order"` {
		t.Fatalf("unexpected error %v", err)
	}
	if !OutboxDLQReasonNonRetryable.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatal("dlq reason validation mismatch")
	}
}
