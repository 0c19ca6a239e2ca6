package enums

// BookingStatus maps to the booking_status enum in Postgres.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCanceled  BookingStatus = "canceled"
)

var bookingStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCanceled}

// transitions lists the admin status changes allowed from each state.
// Canceled is terminal.
var transitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCanceled},
	BookingStatusConfirmed: {BookingStatusPending, BookingStatusCanceled},
}

func (s BookingStatus) String() string { return string(s) }

func (s BookingStatus) IsValid() bool { return member(bookingStatuses, s) }

// ConsumesCapacity is false only for canceled bookings.
func (s BookingStatus) ConsumesCapacity() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return member(transitions[s], next)
}

func ParseBookingStatus(raw string) (BookingStatus, error) {
	return parse(bookingStatuses, raw, "booking status")
}
