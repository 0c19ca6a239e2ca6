package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Admission outcomes used as label values.
const (
	OutcomeAccepted         = "accepted"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeInvalid          = "invalid"
	OutcomeError            = "error"
)

// BookingMetrics records quote and admission activity.
type BookingMetrics struct {
	quotes            *prometheus.CounterVec
	admissions        *prometheus.CounterVec
	admissionDuration prometheus.Histogram
	availability      prometheus.Counter
}

// NewBookingMetrics registers the booking metrics on the provided registerer.
// A nil registerer yields a no-op collector.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	if reg == nil {
		return &BookingMetrics{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotes_total",
		Help: "Quotes computed, by pricing mode.",
	}, []string{"mode"})
	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admissions_total",
		Help: "Booking admission attempts, by outcome.",
	}, []string{"outcome"})
	admissionDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "admission_duration_seconds",
		Help:    "Time spent inside the admission transaction.",
		Buckets: prometheus.DefBuckets,
	})
	availability := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availability_queries_total",
		Help: "Availability range queries served.",
	})
	reg.MustRegister(quotes, admissions, admissionDuration, availability)
	return &BookingMetrics{
		quotes:            quotes,
		admissions:        admissions,
		admissionDuration: admissionDuration,
		availability:      availability,
	}
}

func (m *BookingMetrics) IncQuote(mode string) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(mode)).Inc()
}

func (m *BookingMetrics) IncAdmission(outcome string) {
	if m == nil || m.admissions == nil {
		return
	}
	m.admissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *BookingMetrics) ObserveAdmission(duration time.Duration) {
	if m == nil || m.admissionDuration == nil {
		return
	}
	m.admissionDuration.Observe(duration.Seconds())
}

func (m *BookingMetrics) IncAvailabilityQuery() {
	if m == nil || m.availability == nil {
		return
	}
	m.availability.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
