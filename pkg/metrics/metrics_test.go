package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.IncQuote("FIXED")
	m.IncQuote("FIXED")
	m.IncQuote("MANUAL_QUOTE")
	m.IncAdmission(OutcomeAccepted)
	m.IncAdmission(OutcomeCapacityExceeded)
	m.ObserveAdmission(20 * time.Millisecond)
	m.IncAvailabilityQuery()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "quotes_total", "mode", "FIXED"); err != nil || got != 2 {
		t.Fatalf("expected FIXED quotes=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "quotes_total", "mode", "MANUAL_QUOTE"); err != nil || got != 1 {
		t.Fatalf("expected MANUAL_QUOTE quotes=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "admissions_total", "outcome", OutcomeCapacityExceeded); err != nil || got != 1 {
		t.Fatalf("expected capacity_exceeded=1, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "admission_duration_seconds")
	if mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected one admission duration sample")
	}
}

func TestOutboxMetricsUnknownLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("booking_created")
	m.IncFailed("")
	m.IncDLQ("booking_created")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_publish_failures_total", "event_type", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown failure=1, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var booking *BookingMetrics
	booking.IncQuote("FIXED")
	booking.IncAdmission(OutcomeAccepted)
	booking.ObserveAdmission(time.Second)
	booking.IncAvailabilityQuery()

	NewBookingMetrics(nil).IncQuote("FIXED")

	var outbox *OutboxMetrics
	outbox.IncPublished("x")
	outbox.IncFailed("x")
	outbox.IncDLQ("x")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
