package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveTransition("pending", "confirmed", "therapist")
	m.ObserveTransition("pending", "confirmed", "therapist")
	m.ObserveReschedule("patient", "proposed")
	m.ObserveDenied("confirm", "forbidden")
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveHTTP("GET", "/api/v1/therapists", "200", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "confirmed", "therapist")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reschedules.WithLabelValues("patient", "proposed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveTransition("pending", "confirmed", "therapist")
	m.ObserveReschedule("patient", "accepted")
	m.ObserveDenied("cancel", "invalid_transition")
	m.ObserveCacheLookup(true)
	m.ObserveHTTP("GET", "/", "200", 0.1)
}
