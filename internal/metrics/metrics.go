package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking lifecycle and directory.
type BookingMetrics struct {
	transitions  *prometheus.CounterVec
	reschedules  *prometheus.CounterVec
	denials      *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Applied booking status transitions",
		}, []string{"from", "to", "actor"}),
		reschedules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "booking",
			Name:      "reschedule_events_total",
			Help:      "Reschedule proposals and their resolutions",
		}, []string{"channel", "event"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "booking",
			Name:      "denied_operations_total",
			Help:      "Operations refused by authorization or the transition table",
		}, []string{"operation", "reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "directory",
			Name:      "cache_lookups_total",
			Help:      "Directory cache lookups by result",
		}, []string{"result"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "therapy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.reschedules, m.denials, m.cacheLookups, m.httpLatency)
	return m
}

func (m *BookingMetrics) ObserveTransition(from, to, actor string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to, actor).Inc()
}

func (m *BookingMetrics) ObserveReschedule(channel, event string) {
	if m == nil {
		return
	}
	m.reschedules.WithLabelValues(channel, event).Inc()
}

func (m *BookingMetrics) ObserveDenied(operation, reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(operation, reason).Inc()
}

func (m *BookingMetrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}
