package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// Metrics holds the collectors shared by the api server and the sms worker.
type Metrics struct {
	Registry *prometheus.Registry

	Transitions   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
	ListDegraded  prometheus.Counter
	Appointments  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Status transitions requested, by transition type and outcome",
		}, []string{"transition", "result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "SMS notification attempts by outcome",
		}, []string{"result"}),
		ListDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_degraded_total",
			Help:      "Listings served empty because the document store failed",
		}),
		Appointments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "appointments",
			Help:      "Appointment counts by status as of the last successful listing",
		}, []string{"status"}),
	}

	m.Registry.MustRegister(
		m.Transitions,
		m.Notifications,
		m.ListDegraded,
		m.Appointments,
	)

	return m
}

// The helpers below are nil safe so callers can run without metrics.

func (m *Metrics) Transition(transition, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transition, result).Inc()
}

func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Degraded() {
	if m == nil {
		return
	}
	m.ListDegraded.Inc()
}

func (m *Metrics) SetCounts(scheduled, pending, cancelled int) {
	if m == nil {
		return
	}
	m.Appointments.WithLabelValues("scheduled").Set(float64(scheduled))
	m.Appointments.WithLabelValues("pending").Set(float64(pending))
	m.Appointments.WithLabelValues("cancelled").Set(float64(cancelled))
}
