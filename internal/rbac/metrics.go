package rbac

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "userservice"

// Metrics holds Prometheus metrics for authorization decisions.
// A nil *Metrics records nothing.
type Metrics struct {
	decisions        *prometheus.CounterVec
	fieldRejections  *prometheus.CounterVec
	assignmentDenied *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "rbac",
				Name:      "decisions_total",
				Help:      "Total number of route authorization decisions",
			},
			[]string{"route", "decision"},
		),
		fieldRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "rbac",
				Name:      "field_rejections_total",
				Help:      "Total number of privileged fields rejected by the field policy",
			},
			[]string{"field"},
		),
		assignmentDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "rbac",
				Name:      "role_assignment_denied_total",
				Help:      "Total number of user creations refused by the role assignment rule",
			},
			[]string{"target_role"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.decisions, m.fieldRejections, m.assignmentDenied)
	}
	return m
}

func (m *Metrics) recordDecision(route RouteID, decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(route), decision).Inc()
}

func (m *Metrics) recordFieldRejections(fields []Field) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.fieldRejections.WithLabelValues(string(f)).Inc()
	}
}

func (m *Metrics) recordAssignmentDenied(target Role) {
	if m == nil {
		return
	}
	m.assignmentDenied.WithLabelValues(string(target)).Inc()
}
