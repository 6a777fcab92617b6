package metrics

import "github.com/prometheus/client_golang/prometheus"

// PlatformMetrics exposes counters for the scheduling and interactive flows.
type PlatformMetrics struct {
	slotsGenerated    *prometheus.CounterVec
	appointmentsTotal *prometheus.CounterVec
	outcomesTotal     *prometheus.CounterVec
	publishesTotal    prometheus.Counter
	navigatorReads    *prometheus.CounterVec
}

func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	m := &PlatformMetrics{
		slotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practice",
			Subsystem: "schedule",
			Name:      "slots_generated_total",
			Help:      "Slots created through the generator, by status",
		}, []string{"status"}),
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practice",
			Subsystem: "schedule",
			Name:      "appointment_transitions_total",
			Help:      "Appointment lifecycle transitions",
		}, []string{"transition"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practice",
			Subsystem: "schedule",
			Name:      "outcomes_recorded_total",
			Help:      "Appointment outcomes recorded",
		}, []string{"outcome"}),
		publishesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "practice",
			Subsystem: "interactive",
			Name:      "publishes_total",
			Help:      "Interactive definition publishes",
		}),
		navigatorReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practice",
			Subsystem: "interactive",
			Name:      "navigator_reads_total",
			Help:      "Public navigator reads by cache result",
		}, []string{"cache"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotsGenerated, m.appointmentsTotal, m.outcomesTotal, m.publishesTotal, m.navigatorReads)
	return m
}

func (m *PlatformMetrics) ObserveSlotsGenerated(status string, n int) {
	if m == nil {
		return
	}
	m.slotsGenerated.WithLabelValues(status).Add(float64(n))
}

func (m *PlatformMetrics) ObserveAppointmentTransition(transition string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(transition).Inc()
}

func (m *PlatformMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *PlatformMetrics) ObservePublish() {
	if m == nil {
		return
	}
	m.publishesTotal.Inc()
}

func (m *PlatformMetrics) ObserveNavigatorRead(cacheResult string) {
	if m == nil {
		return
	}
	m.navigatorReads.WithLabelValues(cacheResult).Inc()
}
