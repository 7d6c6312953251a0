package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters for the dialogue flow.
type ConversationMetrics struct {
	messagesTotal      *prometheus.CounterVec
	bookingsTotal      prometheus.Counter
	modificationsTotal prometheus.Counter
	cancellationsTotal prometheus.Counter
	slotConflictsTotal prometheus.Counter
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Inbound messages by the state that handled them",
		}, []string{"state"}),
		bookingsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "conversation",
			Name:      "bookings_total",
			Help:      "Appointments confirmed through the dialogue",
		}),
		modificationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "conversation",
			Name:      "modifications_total",
			Help:      "Appointments modified through the manage flow",
		}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "conversation",
			Name:      "cancellations_total",
			Help:      "Appointments cancelled through the manage flow",
		}),
		slotConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "conversation",
			Name:      "slot_conflicts_total",
			Help:      "Finalizations that lost the race for a time slot",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.bookingsTotal, m.modificationsTotal,
		m.cancellationsTotal, m.slotConflictsTotal)
	return m
}

func (m *ConversationMetrics) ObserveMessage(state string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(state).Inc()
}

func (m *ConversationMetrics) ObserveBooking() {
	if m == nil {
		return
	}
	m.bookingsTotal.Inc()
}

func (m *ConversationMetrics) ObserveModification() {
	if m == nil {
		return
	}
	m.modificationsTotal.Inc()
}

func (m *ConversationMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *ConversationMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflictsTotal.Inc()
}
