package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)
	require.NotNil(t, m)

	m.ObserveMessage("asking_name")
	m.ObserveMessage("asking_name")
	m.ObserveBooking()
	m.ObserveModification()
	m.ObserveCancellation()
	m.ObserveSlotConflict()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "bookline_conversation_messages_total")
	assert.Contains(t, names, "bookline_conversation_bookings_total")
	assert.Contains(t, names, "bookline_conversation_slot_conflicts_total")
}

func TestNilReceiverSafe(t *testing.T) {
	var m *ConversationMetrics
	assert.NotPanics(t, func() {
		m.ObserveMessage("any")
		m.ObserveBooking()
		m.ObserveModification()
		m.ObserveCancellation()
		m.ObserveSlotConflict()
	})
}
