package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sialweb/bookline/internal/booking"
)

func fullSession() Session {
	return Session{
		State:        StatePreConfirmation,
		BusinessID:   1,
		CustomerName: "Maria Lopez",
		Phone:        "612345678",
		Email:        "maria@example.com",
		Service:      "Haircut",
		Date:         "2026-09-08",
		Time:         "10:00",
	}
}

func TestFinalizePersistsAndNotifies(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	f := NewFinalizer(store, notifier, nil)
	sess := fullSession()

	appt, err := f.Finalize(context.Background(), &sess)
	require.NoError(t, err)
	assert.Equal(t, int64(1), appt.ID)
	assert.Equal(t, "Haircut", appt.Service)
	assert.Equal(t, "2026-09-08", appt.Date)

	require.Len(t, store.created, 1)
	require.Len(t, notifier.confirmations, 1)
	assert.Equal(t, appt, notifier.confirmations[0])
}

func TestFinalizeNilNotifier(t *testing.T) {
	store := &fakeStore{}
	f := NewFinalizer(store, nil, nil)
	sess := fullSession()

	_, err := f.Finalize(context.Background(), &sess)
	require.NoError(t, err)
	require.Len(t, store.created, 1)
}

func TestFinalizeMissingSlots(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Session)
	}{
		{"name", func(s *Session) { s.CustomerName = "" }},
		{"phone", func(s *Session) { s.Phone = "" }},
		{"email", func(s *Session) { s.Email = "" }},
		{"service", func(s *Session) { s.Service = "" }},
		{"date", func(s *Session) { s.Date = "" }},
		{"time", func(s *Session) { s.Time = "" }},
		{"employee when staffed", func(s *Session) { s.HasEmployees = true; s.EmployeeID = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			f := NewFinalizer(store, nil, nil)
			sess := fullSession()
			tt.mutate(&sess)

			_, err := f.Finalize(context.Background(), &sess)
			require.ErrorIs(t, err, ErrMissingSlots)
			assert.Empty(t, store.created, "nothing may be written")
		})
	}
}

func TestFinalizeSlotTakenPassesThrough(t *testing.T) {
	store := &fakeStore{createErr: booking.ErrSlotTaken}
	notifier := &fakeNotifier{}
	f := NewFinalizer(store, notifier, nil)
	sess := fullSession()

	_, err := f.Finalize(context.Background(), &sess)
	require.ErrorIs(t, err, booking.ErrSlotTaken)
	assert.Empty(t, notifier.confirmations, "no notification on conflict")
}

func TestFinalizeWrapsOtherErrors(t *testing.T) {
	cause := errors.New("connection refused")
	store := &fakeStore{createErr: cause}
	f := NewFinalizer(store, nil, nil)
	sess := fullSession()

	_, err := f.Finalize(context.Background(), &sess)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, booking.ErrSlotTaken)
}
