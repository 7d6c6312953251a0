package dialog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateJSONRoundTrip(t *testing.T) {
	for state, name := range stateNames {
		data, err := json.Marshal(state)
		require.NoError(t, err)
		assert.JSONEq(t, `"`+name+`"`, string(data))

		var back State
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, state, back)
	}
}

func TestStateUnknownNameResets(t *testing.T) {
	var s State
	require.NoError(t, json.Unmarshal([]byte(`"no_such_state"`), &s))
	assert.Equal(t, StateNone, s)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	empID := int64(7)
	sess := Session{
		State:          StatePreConfirmation,
		BusinessID:     1,
		CustomerName:   "Maria Lopez",
		Phone:          "612345678",
		Email:          "maria@example.com",
		Service:        "Haircut",
		EmployeeID:     &empID,
		EmployeeName:   "Samuel",
		Date:           "2026-09-08",
		Time:           "10:00",
		ServiceChoices: []string{"Haircut", "Tinte"},
		HasEmployees:   true,
		Managing:       &ManagedAppointment{ID: 42, Service: "Haircut", Date: "2026-09-08", Time: "10:00"},
	}

	data, err := json.Marshal(sess)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"pre_confirmation"`)

	var back Session
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, sess, back)
}

func TestSessionCompleted(t *testing.T) {
	sess := NewSession(1)
	assert.True(t, sess.Completed())

	sess.State = StateAskingName
	assert.False(t, sess.Completed())

	sess.reset()
	assert.True(t, sess.Completed())
	assert.Equal(t, int64(1), sess.BusinessID, "reset keeps the business scope")
}

func TestPurpose(t *testing.T) {
	assert.False(t, ForNewBooking().IsModify())

	p := ForModifying(42)
	assert.True(t, p.IsModify())
	assert.Equal(t, int64(42), p.AppointmentID())
}
