package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sialweb/bookline/internal/booking"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

var testAppt = booking.Appointment{
	ID:           42,
	BusinessID:   1,
	CustomerName: "Maria Lopez",
	Phone:        "612345678",
	Email:        "maria@example.com",
	Service:      "Haircut",
	Date:         "2026-09-08",
	Time:         "10:00",
}

func newTestService(t *testing.T) (*Service, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	svc := NewService(sender, nil, Config{
		BusinessName:        "Salon Sol",
		Location:            time.UTC,
		AppointmentDuration: 45 * time.Minute,
		Clock:               func() time.Time { return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC) },
	})
	return svc, sender
}

func TestBookingConfirmation(t *testing.T) {
	svc, sender := newTestService(t)

	svc.BookingConfirmation(context.Background(), testAppt)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "maria@example.com", msg.To)
	assert.Equal(t, "Salon Sol: appointment confirmed", msg.Subject)
	assert.Contains(t, msg.Body, "Haircut")
	assert.Contains(t, msg.Body, "08/09/2026")
	assert.Contains(t, msg.Body, "10:00")
	assert.Contains(t, msg.HTML, "<strong>Service:</strong> Haircut")

	assert.Contains(t, msg.Invite, "METHOD:REQUEST")
	assert.Contains(t, msg.Invite, "UID:appointment-42@bookline")
	assert.Contains(t, msg.Invite, "DTSTART;TZID=UTC:20260908T100000")
	assert.Contains(t, msg.Invite, "DTEND;TZID=UTC:20260908T104500")
	assert.Contains(t, msg.Invite, "SEQUENCE:0")
	assert.Contains(t, msg.Invite, "STATUS:CONFIRMED")
}

func TestModificationNoticeShowsBothVersions(t *testing.T) {
	svc, sender := newTestService(t)
	after := testAppt
	after.Date = "2026-09-15"
	after.Time = "11:00"

	svc.ModificationNotice(context.Background(), testAppt, after)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Contains(t, msg.Body, "08/09/2026")
	assert.Contains(t, msg.Body, "15/09/2026")
	assert.Contains(t, msg.Invite, "METHOD:REQUEST")
	assert.Contains(t, msg.Invite, "SEQUENCE:1")
	assert.Contains(t, msg.Invite, "DTSTART;TZID=UTC:20260915T110000")
	// Same UID as the original invite so the calendar event is replaced.
	assert.Contains(t, msg.Invite, "UID:appointment-42@bookline")
}

func TestCancellationNoticeRetractsEvent(t *testing.T) {
	svc, sender := newTestService(t)

	svc.CancellationNotice(context.Background(), testAppt)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "Salon Sol: appointment cancelled", msg.Subject)
	assert.Contains(t, msg.Invite, "METHOD:CANCEL")
	assert.Contains(t, msg.Invite, "STATUS:CANCELLED")
	assert.Contains(t, msg.Invite, "SEQUENCE:2")
}

func TestSendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, nil, Config{})

	// Must not panic or surface the error.
	svc.BookingConfirmation(context.Background(), testAppt)
	assert.Empty(t, sender.sent)
}

func TestMissingRecipientSkipsSend(t *testing.T) {
	svc, sender := newTestService(t)
	appt := testAppt
	appt.Email = ""

	svc.BookingConfirmation(context.Background(), appt)
	assert.Empty(t, sender.sent)
}

func TestInviteEscapesSpecialCharacters(t *testing.T) {
	svc, sender := newTestService(t)
	appt := testAppt
	appt.Service = "Cut, wash; dry"

	svc.BookingConfirmation(context.Background(), appt)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Invite, `SUMMARY:Cut\, wash\; dry`)
}

func TestInvalidStoredDateStillSendsEmail(t *testing.T) {
	svc, sender := newTestService(t)
	appt := testAppt
	appt.Date = "garbage"

	svc.BookingConfirmation(context.Background(), appt)

	require.Len(t, sender.sent, 1)
	assert.Empty(t, sender.sent[0].Invite, "no invite for an unparseable start")
	assert.Contains(t, sender.sent[0].Body, "garbage")
}
