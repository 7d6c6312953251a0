package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sialweb/bookline/internal/booking"
	"github.com/sialweb/bookline/pkg/logging"
)

// Calendar invite sequence numbers. Clients apply the highest sequence
// they have seen for a UID, so updates and cancellations must outrank
// the original invite.
const (
	seqConfirmation = 0
	seqModification = 1
	seqCancellation = 2
)

// Service builds and delivers booking emails. It satisfies the dialogue
// engine's Notifier: delivery failures are logged, never surfaced into
// the conversation.
type Service struct {
	sender   EmailSender
	logger   *logging.Logger
	business string
	loc      *time.Location
	duration time.Duration
	now      func() time.Time
}

// Config tunes the notification service.
type Config struct {
	// BusinessName appears in subjects and bodies.
	BusinessName string

	// Location is the business timezone the invite times are anchored
	// to.
	Location *time.Location

	// AppointmentDuration is the event length in the calendar invite.
	AppointmentDuration time.Duration

	// Clock overrides the DTSTAMP clock, for tests.
	Clock func() time.Time
}

// NewService creates the notification service. A nil sender degrades to
// the logging stub.
func NewService(sender EmailSender, logger *logging.Logger, cfg Config) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	if cfg.BusinessName == "" {
		cfg.BusinessName = "Bookline"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.AppointmentDuration <= 0 {
		cfg.AppointmentDuration = 30 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		sender:   sender,
		logger:   logger,
		business: cfg.BusinessName,
		loc:      cfg.Location,
		duration: cfg.AppointmentDuration,
		now:      cfg.Clock,
	}
}

// BookingConfirmation emails the client their new appointment with a
// calendar invite.
func (s *Service) BookingConfirmation(ctx context.Context, appt booking.Appointment) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment at %s is confirmed:\n\nService: %s\nDay: %s\nTime: %s\n\nSee you soon!",
		appt.CustomerName, s.business, appt.Service, s.formatDate(appt.Date), appt.Time,
	)
	msg := EmailMessage{
		To:      appt.Email,
		ToName:  appt.CustomerName,
		Subject: fmt.Sprintf("%s: appointment confirmed", s.business),
		Body:    body,
		HTML:    s.htmlSummary("Your appointment is confirmed", appt),
	}
	s.attachInvite(&msg, appt, methodRequest, seqConfirmation)
	s.deliver(ctx, "confirmation", msg)
}

// ModificationNotice emails the updated appointment. The invite reuses
// the original UID with a higher sequence, replacing the old event.
func (s *Service) ModificationNotice(ctx context.Context, before, after booking.Appointment) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment at %s has changed.\n\nBefore: %s on %s at %s\nNow: %s on %s at %s",
		after.CustomerName, s.business,
		before.Service, s.formatDate(before.Date), before.Time,
		after.Service, s.formatDate(after.Date), after.Time,
	)
	msg := EmailMessage{
		To:      after.Email,
		ToName:  after.CustomerName,
		Subject: fmt.Sprintf("%s: appointment updated", s.business),
		Body:    body,
		HTML:    s.htmlSummary("Your appointment has been updated", after),
	}
	s.attachInvite(&msg, after, methodRequest, seqModification)
	s.deliver(ctx, "modification", msg)
}

// CancellationNotice emails a cancellation and retracts the calendar
// event.
func (s *Service) CancellationNotice(ctx context.Context, appt booking.Appointment) {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment at %s has been cancelled:\n\nService: %s\nDay: %s\nTime: %s",
		appt.CustomerName, s.business, appt.Service, s.formatDate(appt.Date), appt.Time,
	)
	msg := EmailMessage{
		To:      appt.Email,
		ToName:  appt.CustomerName,
		Subject: fmt.Sprintf("%s: appointment cancelled", s.business),
		Body:    body,
		HTML:    s.htmlSummary("Your appointment has been cancelled", appt),
	}
	s.attachInvite(&msg, appt, methodCancel, seqCancellation)
	s.deliver(ctx, "cancellation", msg)
}

func (s *Service) attachInvite(msg *EmailMessage, appt booking.Appointment, method string, sequence int) {
	invite, err := buildInvite(appt, method, sequence, s.duration, s.loc, s.now())
	if err != nil {
		// The email still carries the details; only the attachment is
		// lost.
		s.logger.Warn("notify: invite build failed", "error", err, "appointment_id", appt.ID)
		return
	}
	msg.Invite = invite
}

func (s *Service) deliver(ctx context.Context, kind string, msg EmailMessage) {
	if msg.To == "" {
		s.logger.Warn("notify: no recipient email", "kind", kind)
		return
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("notify: send failed", "error", err, "kind", kind, "to", msg.To)
	}
}

func (s *Service) htmlSummary(title string, appt booking.Appointment) string {
	return fmt.Sprintf(
		"<h2>%s</h2><ul><li><strong>Service:</strong> %s</li><li><strong>Day:</strong> %s</li><li><strong>Time:</strong> %s</li></ul><p>%s</p>",
		title, appt.Service, s.formatDate(appt.Date), appt.Time, s.business,
	)
}

func (s *Service) formatDate(date string) string {
	if d, err := time.ParseInLocation(booking.DateLayout, date, s.loc); err == nil {
		return d.Format("02/01/2006")
	}
	return date
}
