package dialog

import (
	"context"
	"fmt"
	"time"

	"github.com/sialweb/bookline/internal/booking"
	"github.com/sialweb/bookline/internal/textutil"
)

func (e *Engine) handleManagePhone(ctx context.Context, s *Session, input string) Reply {
	phone, ok := validatePhone(input, e.opts.PhoneDigits)
	if !ok {
		return textReply(fmt.Sprintf("A phone number should have %d digits. Could you check it and try again?", e.opts.PhoneDigits))
	}

	appts, err := e.store.FutureAppointments(ctx, s.BusinessID, phone)
	if err != nil {
		e.logger.Error("dialog: future appointment lookup failed", "error", err, "business_id", s.BusinessID)
		return textReply(storageApology)
	}

	// The store filters by date; same-day appointments whose time has
	// already passed still need dropping here.
	now := e.now()
	upcoming := appts[:0]
	for _, appt := range appts {
		if !appt.StartsBefore(now) {
			upcoming = append(upcoming, appt)
		}
	}
	if len(upcoming) == 0 {
		return textReply("I couldn't find any manageable appointment for that number. It may have passed already, or the number might be wrong. Please try another number.")
	}

	nearest := upcoming[0]
	s.Phone = phone
	s.Managing = &ManagedAppointment{
		ID:      nearest.ID,
		Service: nearest.Service,
		Date:    nearest.Date,
		Time:    nearest.Time,
	}
	s.State = StateManageAwaitingAction
	return choiceReply(
		fmt.Sprintf("I found your appointment: '%s' on %s at %s.\n\nWhat would you like to do?",
			nearest.Service, formatDateWeekday(nearest.Date, e.opts.Location), nearest.Time),
		"Modify appointment", "Cancel appointment",
	)
}

func (e *Engine) handleManageAction(s *Session, input string) Reply {
	switch {
	case textutil.ContainsKeyword(input, "modify", "modificar", "change", "cambiar"):
		s.State = StateManagePickField
		return choiceReply("What would you like to change: the service or the day/time?", "Service", "Day/time")
	case textutil.ContainsKeyword(input, "cancel", "cancelar", "anular"):
		s.State = StateManageConfirmCancel
		return choiceReply("Are you sure you want to cancel it?", "Yes", "No")
	}
	return choiceReply("I didn't catch that. Please choose 'Modify' or 'Cancel'.", "Modify appointment", "Cancel appointment")
}

func (e *Engine) handleManageCancel(ctx context.Context, s *Session, input string) Reply {
	if s.Managing == nil {
		s.reset()
		return e.welcome(s)
	}
	switch {
	case textutil.EqualsKeyword(input, "yes", "y", "si", "s", "yep", "confirm", "confirmo", "cancelala"):
		prior, err := e.store.DeleteAppointment(ctx, s.BusinessID, s.Managing.ID)
		if err != nil {
			e.logger.Error("dialog: cancellation failed", "error", err, "appointment_id", s.Managing.ID)
			return textReply(storageApology)
		}
		if prior == nil {
			s.reset()
			return textReply("That appointment no longer exists; there's nothing to cancel.")
		}
		if e.finalizer.notifier != nil {
			e.finalizer.notifier.CancellationNotice(context.WithoutCancel(ctx), *prior)
		}
		e.metrics.ObserveCancellation()
		s.reset()
		return textReply("Done! Your appointment has been cancelled.")

	case textutil.EqualsKeyword(input, "no", "n", "nope"):
		s.reset()
		return textReply("Alright, I haven't touched your appointment.")
	}
	return textReply("I didn't catch that. Answer 'yes' to cancel, or 'no' to keep it.")
}

func (e *Engine) handleManagePickField(ctx context.Context, s *Session, input string) Reply {
	if s.Managing == nil {
		s.reset()
		return e.welcome(s)
	}
	switch {
	case textutil.ContainsKeyword(input, "service", "servicio"):
		return e.presentServices(ctx, s, "", ForModifying(s.Managing.ID))
	case textutil.ContainsKeyword(input, "day", "date", "time", "dia", "fecha", "hora"):
		return e.presentCalendar(ctx, s, "Alright.")
	}
	return choiceReply("I didn't catch that. Tell me whether to change the service or the day/time.", "Service", "Day/time")
}

// formatDateWeekday renders "Monday, 02/01/2006" for manage summaries.
func formatDateWeekday(date string, loc *time.Location) string {
	if d, err := time.ParseInLocation(booking.DateLayout, date, loc); err == nil {
		return d.Format("Monday, 02/01/2006")
	}
	return date
}
