package dialog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sialweb/bookline/internal/booking"
	"github.com/sialweb/bookline/pkg/logging"
)

// ErrMissingSlots means finalization was attempted before every required
// slot was collected. Handlers should make this unreachable; it guards
// against storage writes with half-filled drafts.
var ErrMissingSlots = errors.New("dialog: required slots missing")

// Finalizer converts a fully collected session into a persisted
// appointment and triggers the confirmation notification.
type Finalizer struct {
	store    Appointments
	notifier Notifier
	logger   *logging.Logger
}

// NewFinalizer creates a finalizer. notifier may be nil.
func NewFinalizer(store Appointments, notifier Notifier, logger *logging.Logger) *Finalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Finalizer{store: store, notifier: notifier, logger: logger}
}

// Finalize persists the appointment described by the session. The
// storage layer's uniqueness constraint is the authority on double
// booking: a conflicting write surfaces as booking.ErrSlotTaken, which
// callers turn into a fresh time selection. Any other failure leaves the
// session untouched so confirmation can simply be retried.
func (f *Finalizer) Finalize(ctx context.Context, s *Session) (booking.Appointment, error) {
	if err := f.checkRequired(s); err != nil {
		return booking.Appointment{}, err
	}

	draft := booking.Draft{
		BusinessID:   s.BusinessID,
		CustomerName: s.CustomerName,
		Phone:        s.Phone,
		Email:        s.Email,
		Service:      s.Service,
		EmployeeID:   s.EmployeeID,
		Date:         s.Date,
		Time:         s.Time,
	}
	id, err := f.store.CreateAppointment(ctx, draft)
	if err != nil {
		if errors.Is(err, booking.ErrSlotTaken) {
			return booking.Appointment{}, err
		}
		return booking.Appointment{}, fmt.Errorf("dialog: persist appointment: %w", err)
	}

	appt := booking.Appointment{
		ID:           id,
		BusinessID:   draft.BusinessID,
		CustomerName: draft.CustomerName,
		Phone:        draft.Phone,
		Email:        draft.Email,
		Service:      draft.Service,
		EmployeeID:   draft.EmployeeID,
		Date:         draft.Date,
		Time:         draft.Time,
	}

	if f.notifier != nil {
		// Fire-and-forget: the booking is committed, delivery problems
		// are the notifier's to log.
		f.notifier.BookingConfirmation(context.WithoutCancel(ctx), appt)
	}
	return appt, nil
}

func (f *Finalizer) checkRequired(s *Session) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s", ErrMissingSlots, field)
	}
	switch {
	case s.CustomerName == "":
		return missing("customer_name")
	case s.Phone == "":
		return missing("phone")
	case s.Email == "":
		return missing("email")
	case s.Service == "":
		return missing("service")
	case s.Date == "":
		return missing("date")
	case s.Time == "":
		return missing("time")
	case s.HasEmployees && s.EmployeeID == nil:
		return missing("employee_id")
	}
	return nil
}

func isSlotTaken(err error) bool {
	return errors.Is(err, booking.ErrSlotTaken)
}
