package dialog

import (
	"context"
	"time"

	"github.com/sialweb/bookline/internal/booking"
	"github.com/sialweb/bookline/internal/observability/metrics"
	"github.com/sialweb/bookline/internal/schedule"
	"github.com/sialweb/bookline/internal/textutil"
	"github.com/sialweb/bookline/pkg/logging"
)

// Directory reads a business's catalog and staff.
type Directory interface {
	Services(ctx context.Context, businessID int64) ([]booking.Service, error)
	Employees(ctx context.Context, businessID int64) ([]booking.Employee, error)
}

// Appointments is the appointment storage collaborator. Writes are
// conflict-aware: CreateAppointment returns booking.ErrSlotTaken when the
// uniqueness constraint on business+employee+date+time fires.
type Appointments interface {
	HasFutureAppointment(ctx context.Context, businessID int64, phone string) (bool, error)
	PastAppointments(ctx context.Context, businessID int64, phone string) ([]booking.Appointment, error)
	FutureAppointments(ctx context.Context, businessID int64, phone string) ([]booking.Appointment, error)
	KnownClientEmail(ctx context.Context, businessID int64, phone string) (string, error)
	CreateAppointment(ctx context.Context, draft booking.Draft) (int64, error)
	UpdateAppointment(ctx context.Context, businessID, id int64, upd booking.Update) (before, after booking.Appointment, err error)
	DeleteAppointment(ctx context.Context, businessID, id int64) (*booking.Appointment, error)
}

// Availability computes free slots; reads are advisory, the write path
// owns double-booking prevention.
type Availability interface {
	AvailableTimes(ctx context.Context, businessID int64, date string, employeeID *int64) (schedule.DayAvailability, error)
	BookableDays(ctx context.Context, businessID int64) ([]schedule.Day, error)
}

// Notifier delivers booking emails. Fire-and-forget: implementations log
// failures and never surface them into the conversation.
type Notifier interface {
	BookingConfirmation(ctx context.Context, appt booking.Appointment)
	ModificationNotice(ctx context.Context, before, after booking.Appointment)
	CancellationNotice(ctx context.Context, appt booking.Appointment)
}

// Options carries the tunable policy constants of the dialogue. The
// defaults reproduce the behavior the business has run with so far.
type Options struct {
	// MatchThreshold is the minimum fuzzy-match ratio for service and
	// menu recognition (default 0.6).
	MatchThreshold float64

	// PhoneDigits is the required digit count for client phones
	// (default 9).
	PhoneDigits int

	// RestartKeywords reset the conversation from any state.
	RestartKeywords []string

	// Location is the business timezone for display formatting and
	// "already passed" checks.
	Location *time.Location

	// Now overrides the clock, for tests.
	Now func() time.Time
}

var defaultRestartKeywords = []string{"start", "back", "menu", "reset", "inicio", "volver", "empezar"}

func (o *Options) applyDefaults() {
	if o.MatchThreshold <= 0 {
		o.MatchThreshold = textutil.DefaultMatchThreshold
	}
	if o.PhoneDigits <= 0 {
		o.PhoneDigits = 9
	}
	if len(o.RestartKeywords) == 0 {
		o.RestartKeywords = defaultRestartKeywords
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Engine routes inbound messages to the handler for the session's
// current state. It holds no per-conversation state itself; everything
// mutable lives in the Session value passed through HandleMessage.
type Engine struct {
	directory Directory
	store     Appointments
	avail     Availability
	finalizer *Finalizer
	logger    *logging.Logger
	metrics   *metrics.ConversationMetrics
	opts      Options
}

// NewEngine wires the dialogue engine to its collaborators. notifier and
// m may be nil.
func NewEngine(directory Directory, store Appointments, avail Availability, notifier Notifier, logger *logging.Logger, m *metrics.ConversationMetrics, opts Options) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	opts.applyDefaults()
	return &Engine{
		directory: directory,
		store:     store,
		avail:     avail,
		finalizer: NewFinalizer(store, notifier, logger),
		logger:    logger,
		metrics:   m,
		opts:      opts,
	}
}

const fallbackText = "Sorry, I didn't understand that. Would you like to book an appointment or manage an existing one?"

// HandleMessage processes one inbound message against a session and
// returns the reply plus the updated session. Messages of one
// conversation must be handled strictly in order; concurrency across
// distinct sessions is fine.
func (e *Engine) HandleMessage(ctx context.Context, sess Session, rawText string) (Reply, Session) {
	// Global interrupt: restart keywords escape any state.
	if textutil.EqualsKeyword(rawText, e.opts.RestartKeywords...) {
		sess.reset()
		return e.welcome(&sess), sess
	}

	e.metrics.ObserveMessage(sess.State.String())

	reply := e.dispatch(ctx, &sess, rawText)

	// A handler that produced no text is a bug; keep the client moving
	// instead of going silent.
	if reply.Text == "" {
		e.logger.Warn("dialog: handler produced empty reply", "state", sess.State.String())
		reply = choiceReply(fallbackText, choiceBook, choiceManage)
	}
	return reply, sess
}

// dispatch routes to the state handler. The switch is exhaustive over
// the State enum.
func (e *Engine) dispatch(ctx context.Context, s *Session, input string) Reply {
	purpose := ForNewBooking()
	if s.Managing != nil {
		purpose = ForModifying(s.Managing.ID)
	}

	switch s.State {
	case StateNone:
		s.reset()
		return e.welcome(s)
	case StateAwaitingInitialChoice:
		return e.handleInitialChoice(s, input)
	case StateAskingName:
		return e.handleName(s, input)
	case StateAskingPhone:
		return e.handlePhone(ctx, s, input)
	case StateAskingEmail:
		return e.handleEmail(ctx, s, input)
	case StateAskingService:
		return e.handleService(ctx, s, input, purpose)
	case StateAskingEmployee:
		return e.handleEmployee(ctx, s, input)
	case StateAskingDate:
		return e.handleDate(ctx, s, input)
	case StateAskingTime:
		return e.handleTime(ctx, s, input, purpose)
	case StatePreConfirmation:
		return e.handlePreConfirmation(ctx, s, input)
	case StateManageAskingPhone:
		return e.handleManagePhone(ctx, s, input)
	case StateManageAwaitingAction:
		return e.handleManageAction(s, input)
	case StateManageConfirmCancel:
		return e.handleManageCancel(ctx, s, input)
	case StateManagePickField:
		return e.handleManagePickField(ctx, s, input)
	default:
		s.reset()
		return e.welcome(s)
	}
}

const (
	choiceBook   = "Book appointment"
	choiceManage = "Manage appointment"
)

// welcome clears nothing by itself; callers reset the session first when
// the flow demands it.
func (e *Engine) welcome(s *Session) Reply {
	s.State = StateAwaitingInitialChoice
	return choiceReply(
		"Hi! Welcome to our salon. Would you like to book an appointment or manage an existing one?",
		choiceBook, choiceManage,
	)
}

func (e *Engine) now() time.Time {
	return e.opts.Now().In(e.opts.Location)
}
