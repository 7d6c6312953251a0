// Package dialog implements the conversation state machine that walks a
// client through booking, modifying or cancelling an appointment one
// message at a time.
package dialog

import "encoding/json"

// State identifies where a conversation is in the booking flow. The
// engine dispatches on it exhaustively, so adding a state without a
// handler is a compile-time visible change, not a silent fallthrough.
type State int

const (
	// StateNone is a fresh or completed conversation; the next message
	// produces the welcome prompt.
	StateNone State = iota
	StateAwaitingInitialChoice
	StateAskingName
	StateAskingPhone
	StateAskingEmail
	StateAskingService
	StateAskingEmployee
	StateAskingDate
	StateAskingTime
	StatePreConfirmation
	StateManageAskingPhone
	StateManageAwaitingAction
	StateManageConfirmCancel
	StateManagePickField
)

var stateNames = map[State]string{
	StateNone:                  "none",
	StateAwaitingInitialChoice: "awaiting_initial_choice",
	StateAskingName:            "asking_name",
	StateAskingPhone:           "asking_phone",
	StateAskingEmail:           "asking_email",
	StateAskingService:         "asking_service",
	StateAskingEmployee:        "asking_employee",
	StateAskingDate:            "asking_date",
	StateAskingTime:            "asking_time",
	StatePreConfirmation:       "pre_confirmation",
	StateManageAskingPhone:     "manage_asking_phone",
	StateManageAwaitingAction:  "manage_awaiting_action",
	StateManageConfirmCancel:   "manage_confirm_cancel",
	StateManagePickField:       "manage_pick_field",
}

var statesByName = func() map[string]State {
	m := make(map[string]State, len(stateNames))
	for s, name := range stateNames {
		m[name] = s
	}
	return m
}()

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes states by name so stored sessions survive enum
// reordering.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a state name; unknown names reset to StateNone,
// which re-welcomes the client instead of failing the conversation.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*s = statesByName[name]
	return nil
}

// ManagedAppointment is the existing appointment a manage-flow
// conversation operates on.
type ManagedAppointment struct {
	ID      int64  `json:"id"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Session is the collected state of one conversation. It is an explicit
// value: the transport loads it, hands it to HandleMessage, and stores
// whatever comes back. Nothing in this package keeps global state.
type Session struct {
	State      State `json:"state"`
	BusinessID int64 `json:"business_id"`

	CustomerName string `json:"customer_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Service      string `json:"service,omitempty"`
	EmployeeID   *int64 `json:"employee_id,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`

	// ServiceChoices caches the catalog names presented to the client so
	// fuzzy matching runs against exactly what they saw.
	ServiceChoices []string `json:"service_choices,omitempty"`

	// HasEmployees records whether this business schedules per employee;
	// it decides if employee selection is required before finalizing.
	HasEmployees bool `json:"has_employees,omitempty"`

	// Managing is set while modifying or cancelling an existing
	// appointment.
	Managing *ManagedAppointment `json:"managing,omitempty"`
}

// NewSession starts an empty conversation for a business.
func NewSession(businessID int64) Session {
	return Session{BusinessID: businessID}
}

// Completed reports that the flow finished (or was reset to nothing);
// the transport may drop the stored session.
func (s Session) Completed() bool {
	return s.State == StateNone
}

// reset clears every collected slot, keeping only the business scope.
func (s *Session) reset() {
	*s = NewSession(s.BusinessID)
}

// Purpose says what a shared sub-flow handler (service, date, time
// selection) is working toward: a new booking, or an in-place change of
// an existing appointment. Passing it explicitly keeps the branch
// visible at the dispatch site.
type Purpose struct {
	appointmentID int64
}

// ForNewBooking is the purpose of the standard booking flow.
func ForNewBooking() Purpose {
	return Purpose{}
}

// ForModifying targets an existing appointment by id.
func ForModifying(appointmentID int64) Purpose {
	return Purpose{appointmentID: appointmentID}
}

// IsModify reports whether the sub-flow updates an existing appointment
// instead of creating one.
func (p Purpose) IsModify() bool {
	return p.appointmentID != 0
}

// AppointmentID returns the target appointment for a modify purpose.
func (p Purpose) AppointmentID() int64 {
	return p.appointmentID
}
