// Package booking holds the domain types shared between the dialogue
// engine, the availability calculator and the Postgres store.
package booking

import (
	"errors"
	"time"
)

// Date and clock layouts used on the wire and in the database. Times are
// compared as exact "HH:MM" strings throughout; there is no duration
// arithmetic on the booking grid.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ErrSlotTaken is returned when an appointment write loses the race for a
// time slot. The unique index on (business, employee, date, time) is the
// single source of truth for double bookings; availability reads are
// advisory only.
var ErrSlotTaken = errors.New("booking: slot already taken")

// ErrNotFound is returned when an appointment no longer exists.
var ErrNotFound = errors.New("booking: appointment not found")

// Service is one entry of a business's catalog.
type Service struct {
	ID              int64
	Name            string
	PriceCents      int
	DurationMinutes int
}

// Employee is a bookable staff member. A business may have none, in which
// case conversations skip employee selection.
type Employee struct {
	ID   int64
	Name string
}

// WeekHours maps a weekday to its ordered list of bookable start times
// ("HH:MM"). A missing or empty entry means the business is closed that
// day.
type WeekHours map[time.Weekday][]string

// BlockedTime is a manually blocked slot. A nil EmployeeID blocks the
// whole business for that time; otherwise only the named employee.
type BlockedTime struct {
	Time       string
	EmployeeID *int64
}

// Appointment is a persisted booking.
type Appointment struct {
	ID           int64
	BusinessID   int64
	CustomerName string
	Phone        string
	Email        string
	Service      string
	EmployeeID   *int64
	Date         string // DateLayout
	Time         string // TimeLayout
}

// Draft is a fully collected slot set ready to persist.
type Draft struct {
	BusinessID   int64
	CustomerName string
	Phone        string
	Email        string
	Service      string
	EmployeeID   *int64
	Date         string
	Time         string
}

// Update describes a partial in-place modification of an appointment.
// Nil fields are left untouched.
type Update struct {
	Service *string
	Date    *string
	Time    *string
}

// StartsBefore reports whether the appointment's date and time are at or
// before the given instant. Used to drop same-day appointments that have
// already happened from the manage flow.
func (a Appointment) StartsBefore(now time.Time) bool {
	start, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, now.Location())
	if err != nil {
		return false
	}
	return !start.After(now)
}
