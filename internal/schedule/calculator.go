// Package schedule computes the bookable time slots for a business on a
// given date from its weekly opening hours, existing appointments and
// manual blocks.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sialweb/bookline/internal/booking"
)

// Repo provides the read-only scheduling data the calculator needs.
type Repo interface {
	Hours(ctx context.Context, businessID int64) (booking.WeekHours, error)
	OccupiedTimes(ctx context.Context, businessID int64, date string, employeeID *int64) ([]string, error)
	BlockedTimes(ctx context.Context, businessID int64, date string) ([]booking.BlockedTime, error)
}

// Day is one selectable calendar day for the day-picker prompt.
type Day struct {
	Display string `json:"display"` // e.g. "Mon 02/09"
	Value   string `json:"value"`   // e.g. "2026-09-02"
}

// DayAvailability is the result of an availability query. Open is false
// when the business has no configured hours for that weekday; callers
// render a "closed that day" message instead of "fully booked".
type DayAvailability struct {
	Open  bool
	Times []string
}

// Calculator resolves free slots against a business's configured hours.
type Calculator struct {
	repo Repo
	loc  *time.Location
	now  func() time.Time
}

// Option customizes a Calculator.
type Option func(*Calculator)

// WithClock overrides the time source. Tests pin "now" with this.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator creates a calculator operating in the given business
// timezone.
func NewCalculator(repo Repo, loc *time.Location, opts ...Option) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	c := &Calculator{repo: repo, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AvailableTimes returns the ordered free slots for a date, in the order
// the opening hours are configured. Slots on the current day whose hour
// has already started are excluded: the cutoff is whole-hour, so at 10:05
// a 10:30 slot is gone too. That coarse rule is long-standing observed
// behavior and is reproduced on purpose.
func (c *Calculator) AvailableTimes(ctx context.Context, businessID int64, date string, employeeID *int64) (DayAvailability, error) {
	day, err := time.ParseInLocation(booking.DateLayout, date, c.loc)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("schedule: invalid date %q: %w", date, err)
	}

	hours, err := c.repo.Hours(ctx, businessID)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("schedule: load hours: %w", err)
	}
	open := hours[day.Weekday()]
	if len(open) == 0 {
		return DayAvailability{Open: false}, nil
	}

	occupied, err := c.repo.OccupiedTimes(ctx, businessID, date, employeeID)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("schedule: load occupied times: %w", err)
	}
	blocked, err := c.repo.BlockedTimes(ctx, businessID, date)
	if err != nil {
		return DayAvailability{}, fmt.Errorf("schedule: load blocked times: %w", err)
	}

	now := c.now().In(c.loc)
	sameDay := day.Year() == now.Year() && day.YearDay() == now.YearDay()

	return DayAvailability{
		Open:  true,
		Times: freeTimes(open, occupied, blocked, employeeID, sameDay, now.Hour()),
	}, nil
}

// BookableDays lists the remaining days of the current month on which the
// business opens at all, today included. Weekdays with no configured
// hours never appear.
func (c *Calculator) BookableDays(ctx context.Context, businessID int64) ([]Day, error) {
	hours, err := c.repo.Hours(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("schedule: load hours: %w", err)
	}

	now := c.now().In(c.loc)
	var days []Day
	for d := now; d.Month() == now.Month(); d = d.AddDate(0, 0, 1) {
		if len(hours[d.Weekday()]) == 0 {
			continue
		}
		days = append(days, Day{
			Display: d.Format("Mon 02/01"),
			Value:   d.Format(booking.DateLayout),
		})
	}
	return days, nil
}

// freeTimes subtracts occupied and applicable blocked times from the
// configured opening times, preserving configuration order.
func freeTimes(open, occupied []string, blocked []booking.BlockedTime, employeeID *int64, sameDay bool, nowHour int) []string {
	taken := make(map[string]struct{}, len(occupied)+len(blocked))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}
	for _, b := range blocked {
		if blockApplies(b, employeeID) {
			taken[b.Time] = struct{}{}
		}
	}

	var free []string
	for _, t := range open {
		if _, ok := taken[t]; ok {
			continue
		}
		if sameDay && slotHour(t) <= nowHour {
			continue
		}
		free = append(free, t)
	}
	return free
}

// blockApplies reports whether a manual block affects the requested
// scope. A business-wide block (nil employee) always applies; an
// employee-scoped block only applies to that employee.
func blockApplies(b booking.BlockedTime, employeeID *int64) bool {
	if b.EmployeeID == nil {
		return true
	}
	return employeeID != nil && *b.EmployeeID == *employeeID
}

func slotHour(t string) int {
	if len(t) < 2 {
		return -1
	}
	h, err := strconv.Atoi(t[:2])
	if err != nil {
		return -1
	}
	return h
}
