// Package store is the Postgres persistence layer for businesses,
// schedules and appointments.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sialweb/bookline/internal/booking"
)

// Querier is the subset of pgxpool.Pool the store needs. pgxmock
// satisfies it for tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists booking state in Postgres. It implements the dialogue
// engine's Directory and Appointments collaborators and the schedule
// calculator's Repo.
type Store struct {
	pool Querier
	loc  *time.Location
	now  func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithLocation sets the business timezone used for "today" boundaries.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store backed by a pgx pool.
func NewStore(pool Querier, opts ...Option) *Store {
	if pool == nil {
		panic("store: pgx pool required")
	}
	s := &Store{pool: pool, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) today() string {
	return s.now().In(s.loc).Format(booking.DateLayout)
}

// --- directory -------------------------------------------------------------

// Services returns the business catalog in display order.
func (s *Store) Services(ctx context.Context, businessID int64) ([]booking.Service, error) {
	query := `
		SELECT id, name, price_cents, duration_minutes
		FROM services
		WHERE business_id = $1
		ORDER BY position, id
	`
	rows, err := s.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("store: select services: %w", err)
	}
	defer rows.Close()

	var services []booking.Service
	for rows.Next() {
		var svc booking.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.PriceCents, &svc.DurationMinutes); err != nil {
			return nil, fmt.Errorf("store: scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate services: %w", err)
	}
	return services, nil
}

// Employees returns the bookable staff. An empty result is normal for
// businesses without per-employee scheduling.
func (s *Store) Employees(ctx context.Context, businessID int64) ([]booking.Employee, error) {
	query := `
		SELECT id, name
		FROM employees
		WHERE business_id = $1
		ORDER BY id
	`
	rows, err := s.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("store: select employees: %w", err)
	}
	defer rows.Close()

	var employees []booking.Employee
	for rows.Next() {
		var emp booking.Employee
		if err := rows.Scan(&emp.ID, &emp.Name); err != nil {
			return nil, fmt.Errorf("store: scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate employees: %w", err)
	}
	return employees, nil
}

// --- schedule --------------------------------------------------------------

// Hours returns the weekly opening times. Weekdays with no row are
// closed.
func (s *Store) Hours(ctx context.Context, businessID int64) (booking.WeekHours, error) {
	query := `
		SELECT weekday, times
		FROM business_hours
		WHERE business_id = $1
	`
	rows, err := s.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("store: select hours: %w", err)
	}
	defer rows.Close()

	hours := make(booking.WeekHours)
	for rows.Next() {
		var weekday int
		var times []string
		if err := rows.Scan(&weekday, &times); err != nil {
			return nil, fmt.Errorf("store: scan hours: %w", err)
		}
		hours[time.Weekday(weekday)] = times
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate hours: %w", err)
	}
	return hours, nil
}

// OccupiedTimes returns the start times already booked on a date. With an
// employee filter, appointments without an assigned employee still count
// as occupied.
func (s *Store) OccupiedTimes(ctx context.Context, businessID int64, date string, employeeID *int64) ([]string, error) {
	query := `
		SELECT start_time
		FROM appointments
		WHERE business_id = $1
		  AND date = $2
		  AND ($3::bigint IS NULL OR employee_id IS NULL OR employee_id = $3)
	`
	rows, err := s.pool.Query(ctx, query, businessID, date, employeeID)
	if err != nil {
		return nil, fmt.Errorf("store: select occupied times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("store: scan occupied time: %w", err)
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate occupied times: %w", err)
	}
	return times, nil
}

// BlockedTimes returns manual blocks for a date; the calculator decides
// which ones apply to a given employee.
func (s *Store) BlockedTimes(ctx context.Context, businessID int64, date string) ([]booking.BlockedTime, error) {
	query := `
		SELECT start_time, employee_id
		FROM blocked_slots
		WHERE business_id = $1
		  AND date = $2
	`
	rows, err := s.pool.Query(ctx, query, businessID, date)
	if err != nil {
		return nil, fmt.Errorf("store: select blocked times: %w", err)
	}
	defer rows.Close()

	var blocks []booking.BlockedTime
	for rows.Next() {
		var b booking.BlockedTime
		if err := rows.Scan(&b.Time, &b.EmployeeID); err != nil {
			return nil, fmt.Errorf("store: scan blocked time: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate blocked times: %w", err)
	}
	return blocks, nil
}

// --- appointments ----------------------------------------------------------

const appointmentColumns = "id, business_id, customer_name, phone, email, service, employee_id, date, start_time"

func scanAppointment(row pgx.Row) (booking.Appointment, error) {
	var appt booking.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.BusinessID,
		&appt.CustomerName,
		&appt.Phone,
		&appt.Email,
		&appt.Service,
		&appt.EmployeeID,
		&appt.Date,
		&appt.Time,
	)
	return appt, err
}

// HasFutureAppointment reports whether the phone already has an
// appointment today or later.
func (s *Store) HasFutureAppointment(ctx context.Context, businessID int64, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE business_id = $1 AND phone = $2 AND date >= $3
		)
	`
	var exists bool
	if err := s.pool.QueryRow(ctx, query, businessID, phone, s.today()).Scan(&exists); err != nil {
		return false, fmt.Errorf("store: future appointment check: %w", err)
	}
	return exists, nil
}

// PastAppointments returns the phone's completed appointments, most
// recent first.
func (s *Store) PastAppointments(ctx context.Context, businessID int64, phone string) ([]booking.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE business_id = $1 AND phone = $2 AND date < $3
		ORDER BY date DESC, start_time DESC
		LIMIT 5
	`
	return s.selectAppointments(ctx, query, businessID, phone, s.today())
}

// FutureAppointments returns the phone's upcoming appointments, nearest
// first. Same-day entries may already have passed; callers filter by
// time.
func (s *Store) FutureAppointments(ctx context.Context, businessID int64, phone string) ([]booking.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE business_id = $1 AND phone = $2 AND date >= $3
		ORDER BY date, start_time
	`
	return s.selectAppointments(ctx, query, businessID, phone, s.today())
}

func (s *Store) selectAppointments(ctx context.Context, query string, args ...any) ([]booking.Appointment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: select appointments: %w", err)
	}
	defer rows.Close()

	var appts []booking.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate appointments: %w", err)
	}
	return appts, nil
}

// KnownClientEmail returns the email of the phone's most recent
// appointment, or "" for a first-time client.
func (s *Store) KnownClientEmail(ctx context.Context, businessID int64, phone string) (string, error) {
	query := `
		SELECT email
		FROM appointments
		WHERE business_id = $1 AND phone = $2
		ORDER BY id DESC
		LIMIT 1
	`
	var email string
	if err := s.pool.QueryRow(ctx, query, businessID, phone).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("store: known email lookup: %w", err)
	}
	return email, nil
}

// CreateAppointment inserts a new appointment. Losing the slot race
// surfaces as booking.ErrSlotTaken via the unique index on
// (business_id, employee_id, date, start_time).
func (s *Store) CreateAppointment(ctx context.Context, draft booking.Draft) (int64, error) {
	query := `
		INSERT INTO appointments (business_id, customer_name, phone, email, service, employee_id, date, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		draft.BusinessID,
		draft.CustomerName,
		draft.Phone,
		draft.Email,
		draft.Service,
		draft.EmployeeID,
		draft.Date,
		draft.Time,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, booking.ErrSlotTaken
		}
		return 0, fmt.Errorf("store: insert appointment: %w", err)
	}
	return id, nil
}

// UpdateAppointment applies a partial update and returns the row before
// and after the change. A rescheduled slot that collides returns
// booking.ErrSlotTaken; a vanished appointment returns
// booking.ErrNotFound.
func (s *Store) UpdateAppointment(ctx context.Context, businessID, id int64, upd booking.Update) (booking.Appointment, booking.Appointment, error) {
	var zero booking.Appointment

	before, err := scanAppointment(s.pool.QueryRow(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE business_id = $1 AND id = $2",
		businessID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, zero, booking.ErrNotFound
		}
		return zero, zero, fmt.Errorf("store: load appointment: %w", err)
	}

	set := make([]string, 0, 3)
	args := []any{businessID, id}
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Service != nil {
		add("service", *upd.Service)
	}
	if upd.Date != nil {
		add("date", *upd.Date)
	}
	if upd.Time != nil {
		add("start_time", *upd.Time)
	}
	if len(set) == 0 {
		return before, before, nil
	}

	query := "UPDATE appointments SET " + strings.Join(set, ", ") +
		" WHERE business_id = $1 AND id = $2 RETURNING " + appointmentColumns
	after, err := scanAppointment(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return zero, zero, booking.ErrSlotTaken
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, zero, booking.ErrNotFound
		}
		return zero, zero, fmt.Errorf("store: update appointment: %w", err)
	}
	return before, after, nil
}

// DeleteAppointment removes an appointment and returns the deleted row.
// A nil result without error means it was already gone.
func (s *Store) DeleteAppointment(ctx context.Context, businessID, id int64) (*booking.Appointment, error) {
	query := `
		DELETE FROM appointments
		WHERE business_id = $1 AND id = $2
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(s.pool.QueryRow(ctx, query, businessID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: delete appointment: %w", err)
	}
	return &appt, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
