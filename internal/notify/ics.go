package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/sialweb/bookline/internal/booking"
)

// iCalendar METHOD values. REQUEST creates or updates the event in the
// client's calendar; CANCEL removes it.
const (
	methodRequest = "REQUEST"
	methodCancel  = "CANCEL"
)

const icsTimeLayout = "20060102T150405"

// buildInvite renders a single-event iCalendar payload. The UID is
// derived from the appointment id, so a later update or cancellation
// with the same UID replaces the event instead of duplicating it.
func buildInvite(appt booking.Appointment, method string, sequence int, duration time.Duration, loc *time.Location, now time.Time) (string, error) {
	start, err := time.ParseInLocation(booking.DateLayout+" "+booking.TimeLayout, appt.Date+" "+appt.Time, loc)
	if err != nil {
		return "", fmt.Errorf("notify: invalid appointment start: %w", err)
	}
	end := start.Add(duration)

	status := "CONFIRMED"
	if method == methodCancel {
		status = "CANCELLED"
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Bookline//Booking//EN",
		"METHOD:" + method,
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:appointment-%d@bookline", appt.ID),
		"DTSTAMP:" + now.UTC().Format(icsTimeLayout) + "Z",
		fmt.Sprintf("DTSTART;TZID=%s:%s", loc.String(), start.Format(icsTimeLayout)),
		fmt.Sprintf("DTEND;TZID=%s:%s", loc.String(), end.Format(icsTimeLayout)),
		fmt.Sprintf("SEQUENCE:%d", sequence),
		"SUMMARY:" + escapeICS(appt.Service),
		"DESCRIPTION:" + escapeICS(fmt.Sprintf("Appointment for %s", appt.CustomerName)),
		"STATUS:" + status,
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n", nil
}

// escapeICS escapes the characters RFC 5545 treats as special in text
// values.
func escapeICS(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
