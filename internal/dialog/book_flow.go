package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sialweb/bookline/internal/booking"
	"github.com/sialweb/bookline/internal/textutil"
)

const storageApology = "Sorry, something went wrong on our side. Please try again in a moment."

func (e *Engine) handleInitialChoice(s *Session, input string) Reply {
	switch {
	case textutil.ContainsKeyword(input, "book", "agendar", "reservar"):
		s.State = StateAskingName
		return textReply("Perfect! Let's book a new appointment. First of all, what's your name?")
	case textutil.ContainsKeyword(input, "manage", "gestionar", "cancel", "cancelar", "modify", "modificar", "existing"):
		s.State = StateManageAskingPhone
		return textReply("Sure! To find your appointment, tell me your phone number.")
	}

	// Fuzzy fallback for near misses like "bok" or "manege".
	if choice, ok := textutil.Closest(input, []string{choiceBook, choiceManage}, e.opts.MatchThreshold); ok {
		if choice == choiceBook {
			s.State = StateAskingName
			return textReply("Perfect! Let's book a new appointment. First of all, what's your name?")
		}
		s.State = StateManageAskingPhone
		return textReply("Sure! To find your appointment, tell me your phone number.")
	}

	return choiceReply("I didn't catch that. Please choose one of the options:", choiceBook, choiceManage)
}

func (e *Engine) handleName(s *Session, input string) Reply {
	name, ok := validateName(input)
	if !ok {
		return textReply("That doesn't look like a valid name. Please tell me your name using letters only.")
	}
	s.CustomerName = name
	s.State = StateAskingPhone
	return textReply(fmt.Sprintf("Great, %s! Now tell me your mobile number.", name))
}

func (e *Engine) handlePhone(ctx context.Context, s *Session, input string) Reply {
	phone, ok := validatePhone(input, e.opts.PhoneDigits)
	if !ok {
		return textReply(fmt.Sprintf("A phone number should have %d digits. Could you check it and try again?", e.opts.PhoneDigits))
	}
	s.Phone = phone

	hasFuture, err := e.store.HasFutureAppointment(ctx, s.BusinessID, phone)
	if err != nil {
		e.logger.Error("dialog: future appointment check failed", "error", err, "business_id", s.BusinessID)
		return textReply(storageApology)
	}
	if hasFuture {
		// Cannot be resolved inside the booking flow; restart cleanly.
		s.reset()
		s.State = StateAwaitingInitialChoice
		return choiceReply(
			"Heads up! You already have an upcoming appointment. If you'd like to change or cancel it, choose \"Manage appointment\".",
			choiceBook, choiceManage,
		)
	}

	greeting := ""
	if past, err := e.store.PastAppointments(ctx, s.BusinessID, phone); err == nil && len(past) > 0 {
		last := past[0]
		greeting = fmt.Sprintf("Good to see you again, %s! Your last visit was on %s for a '%s'.\n\n",
			s.CustomerName, formatDateLong(last.Date, e.opts.Location), last.Service)
	} else if err != nil {
		// Personalization only; carry on without it.
		e.logger.Warn("dialog: past appointment lookup failed", "error", err, "business_id", s.BusinessID)
	}

	email, err := e.store.KnownClientEmail(ctx, s.BusinessID, phone)
	if err != nil {
		e.logger.Warn("dialog: known email lookup failed", "error", err, "business_id", s.BusinessID)
	}
	if email != "" {
		// Returning client with an email on file skips the email step.
		s.Email = email
		return e.presentServices(ctx, s, greeting, ForNewBooking())
	}

	s.State = StateAskingEmail
	return textReply(greeting + "Almost there! What's your email? We'll send the confirmation and a calendar invite there.")
}

func (e *Engine) handleEmail(ctx context.Context, s *Session, input string) Reply {
	email, ok := validateEmail(input)
	if !ok {
		return textReply("That email doesn't look right. Could you check it? (e.g. maria@example.com)")
	}
	s.Email = email
	return e.presentServices(ctx, s, "", ForNewBooking())
}

// presentServices lists the catalog and moves the conversation to
// service selection. The purpose decides the wording only; matching and
// persistence branch later, at the dispatch site.
func (e *Engine) presentServices(ctx context.Context, s *Session, prefix string, purpose Purpose) Reply {
	services, err := e.directory.Services(ctx, s.BusinessID)
	if err != nil {
		e.logger.Error("dialog: service catalog lookup failed", "error", err, "business_id", s.BusinessID)
		return textReply(storageApology)
	}
	if len(services) == 0 {
		e.logger.Error("dialog: business has no services configured", "business_id", s.BusinessID)
		return textReply(storageApology)
	}

	names := make([]string, len(services))
	var list strings.Builder
	for i, svc := range services {
		names[i] = svc.Name
		fmt.Fprintf(&list, "\n› %s — %s", svc.Name, formatPrice(svc.PriceCents))
	}
	s.ServiceChoices = names
	s.State = StateAskingService

	intro := "Here are our services:"
	question := "\n\nWhat would you like today?"
	if purpose.IsModify() {
		intro = "Alright. Which of these services should it be instead?"
		question = ""
	} else if prefix != "" {
		intro = "What would you like this time? Our services are:"
		question = ""
	}
	return Reply{
		Text:   prefix + intro + list.String() + question,
		Prompt: &StructuredPrompt{Kind: PromptChoices, Choices: names},
	}
}

func (e *Engine) handleService(ctx context.Context, s *Session, input string, purpose Purpose) Reply {
	choices := s.ServiceChoices
	service, ok := textutil.Closest(input, choices, e.opts.MatchThreshold)
	if !ok {
		return choiceReply("I didn't recognize that service. Please pick one from the list.", choices...)
	}

	if purpose.IsModify() {
		svc := service
		before, after, err := e.store.UpdateAppointment(ctx, s.BusinessID, purpose.AppointmentID(), booking.Update{Service: &svc})
		if err != nil {
			e.logger.Error("dialog: service modification failed", "error", err, "appointment_id", purpose.AppointmentID())
			return textReply(storageApology)
		}
		e.notifyModification(ctx, before, after)
		e.metrics.ObserveModification()
		s.reset()
		return textReply(fmt.Sprintf("Done! I've changed your appointment to '%s'. The day and time stay the same.", service))
	}

	s.Service = service

	employees, err := e.directory.Employees(ctx, s.BusinessID)
	if err != nil {
		e.logger.Error("dialog: employee lookup failed", "error", err, "business_id", s.BusinessID)
		return textReply(storageApology)
	}
	if len(employees) > 0 {
		s.HasEmployees = true
		s.State = StateAskingEmployee
		return choiceReply("Who would you like your appointment with?", employeeNames(employees)...)
	}
	return e.presentCalendar(ctx, s, "")
}

func (e *Engine) handleEmployee(ctx context.Context, s *Session, input string) Reply {
	employees, err := e.directory.Employees(ctx, s.BusinessID)
	if err != nil {
		e.logger.Error("dialog: employee lookup failed", "error", err, "business_id", s.BusinessID)
		return textReply(storageApology)
	}

	for _, emp := range employees {
		if textutil.EqualsKeyword(input, emp.Name) {
			id := emp.ID
			s.EmployeeID = &id
			s.EmployeeName = emp.Name
			return e.presentCalendar(ctx, s, "")
		}
	}
	return choiceReply("Please choose one of our team members:", employeeNames(employees)...)
}

// presentCalendar shows the day picker and moves to date selection.
func (e *Engine) presentCalendar(ctx context.Context, s *Session, prefix string) Reply {
	days, err := e.avail.BookableDays(ctx, s.BusinessID)
	if err != nil {
		e.logger.Error("dialog: bookable days lookup failed", "error", err, "business_id", s.BusinessID)
		return textReply(storageApology)
	}
	if len(days) == 0 {
		return textReply(prefix + "We have no bookable days left this month. Please get in touch with us directly.")
	}
	s.State = StateAskingDate
	text := "Pick a day from the calendar:"
	if prefix != "" {
		text = prefix + " Pick another day from the calendar:"
	}
	return dayReply(text, days)
}

func (e *Engine) handleDate(ctx context.Context, s *Session, input string) Reply {
	date := strings.TrimSpace(input)
	if _, err := time.ParseInLocation(booking.DateLayout, date, e.opts.Location); err != nil {
		return e.presentCalendar(ctx, s, "I didn't understand that date.")
	}

	avail, err := e.avail.AvailableTimes(ctx, s.BusinessID, date, s.EmployeeID)
	if err != nil {
		e.logger.Error("dialog: availability lookup failed", "error", err, "business_id", s.BusinessID, "date", date)
		return textReply(storageApology)
	}
	if !avail.Open {
		// Closed day: stay at date selection, keep every other slot.
		return e.presentCalendar(ctx, s, fmt.Sprintf("We're closed on %s.", formatDateShort(date, e.opts.Location)))
	}
	if len(avail.Times) == 0 {
		return e.presentCalendar(ctx, s, fmt.Sprintf("No free slots left on %s.", formatDateShort(date, e.opts.Location)))
	}

	s.Date = date
	s.State = StateAskingTime
	return hourReply(fmt.Sprintf("Great. On %s I have these times free:", formatDateShort(date, e.opts.Location)), avail.Times)
}

func (e *Engine) handleTime(ctx context.Context, s *Session, input string, purpose Purpose) Reply {
	chosen, ok := validateTimeToken(input)
	if !ok {
		return e.reofferTimes(ctx, s, "Please pick one of the time buttons.")
	}

	// The earlier availability read is advisory; re-check so a slot
	// taken while the user was deciding is caught before confirmation.
	avail, err := e.avail.AvailableTimes(ctx, s.BusinessID, s.Date, s.EmployeeID)
	if err != nil {
		e.logger.Error("dialog: availability re-check failed", "error", err, "business_id", s.BusinessID, "date", s.Date)
		return textReply(storageApology)
	}
	if !containsTime(avail.Times, chosen) {
		return e.reofferTimes(ctx, s, fmt.Sprintf("Oops, %s is no longer free.", chosen))
	}

	s.Time = chosen

	if purpose.IsModify() {
		date, tm := s.Date, chosen
		before, after, err := e.store.UpdateAppointment(ctx, s.BusinessID, purpose.AppointmentID(), booking.Update{Date: &date, Time: &tm})
		if err != nil {
			e.logger.Error("dialog: reschedule failed", "error", err, "appointment_id", purpose.AppointmentID())
			return textReply(storageApology)
		}
		e.notifyModification(ctx, before, after)
		e.metrics.ObserveModification()
		reply := textReply(fmt.Sprintf("Appointment updated! Your new appointment is on %s at %s.", formatDateLong(date, e.opts.Location), tm))
		s.reset()
		return reply
	}

	s.State = StatePreConfirmation
	return e.confirmationSummary(s)
}

// confirmationSummary renders the full review before finalizing.
func (e *Engine) confirmationSummary(s *Session) Reply {
	var b strings.Builder
	b.WriteString("Here's your appointment:\n")
	fmt.Fprintf(&b, "› Name: %s\n", s.CustomerName)
	fmt.Fprintf(&b, "› Service: %s\n", s.Service)
	if s.EmployeeName != "" {
		fmt.Fprintf(&b, "› With: %s\n", s.EmployeeName)
	}
	fmt.Fprintf(&b, "› Day: %s\n", formatDateLong(s.Date, e.opts.Location))
	fmt.Fprintf(&b, "› Time: %s\n", s.Time)
	b.WriteString("\nShall I confirm it?")

	choices := []string{"Confirm"}
	if s.HasEmployees {
		choices = append(choices, "Change employee")
	}
	choices = append(choices, "Change date/time")
	return choiceReply(b.String(), choices...)
}

func (e *Engine) handlePreConfirmation(ctx context.Context, s *Session, input string) Reply {
	switch {
	case textutil.ContainsKeyword(input, "confirm", "confirmar") || textutil.EqualsKeyword(input, "yes", "si", "ok"):
		return e.confirmBooking(ctx, s)

	case s.HasEmployees && textutil.ContainsKeyword(input, "employee", "empleado", "staff", "profesional"):
		employees, err := e.directory.Employees(ctx, s.BusinessID)
		if err != nil {
			e.logger.Error("dialog: employee lookup failed", "error", err, "business_id", s.BusinessID)
			return textReply(storageApology)
		}
		s.State = StateAskingEmployee
		return choiceReply("Sure. Who would you like instead?", employeeNames(employees)...)

	case textutil.ContainsKeyword(input, "date", "day", "time", "fecha", "dia", "hora"):
		return e.presentCalendar(ctx, s, "No problem.")
	}
	return e.confirmationSummary(s)
}

func (e *Engine) confirmBooking(ctx context.Context, s *Session) Reply {
	appt, err := e.finalizer.Finalize(ctx, s)
	switch {
	case err == nil:
		e.metrics.ObserveBooking()
		reply := textReply(fmt.Sprintf(
			"All set, %s! Your appointment is confirmed.\n\n› Service: %s\n› Day: %s\n› Time: %s\n\nThank you, see you soon!",
			s.CustomerName, appt.Service, formatDateLong(appt.Date, e.opts.Location), appt.Time,
		))
		s.reset()
		return reply

	case isSlotTaken(err):
		// Lost the race between availability check and write: discard
		// only the chosen time and re-offer what's left.
		e.metrics.ObserveSlotConflict()
		taken := s.Time
		s.Time = ""
		s.State = StateAskingTime
		return e.reofferTimes(ctx, s, fmt.Sprintf("While confirming, %s was taken by someone else.", taken))

	default:
		e.logger.Error("dialog: booking finalization failed", "error", err, "business_id", s.BusinessID)
		// Session stays at pre-confirmation so the client can retry
		// without re-entering anything.
		return textReply("We couldn't complete your booking just now. Please try confirming again in a moment.")
	}
}

// reofferTimes re-renders the hour picker for the session's date, or
// falls back to the calendar when nothing is left on that day.
func (e *Engine) reofferTimes(ctx context.Context, s *Session, prefix string) Reply {
	avail, err := e.avail.AvailableTimes(ctx, s.BusinessID, s.Date, s.EmployeeID)
	if err != nil {
		e.logger.Error("dialog: availability lookup failed", "error", err, "business_id", s.BusinessID, "date", s.Date)
		return textReply(storageApology)
	}
	if !avail.Open || len(avail.Times) == 0 {
		return e.presentCalendar(ctx, s, prefix+" Nothing is left on that day.")
	}
	s.State = StateAskingTime
	return hourReply(prefix+" These times are still free:", avail.Times)
}

func (e *Engine) notifyModification(ctx context.Context, before, after booking.Appointment) {
	if e.finalizer.notifier == nil {
		return
	}
	e.finalizer.notifier.ModificationNotice(context.WithoutCancel(ctx), before, after)
}

func employeeNames(employees []booking.Employee) []string {
	names := make([]string, len(employees))
	for i, emp := range employees {
		names[i] = emp.Name
	}
	return names
}

func containsTime(times []string, t string) bool {
	for _, candidate := range times {
		if candidate == t {
			return true
		}
	}
	return false
}

func formatPrice(cents int) string {
	if cents%100 == 0 {
		return fmt.Sprintf("%d€", cents/100)
	}
	return fmt.Sprintf("%d.%02d€", cents/100, cents%100)
}

// formatDateShort renders "02/01"; formatDateLong renders "02/01/2006".
// Malformed stored dates fall back to the raw value.
func formatDateShort(date string, loc *time.Location) string {
	if d, err := time.ParseInLocation(booking.DateLayout, date, loc); err == nil {
		return d.Format("02/01")
	}
	return date
}

func formatDateLong(date string, loc *time.Location) string {
	if d, err := time.ParseInLocation(booking.DateLayout, date, loc); err == nil {
		return d.Format("02/01/2006")
	}
	return date
}
