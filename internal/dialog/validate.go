package dialog

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sialweb/bookline/internal/textutil"
)

var (
	nameRe  = regexp.MustCompile(`^[\p{L}]+(?: [\p{L}]+)*$`)
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)
	timeRe  = regexp.MustCompile(`^(?:[01][0-9]|2[0-3]):[0-5][0-9]$`)
)

var nameCaser = cases.Title(language.Spanish)

// validateName accepts letters (accents included) and single spaces,
// between 2 and 50 characters, and returns the title-cased form.
func validateName(raw string) (string, bool) {
	name := strings.Join(strings.Fields(raw), " ")
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 50 || !nameRe.MatchString(name) {
		return "", false
	}
	return nameCaser.String(name), true
}

// validatePhone accepts input containing exactly wantDigits decimal
// digits once separators are stripped, and returns just the digits.
func validatePhone(raw string, wantDigits int) (string, bool) {
	digits := textutil.Digits(raw)
	if len(digits) != wantDigits {
		return "", false
	}
	return digits, true
}

// validateEmail accepts a permissive local@domain.tld shape; the domain
// must contain at least one dot.
func validateEmail(raw string) (string, bool) {
	email := strings.TrimSpace(raw)
	if !emailRe.MatchString(email) {
		return "", false
	}
	return email, true
}

// validateTimeToken accepts only the exact HH:MM shape the hour picker
// produces.
func validateTimeToken(raw string) (string, bool) {
	token := strings.TrimSpace(raw)
	if !timeRe.MatchString(token) {
		return "", false
	}
	return token, true
}
