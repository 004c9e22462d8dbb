package core

import (
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable

	ErrInvalidPhone = errors.New("invalid phone number")
)

const (
	phoneMinDigits = 10
	phoneMaxDigits = 15
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NormalizePhone strips formatting characters from `phone` and returns its digits, country code included.
// "+91 (98) 765-43210" -> "919876543210"
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	if len(digits) < phoneMinDigits || len(digits) > phoneMaxDigits {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// StartOfDay returns midnight of the day `t` falls on, in `loc`.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
