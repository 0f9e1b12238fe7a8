// SPDX-License-Identifier: MIT

package wizard

import (
	"fmt"
	"regexp"
	"strings"
)

var e164Pattern = regexp.MustCompile(`^\+\d{10,15}$`)

// ErrInvalidPhone is returned when a phone number cannot be normalized
// into E.164 form.
type ErrInvalidPhone struct {
	Input string
}

func (e *ErrInvalidPhone) Error() string {
	return fmt.Sprintf("invalid phone number format: %q", e.Input)
}

// NormalizePhone converts user input into E.164 form:
//   - 10 digits are assumed North American and prefixed with +1
//   - 11 digits starting with 1 are prefixed with +
//   - an already +-prefixed number matching +\d{10,15} passes through
//
// Anything else is rejected.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ErrInvalidPhone{Input: raw}
	}

	// An already well-formed E.164 number passes through unchanged.
	if e164Pattern.MatchString(trimmed) {
		return trimmed, nil
	}

	digits := stripNonDigits(trimmed)
	switch {
	case len(digits) == 10:
		return "+1" + digits, nil
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, nil
	}
	return "", &ErrInvalidPhone{Input: raw}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
