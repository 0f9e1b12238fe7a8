// SPDX-License-Identifier: MIT

package wizard

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field length bounds for the friend-detail form.
const (
	MinCallerNameLen   = 2
	MaxCallerNameLen   = 50
	MaxFriendNameLen   = 50
	MaxIntroductionLen = 100
	MaxLastMemoryLen   = 300
)

// FriendCallRequest carries everything needed to trigger one call.
// PhoneNumber is stored in normalized E.164 form after Validate.
type FriendCallRequest struct {
	CallerName   string `json:"userName"`
	FriendName   string `json:"friendName"`
	PhoneNumber  string `json:"phone"`
	Introduction string `json:"introduction"`
	LastMemory   string `json:"lastMemory"`
}

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects per-field errors from Validate.
type ValidationResult struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid reports whether the request passed all checks.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Error implements error for use at the API boundary.
func (r ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

func (r *ValidationResult) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// Validate checks all fields against the authoritative bounds and
// normalizes the phone number in place on success. Validation is purely
// local; it never contacts a provider.
func (q *FriendCallRequest) Validate() ValidationResult {
	var res ValidationResult

	q.CallerName = strings.TrimSpace(q.CallerName)
	q.FriendName = strings.TrimSpace(q.FriendName)
	q.Introduction = strings.TrimSpace(q.Introduction)
	q.LastMemory = strings.TrimSpace(q.LastMemory)

	switch n := utf8.RuneCountInString(q.CallerName); {
	case n == 0:
		res.add("userName", "your name is required")
	case n < MinCallerNameLen:
		res.add("userName", fmt.Sprintf("must be at least %d characters", MinCallerNameLen))
	case n > MaxCallerNameLen:
		res.add("userName", fmt.Sprintf("must be at most %d characters", MaxCallerNameLen))
	}

	switch n := utf8.RuneCountInString(q.FriendName); {
	case n == 0:
		res.add("friendName", "friend's name is required")
	case n > MaxFriendNameLen:
		res.add("friendName", fmt.Sprintf("must be at most %d characters", MaxFriendNameLen))
	}

	switch n := utf8.RuneCountInString(q.Introduction); {
	case n == 0:
		res.add("introduction", "introduction is required")
	case n > MaxIntroductionLen:
		res.add("introduction", fmt.Sprintf("must be at most %d characters", MaxIntroductionLen))
	}

	switch n := utf8.RuneCountInString(q.LastMemory); {
	case n == 0:
		res.add("lastMemory", "last memory is required")
	case n > MaxLastMemoryLen:
		res.add("lastMemory", fmt.Sprintf("must be at most %d characters", MaxLastMemoryLen))
	}

	if strings.TrimSpace(q.PhoneNumber) == "" {
		res.add("phone", "phone number is required")
	} else if normalized, err := NormalizePhone(q.PhoneNumber); err != nil {
		res.add("phone", "must be a valid phone number, e.g. +15551234567")
	} else {
		q.PhoneNumber = normalized
	}

	return res
}
