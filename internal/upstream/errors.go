// SPDX-License-Identifier: MIT

// Package upstream holds the error taxonomy shared by the provider clients.
package upstream

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the API boundary.
	ErrUnavailable = errors.New("upstream: provider not configured")
	ErrTimeout     = errors.New("upstream: request timed out")
	ErrTransport   = errors.New("upstream: transport failure")
	ErrRejected    = errors.New("upstream: provider rejected request")
	ErrBadResponse = errors.New("upstream: malformed provider response")
)

// Error wraps a sentinel with provider context. Status and Body carry the
// provider's response for diagnostics when the sentinel is ErrRejected.
type Error struct {
	Sentinel  error
	Provider  string
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", e.Provider, e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Sentinel
}

// AsError extracts an *Error from err if present.
func AsError(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
