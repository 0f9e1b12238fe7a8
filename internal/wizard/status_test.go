// SPDX-License-Identifier: MIT

package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapProviderStatus(t *testing.T) {
	cases := map[string]Status{
		"scheduled":   StatusPreparing,
		"ringing":     StatusCalling,
		"in-progress": StatusInProgress,
		"completed":   StatusCompleted,
		"failed":      StatusFailed,
		// Everything unmapped collapses to unknown.
		"queued":    StatusUnknown,
		"ended":     StatusUnknown,
		"COMPLETED": StatusUnknown,
		"":          StatusUnknown,
		"forwarded": StatusUnknown,
	}
	for provider, want := range cases {
		assert.Equal(t, want, MapProviderStatus(provider), "provider status %q", provider)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPreparing:  false,
		StatusCalling:    false,
		StatusInProgress: false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusUnknown:    false,
	}
	for status, want := range terminal {
		assert.Equal(t, want, status.Terminal(), "status %q", status)
	}
}
