// SPDX-License-Identifier: MIT

package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"ten digits", "5551234567", "+15551234567"},
		{"ten digits with punctuation", "(555) 123-4567", "+15551234567"},
		{"eleven digits leading one", "15551234567", "+15551234567"},
		{"eleven digits with punctuation", "1-555-123-4567", "+15551234567"},
		{"valid e164 passthrough", "+442071234567", "+442071234567"},
		{"valid e164 long", "+123456789012345", "+123456789012345"},
		{"surrounding whitespace", " 5551234567 ", "+15551234567"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizePhoneRejects(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"letters", "abc"},
		{"too short", "555123"},
		{"nine digits", "555123456"},
		{"eleven digits not leading one", "25551234567"},
		{"twelve bare digits", "445551234567"},
		{"plus too short", "+123456789"},
		{"plus too long", "+1234567890123456"},
		{"plus with letters", "+1555call4567"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizePhone(tc.input)
			require.Error(t, err)
			var perr *ErrInvalidPhone
			assert.ErrorAs(t, err, &perr)
		})
	}
}
