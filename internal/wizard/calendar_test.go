// SPDX-License-Identifier: MIT

package wizard

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSchedule(t *testing.T) {
	start, err := DeriveSchedule("Great chat, agreed to talk again on 15-06-2025 14:30 sharp.")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 15, 14, 30, 0, 0, time.Local), start)
}

func TestDeriveScheduleNoCallScheduled(t *testing.T) {
	_, err := DeriveSchedule("They were busy. <NO CALL SCHEDULED> Maybe next month.")
	assert.ErrorIs(t, err, ErrNoCallScheduled)
}

func TestDeriveScheduleMarkerWinsOverDate(t *testing.T) {
	// The explicit marker takes precedence even when a date-like string appears.
	_, err := DeriveSchedule("<NO CALL SCHEDULED> previously discussed 15-06-2025 14:30")
	assert.ErrorIs(t, err, ErrNoCallScheduled)
}

func TestDeriveScheduleUnparseable(t *testing.T) {
	cases := []string{
		"",
		"Nice call, no date agreed.",
		"Next week on Tuesday at three.",
		"2025-06-15 14:30", // wrong field order
		"15/06/2025 14:30", // wrong separator
		"99-99-2025 14:30", // out-of-range components
	}
	for _, summary := range cases {
		_, err := DeriveSchedule(summary)
		assert.ErrorIs(t, err, ErrUnparseable, "summary %q", summary)
	}
}

func TestEventLink(t *testing.T) {
	start := time.Date(2025, time.June, 15, 14, 30, 0, 0, time.UTC)
	link := EventLink("Sam", "Agreed to talk on 15-06-2025 14:30.", start)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Chat with Sam", q.Get("text"))
	assert.Equal(t, "Agreed to talk on 15-06-2025 14:30.", q.Get("details"))
	assert.Equal(t, "UTC", q.Get("ctz"))
	// End time is exactly 30 minutes after start.
	assert.Equal(t, "20250615T143000Z/20250615T150000Z", q.Get("dates"))
}
