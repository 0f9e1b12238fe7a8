// SPDX-License-Identifier: MIT

package wizard

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NoCallScheduledMarker is emitted verbatim by the assistant when the friend
// declined to schedule a follow-up call.
const NoCallScheduledMarker = "<NO CALL SCHEDULED>"

// EventDuration is the fixed length of the derived calendar event.
const EventDuration = 30 * time.Minute

var (
	// ErrNoCallScheduled means the summary explicitly states no call was agreed.
	ErrNoCallScheduled = errors.New("no call scheduled")
	// ErrUnparseable means the summary carries no recognizable date-time.
	ErrUnparseable = errors.New("no schedule found in summary")
)

// Matches DD-MM-YYYY HH:MM (24-hour clock) anywhere in the summary.
var schedulePattern = regexp.MustCompile(`(\d{2})-(\d{2})-(\d{4}) (\d{2}):(\d{2})`)

// DeriveSchedule extracts the agreed follow-up time from a call summary.
func DeriveSchedule(summary string) (time.Time, error) {
	if strings.Contains(summary, NoCallScheduledMarker) {
		return time.Time{}, ErrNoCallScheduled
	}
	m := schedulePattern.FindStringSubmatch(summary)
	if m == nil {
		return time.Time{}, ErrUnparseable
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
	// time.Date silently normalizes out-of-range components; reject those.
	if t.Day() != day || int(t.Month()) != month || t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, ErrUnparseable
	}
	return t, nil
}

// EventLink builds a Google Calendar event-creation link for the derived
// schedule: 30 minutes long, UTC, titled after the friend, with the full
// summary as description.
func EventLink(friendName, summary string, start time.Time) string {
	end := start.Add(EventDuration)
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", fmt.Sprintf("Chat with %s", friendName))
	q.Set("details", summary)
	q.Set("dates", fmt.Sprintf("%s/%s", calendarTime(start), calendarTime(end)))
	q.Set("ctz", "UTC")
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

func calendarTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
