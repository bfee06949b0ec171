package task

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date layout used on the wire and in flags.
const DateLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// Day truncates t to midnight in the local time zone.
func Day(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Today returns the current date at local midnight.
func Today() time.Time {
	return Day(time.Now())
}

// ParseDate parses a calendar date or a timestamp and returns the local
// calendar day it falls on. Plain dates are taken as local calendar dates.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

func datePtr(t time.Time) *time.Time {
	return &t
}
