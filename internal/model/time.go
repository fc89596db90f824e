package model

import (
	"errors"
	"fmt"
	"time"
)

// Wire formats for the naive local date/time strings in the collaborator
// payload. No timezone conversion happens anywhere: values are interpreted
// in the configured display location and stay there.
const (
	LayoutDate     = "2006-01-02"
	LayoutClock    = "15:04"
	LayoutDateTime = "2006-01-02T15:04"
)

// ParseDate parses a "2006-01-02" calendar date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(LayoutDate, s, loc)
}

// ParseDateTime parses a "2006-01-02T15:04" local date-time in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(LayoutDateTime, s, loc)
}

// ParseClock parses a "15:04" time of day into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, perr := time.Parse(LayoutClock, s)
	if perr != nil {
		return 0, 0, fmt.Errorf("bad time of day %q: %w", s, perr)
	}
	return t.Hour(), t.Minute(), nil
}

// At combines a calendar date with a time of day in the date's location.
func At(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

var errNoWeekday = errors.New("unrecognized weekday label")

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseWeekday maps a "Sun".."Sat" label to a time.Weekday.
func ParseWeekday(label string) (time.Weekday, error) {
	for i, l := range weekdayLabels {
		if l == label {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errNoWeekday, label)
}

// WeekdayLabel is the inverse of ParseWeekday.
func WeekdayLabel(d time.Weekday) string {
	return weekdayLabels[int(d)%7]
}
