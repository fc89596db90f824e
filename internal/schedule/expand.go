package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "termcal/internal/log"
	"termcal/internal/model"
)

// Window is a half-open local date-time range [Start, End). Materialization
// is always scoped to one window: a preview week or the full term.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window is well-formed. An empty window
// (Start == End) is valid and yields no events.
func (w Window) Valid() bool {
	return !w.End.Before(w.Start)
}

// Contains reports half-open containment of an instant.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WeekWindow returns the 7-day window starting at midnight of anchor's day.
func WeekWindow(anchor time.Time) Window {
	start := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// Occurrence is one concrete, dated instance generated from a meeting block.
type Occurrence struct {
	// Day is the weekday label ("Sun".."Sat") this occurrence fell on.
	Day string
	// Start / End are the concrete local date-times of the instance.
	Start time.Time
	End   time.Time
}

// ExpandMeetingBlock expands a weekly meeting pattern into concrete
// occurrences inside the half-open window w, in ascending date order.
//
// Degenerate inputs yield an empty sequence, never an error:
//   - an empty (or entirely unrecognized) weekday set
//   - a validity range whose end date precedes its start date
//   - an empty intersection between the validity range and w
//
// An error is returned only for malformed date/time fields, so the caller
// can drop the single offending block and keep its siblings.
func ExpandMeetingBlock(mb model.MeetingBlock, w Window, loc *time.Location) ([]Occurrence, error) {
	if !w.Valid() {
		return nil, errors.New("expand: window end is before window start")
	}

	startDate, err := model.ParseDate(mb.StartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("expand: bad start_date: %w", err)
	}
	endDate, err := model.ParseDate(mb.EndDate, loc)
	if err != nil {
		return nil, fmt.Errorf("expand: bad end_date: %w", err)
	}
	startHour, startMin, err := model.ParseClock(mb.StartLocal)
	if err != nil {
		return nil, fmt.Errorf("expand: bad start_local: %w", err)
	}
	endHour, endMin, err := model.ParseClock(mb.EndLocal)
	if err != nil {
		return nil, fmt.Errorf("expand: bad end_local: %w", err)
	}
	duration := time.Duration(endHour*60+endMin-startHour*60-startMin) * time.Minute
	if duration <= 0 {
		return nil, fmt.Errorf("expand: end_local %q is not after start_local %q", mb.EndLocal, mb.StartLocal)
	}

	// Defensive: an inverted validity range contributes nothing.
	if endDate.Before(startDate) {
		return nil, nil
	}

	byday := make([]rrule.Weekday, 0, len(mb.Days))
	for _, label := range mb.Days {
		wd, werr := model.ParseWeekday(label)
		if werr != nil {
			// Unknown labels contribute zero days, never an error.
			appLog.Debug("expand: skipping unrecognized weekday label", "label", label)
			continue
		}
		byday = append(byday, rruleWeekday(wd))
	}
	if len(byday) == 0 {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   model.At(startDate, startHour, startMin),
		Until:     model.At(endDate, startHour, startMin),
		Byweekday: byday,
	})
	if err != nil {
		return nil, fmt.Errorf("expand: building rule: %w", err)
	}

	// Between is inclusive on both ends; the window is half-open, so
	// occurrences landing exactly on w.End are filtered below.
	starts := r.Between(w.Start, w.End, true)

	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		if !s.Before(w.End) {
			continue
		}
		out = append(out, Occurrence{
			Day:   model.WeekdayLabel(s.Weekday()),
			Start: s,
			End:   s.Add(duration),
		})
	}
	return out, nil
}

// rruleWeekday maps time.Weekday onto the rrule weekday constants.
func rruleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Sunday:
		return rrule.SU
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	default:
		return rrule.SA
	}
}
