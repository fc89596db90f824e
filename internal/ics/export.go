package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"termcal/internal/model"
)

const (
	// ProdID identifies this generator in exported documents.
	ProdID = "-//termcal//EN"
	// CalName is the display name calendar apps show for the export.
	CalName = "termcal"
	// Filename is the suggested attachment filename for exports.
	Filename = "termcal.ics"

	// Floating local timestamps; the non-goal of cross-zone conversion means
	// every value is written exactly as materialized.
	floatingLayout = "20060102T150405"
	stampLayout    = "20060102T150405Z"
)

// BuildCalendar serializes an already-materialized event sequence into a
// standalone VCALENDAR. It is a pure, order-preserving serialization: all
// filtering and expansion decisions were made at materialization time and are
// never re-derived here. now is only used for DTSTAMP.
func BuildCalendar(events []model.CalendarEvent, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProdID)
	cal.SetVersion("2.0")
	cal.SetXWRCalName(CalName)

	stamp := now.UTC().Format(stampLayout)

	for _, ev := range events {
		// The materializer's deterministic event id doubles as the UID, so
		// re-exporting identical inputs yields identical documents.
		ve := cal.AddEvent(ev.ID + "@termcal")
		ve.SetProperty(ical.ComponentPropertyDtstamp, stamp)
		ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start.Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End.Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertySummary, ev.Title)
		if ev.Location != "" {
			ve.SetProperty(ical.ComponentPropertyLocation, ev.Location)
		}
		ve.SetProperty(ical.ComponentPropertyDescription, "Kind: "+string(ev.Kind))

		addAlarm(ve, ev.Kind)
	}

	return cal
}

// Serialize renders the export document as bytes ready for an HTTP response.
func Serialize(events []model.CalendarEvent, now time.Time) []byte {
	return []byte(BuildCalendar(events, now).Serialize())
}

// addAlarm attaches a DISPLAY reminder with a lead time depending on the
// event kind: classes get a short heads-up, deadlines a longer one.
func addAlarm(ve *ical.VEvent, kind model.Kind) {
	trigger := "-PT30M"
	message := "Due soon"
	switch kind {
	case model.KindLecture:
		trigger = "-PT15M"
		message = "Class starting soon"
	case model.KindStudy:
		trigger = "-PT10M"
		message = "Study session starting"
	}

	alarm := ve.AddAlarm()
	alarm.SetProperty(ical.ComponentProperty(ical.PropertyAction), string(ical.ActionDisplay))
	alarm.SetProperty(ical.ComponentProperty(ical.PropertyTrigger), trigger)
	alarm.SetProperty(ical.ComponentProperty(ical.PropertyDescription), message)
}
