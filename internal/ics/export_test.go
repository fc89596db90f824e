package ics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/require"

	"termcal/internal/model"
)

func exportEvents() []model.CalendarEvent {
	return []model.CalendarEvent{
		{
			ID:       "lec-c1-Mon-2025-03-03",
			Title:    "Algorithms Lecture",
			Start:    time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC),
			End:      time.Date(2025, 3, 3, 11, 15, 0, 0, time.UTC),
			Color:    "#2563EB",
			Location: "Hall B",
			Kind:     model.KindLecture,
		},
		{
			ID:    "ass-c1-Midterm-2025-03-05T09:00",
			Title: "Midterm — Algorithms",
			Start: time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC),
			Color: "#2563EB",
			Kind:  model.KindExam,
		},
		{
			ID:    "study-c1-Review graphs-2025-03-06T19:00",
			Title: "Study — Review graphs",
			Start: time.Date(2025, 3, 6, 19, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 3, 6, 21, 0, 0, 0, time.UTC),
			Color: "#2563EB",
			Kind:  model.KindStudy,
		},
	}
}

func TestSerializeRoundTrips(t *testing.T) {
	doc := Serialize(exportEvents(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	require.True(t, bytes.HasPrefix(doc, []byte("BEGIN:VCALENDAR")))
	require.Contains(t, string(doc), "END:VCALENDAR")

	cal, err := ical.ParseCalendar(bytes.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 3)
}

func TestSerializeComponentFields(t *testing.T) {
	doc := Serialize(exportEvents(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	cal, err := ical.ParseCalendar(bytes.NewReader(doc))
	require.NoError(t, err)

	events := cal.Events()
	byUID := map[string]*ical.VEvent{}
	for _, ve := range events {
		uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
		require.NotNil(t, uid)
		require.True(t, strings.HasSuffix(uid.Value, "@termcal"))
		require.NotContains(t, byUID, uid.Value, "duplicate UID")
		byUID[uid.Value] = ve
	}

	lec := byUID["lec-c1-Mon-2025-03-03@termcal"]
	require.NotNil(t, lec)
	require.Equal(t, "Algorithms Lecture", lec.GetProperty(ical.ComponentPropertySummary).Value)
	require.Equal(t, "20250303T100000", lec.GetProperty(ical.ComponentPropertyDtStart).Value)
	require.Equal(t, "20250303T111500", lec.GetProperty(ical.ComponentPropertyDtEnd).Value)
	require.Equal(t, "Hall B", lec.GetProperty(ical.ComponentPropertyLocation).Value)

	// Location is omitted when the event carries none.
	exam := byUID["ass-c1-Midterm-2025-03-05T09:00@termcal"]
	require.NotNil(t, exam)
	require.Nil(t, exam.GetProperty(ical.ComponentPropertyLocation))
}

func TestSerializeIsOrderPreserving(t *testing.T) {
	events := exportEvents()
	doc := string(Serialize(events, time.Now()))

	last := -1
	for _, ev := range events {
		idx := strings.Index(doc, ev.ID+"@termcal")
		require.Greater(t, idx, last, "component order must follow input order")
		last = idx
	}
}

func TestSerializeDeterministicAcrossCalls(t *testing.T) {
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	first := Serialize(exportEvents(), stamp)
	second := Serialize(exportEvents(), stamp)
	require.Equal(t, first, second)
}

func TestSerializeAlarms(t *testing.T) {
	doc := string(Serialize(exportEvents(), time.Now()))
	require.Contains(t, doc, "BEGIN:VALARM")
	require.Contains(t, doc, "TRIGGER:-PT15M")
	require.Contains(t, doc, "TRIGGER:-PT30M")
	require.Contains(t, doc, "TRIGGER:-PT10M")
}

func TestSerializeEmptySetIsStillValid(t *testing.T) {
	doc := Serialize(nil, time.Now())
	cal, err := ical.ParseCalendar(bytes.NewReader(doc))
	require.NoError(t, err)
	require.Empty(t, cal.Events())
}
