package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	appLog "termcal/internal/log"
	"termcal/internal/model"
)

// assessmentDuration is the fixed display length of an instantaneous
// assessment event.
const assessmentDuration = time.Hour

// Materializer expands source collections into concrete, filtered,
// deterministically ordered calendar events. It holds no mutable state
// between calls; every call re-reads its inputs as an immutable snapshot.
type Materializer struct {
	// Location is the display timezone all naive local timestamps are
	// interpreted in. Nil means time.Local.
	Location *time.Location

	// Palette is the ordered color list cycled over courses lacking an
	// explicit color. Must be non-empty.
	Palette []string
}

// NewMaterializer builds a Materializer with the given display location and
// palette. An empty palette falls back to a single neutral color so color
// resolution stays total.
func NewMaterializer(loc *time.Location, palette []string) *Materializer {
	if loc == nil {
		loc = time.Local
	}
	if len(palette) == 0 {
		palette = []string{"#2563EB"}
	}
	return &Materializer{Location: loc, Palette: palette}
}

// Materialize produces the ordered event set for one observation window.
//
// Per-record data problems (unparseable date-times, a study task referencing
// an unknown course) drop the single offending record and keep its siblings.
// Only a violated boundary precondition, the window itself being inverted,
// aborts the call.
func (m *Materializer) Materialize(courses []model.Course, tasks []model.StudyTask, filters model.Filters, w Window) ([]model.CalendarEvent, error) {
	if !w.Valid() {
		return nil, errors.New("materialize: window end is before window start")
	}

	view := NewFilterView(filters, courses)

	// Color resolution is a pure function of course position and the
	// explicit color field, independent of any filter state.
	colorByID := make(map[string]string, len(courses))
	for i, c := range courses {
		colorByID[c.ID] = m.resolveColor(c, i)
	}

	events := make([]model.CalendarEvent, 0)

	// Lectures.
	for _, c := range courses {
		if c.ID == "" || c.Name == "" {
			appLog.Debug("materialize: skipping course without id or name")
			continue
		}
		if !view.Includes(model.KindLecture, c.ID) {
			continue
		}
		for _, mb := range c.MeetingBlocks {
			occs, err := ExpandMeetingBlock(mb, w, m.Location)
			if err != nil {
				appLog.Error("materialize: dropping malformed meeting block", err, "course", c.ID)
				continue
			}
			for _, occ := range occs {
				events = append(events, model.CalendarEvent{
					ID:       lectureID(c.ID, occ),
					Title:    c.Name + " Lecture",
					Start:    occ.Start,
					End:      occ.End,
					Color:    colorByID[c.ID],
					Location: mb.Location,
					Kind:     model.KindLecture,
				})
			}
		}
	}

	// Assessments.
	for _, c := range courses {
		if c.ID == "" || c.Name == "" {
			continue
		}
		for _, a := range c.Assessments {
			kind := model.KindAssignment
			if a.Category == "exam" {
				kind = model.KindExam
			}
			if !view.Includes(kind, c.ID) {
				continue
			}
			due, err := model.ParseDateTime(a.DueLocal, m.Location)
			if err != nil {
				appLog.Error("materialize: dropping assessment with bad due date-time", err,
					"course", c.ID, "title", a.Title)
				continue
			}
			if !w.Contains(due) {
				continue
			}
			events = append(events, model.CalendarEvent{
				ID:       assessmentID(c.ID, a.Title, due),
				Title:    a.Title + " — " + c.Name,
				Start:    due,
				End:      due.Add(assessmentDuration),
				Color:    colorByID[c.ID],
				Location: a.Location,
				Kind:     kind,
			})
		}
	}

	// Study tasks.
	for _, t := range tasks {
		if !view.Includes(model.KindStudy, t.CourseID) {
			continue
		}
		color, ok := colorByID[t.CourseID]
		if !ok {
			appLog.Error("materialize: dropping study task with unknown course",
				fmt.Errorf("no course %q", t.CourseID), "title", t.Title)
			continue
		}
		start, err := model.ParseDateTime(t.StartLocal, m.Location)
		if err != nil {
			appLog.Error("materialize: dropping study task with bad start", err, "title", t.Title)
			continue
		}
		end, err := model.ParseDateTime(t.EndLocal, m.Location)
		if err != nil || !end.After(start) {
			appLog.Error("materialize: dropping study task with bad end", err, "title", t.Title)
			continue
		}
		if !w.Contains(start) {
			continue
		}
		events = append(events, model.CalendarEvent{
			ID:    studyID(t.CourseID, t.Title, start),
			Title: "Study — " + t.Title,
			Start: start,
			End:   end,
			Color: color,
			Kind:  model.KindStudy,
		})
	}

	// Ascending by start; ties keep emission order (lectures, assessments,
	// study tasks, each in input order) so identical inputs reproduce the
	// exact same sequence.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	return events, nil
}

func (m *Materializer) resolveColor(c model.Course, position int) string {
	if c.Color != "" {
		return c.Color
	}
	return m.Palette[position%len(m.Palette)]
}

// Event ids are deterministic functions of the source entity plus an
// occurrence key. Lecture ids carry the occurrence date so they stay unique
// across a full-term window, not only a single preview week.
func lectureID(courseID string, occ Occurrence) string {
	return fmt.Sprintf("lec-%s-%s-%s", courseID, occ.Day, occ.Start.Format(model.LayoutDate))
}

func assessmentID(courseID, title string, due time.Time) string {
	return fmt.Sprintf("ass-%s-%s-%s", courseID, title, due.Format(model.LayoutDateTime))
}

func studyID(courseID, title string, start time.Time) string {
	return fmt.Sprintf("study-%s-%s-%s", courseID, title, start.Format(model.LayoutDateTime))
}

// TermWindow derives the smallest window covering every dated record in the
// payload: from midnight of the earliest date through the day after the
// latest. Returns ok=false when the payload holds no parseable dates.
func TermWindow(courses []model.Course, tasks []model.StudyTask, loc *time.Location) (Window, bool) {
	if loc == nil {
		loc = time.Local
	}

	var lo, hi time.Time
	note := func(t time.Time) {
		if lo.IsZero() || t.Before(lo) {
			lo = t
		}
		if hi.IsZero() || t.After(hi) {
			hi = t
		}
	}

	for _, c := range courses {
		for _, mb := range c.MeetingBlocks {
			if t, err := model.ParseDate(mb.StartDate, loc); err == nil {
				note(t)
			}
			if t, err := model.ParseDate(mb.EndDate, loc); err == nil {
				note(t)
			}
		}
		for _, a := range c.Assessments {
			if t, err := model.ParseDateTime(a.DueLocal, loc); err == nil {
				note(t)
			}
		}
	}
	for _, t := range tasks {
		if ts, err := model.ParseDateTime(t.StartLocal, loc); err == nil {
			note(ts)
		}
		if te, err := model.ParseDateTime(t.EndLocal, loc); err == nil {
			note(te)
		}
	}

	if lo.IsZero() {
		return Window{}, false
	}

	start := time.Date(lo.Year(), lo.Month(), lo.Day(), 0, 0, 0, 0, loc)
	end := time.Date(hi.Year(), hi.Month(), hi.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return Window{Start: start, End: end}, true
}
