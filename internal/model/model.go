package model

import "time"

// Course is one academic course as delivered by the parsing service.
// Courses are treated as an immutable snapshot for the duration of one
// materialization pass.
type Course struct {
	// ID is a stable, unique identifier (e.g. "CS-2201").
	ID string `json:"id"`
	// Name is the human-friendly course title.
	Name string `json:"name"`
	// Color is an optional explicit display color ("#RRGGBB"). When empty,
	// a palette color is assigned by course position during materialization.
	Color string `json:"color,omitempty"`

	MeetingBlocks []MeetingBlock `json:"meeting_blocks"`
	Assessments   []Assessment   `json:"assessments"`
}

// MeetingBlock is a weekly recurrence pattern bounded by a term date range.
type MeetingBlock struct {
	// Days holds weekday labels ("Sun".."Sat"). Unrecognized labels are
	// skipped during expansion rather than treated as an error.
	Days []string `json:"days"`

	// StartLocal / EndLocal are local times of day in "15:04" form.
	// EndLocal must be strictly after StartLocal within the same day.
	StartLocal string `json:"start_local"`
	EndLocal   string `json:"end_local"`

	// StartDate / EndDate bound the recurrence, inclusive, in "2006-01-02" form.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Location string `json:"location,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Assessment is a single-instant event (assignment, exam, ...). No recurrence.
type Assessment struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	// DueLocal is a local date-time in "2006-01-02T15:04" form.
	DueLocal string `json:"due_datetime_local"`
	// Category is one of "assignment", "exam", "project", "quiz", "milestone".
	Category string `json:"category"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// StudyTask is a single explicit study interval produced by an external
// planning collaborator. It is opaque input data here.
type StudyTask struct {
	ID       string `json:"id,omitempty"`
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	// StartLocal / EndLocal are local date-times in "2006-01-02T15:04" form.
	StartLocal string `json:"start_local"`
	EndLocal   string `json:"end_local"`

	RelatedAssessment string `json:"related_assessment,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// TermPayload is the collaborator payload shape: all courses and study tasks
// for one academic term.
type TermPayload struct {
	Courses    []Course    `json:"courses"`
	StudyTasks []StudyTask `json:"study_tasks"`
}

// StudyMode selects which study tasks are included.
type StudyMode string

const (
	StudyNone     StudyMode = "none"
	StudyAll      StudyMode = "all"
	StudySelected StudyMode = "selectedCourses"
)

// Filters is the user-selected inclusion configuration. It is read-only
// during one materialization pass.
type Filters struct {
	IncludeLectures            bool      `json:"includeLectures"`
	IncludeAssignmentsAndExams bool      `json:"includeAssignmentsAndExams"`
	IncludeStudySessions       StudyMode `json:"includeStudySessions"`

	// StudyCourses is meaningful only when IncludeStudySessions is
	// StudySelected.
	StudyCourses []string `json:"studyCourses"`

	// CourseInclusion maps course id to included. A course with no entry is
	// included.
	CourseInclusion map[string]bool `json:"courseInclusion"`
}

// DefaultFilters returns the configuration used when a caller supplies none:
// everything on.
func DefaultFilters() Filters {
	return Filters{
		IncludeLectures:            true,
		IncludeAssignmentsAndExams: true,
		IncludeStudySessions:       StudyAll,
		StudyCourses:               []string{},
		CourseInclusion:            map[string]bool{},
	}
}

// CourseIncluded reports whether the per-course toggle admits the given
// course id. Absence of an entry defaults to included.
func (f Filters) CourseIncluded(id string) bool {
	v, ok := f.CourseInclusion[id]
	return !ok || v
}

// Kind tags a materialized event by its source.
type Kind string

const (
	KindLecture    Kind = "lecture"
	KindAssignment Kind = "assignment"
	KindExam       Kind = "exam"
	KindStudy      Kind = "study"
)

// CalendarEvent is one concrete, dated output event. Its ID is a
// deterministic function of the source entity and occurrence key, so
// repeated materialization over identical inputs yields identical ids.
// Events are never mutated after creation.
type CalendarEvent struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Color string    `json:"color"`

	Location string `json:"location,omitempty"`
	Kind     Kind   `json:"kind"`
}
