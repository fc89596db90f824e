package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"termcal/internal/model"
)

func filterCourses() []model.Course {
	return []model.Course{
		{ID: "c1", Name: "Algorithms"},
		{ID: "c2", Name: "Databases"},
		{ID: "c3", Name: "Networks"},
	}
}

func TestFilterLectures(t *testing.T) {
	f := model.DefaultFilters()
	v := NewFilterView(f, filterCourses())
	require.True(t, v.Includes(model.KindLecture, "c1"))

	f.IncludeLectures = false
	v = NewFilterView(f, filterCourses())
	require.False(t, v.Includes(model.KindLecture, "c1"))
	// Other kinds are unaffected.
	require.True(t, v.Includes(model.KindAssignment, "c1"))
	require.True(t, v.Includes(model.KindStudy, "c1"))
}

func TestFilterAssessments(t *testing.T) {
	f := model.DefaultFilters()
	f.IncludeAssignmentsAndExams = false
	v := NewFilterView(f, filterCourses())
	require.False(t, v.Includes(model.KindAssignment, "c1"))
	require.False(t, v.Includes(model.KindExam, "c1"))
	require.True(t, v.Includes(model.KindLecture, "c1"))
}

func TestFilterCourseInclusionDefaultsToIncluded(t *testing.T) {
	f := model.DefaultFilters()
	f.CourseInclusion = map[string]bool{"c2": false}
	v := NewFilterView(f, filterCourses())

	// Absent entry: included.
	require.True(t, v.Includes(model.KindLecture, "c1"))
	require.True(t, v.Includes(model.KindExam, "c1"))

	// Explicit false: excluded across every per-course kind.
	require.False(t, v.Includes(model.KindLecture, "c2"))
	require.False(t, v.Includes(model.KindAssignment, "c2"))
	require.False(t, v.Includes(model.KindStudy, "c2"))
}

func TestFilterStudyModes(t *testing.T) {
	f := model.DefaultFilters()

	f.IncludeStudySessions = model.StudyNone
	v := NewFilterView(f, filterCourses())
	require.False(t, v.Includes(model.KindStudy, "c1"))

	// StudyAll: allowed set is every course whose toggle admits it.
	f.IncludeStudySessions = model.StudyAll
	f.CourseInclusion = map[string]bool{"c3": false}
	v = NewFilterView(f, filterCourses())
	require.True(t, v.Includes(model.KindStudy, "c1"))
	require.False(t, v.Includes(model.KindStudy, "c3"))

	// StudySelected: the studyCourses list is taken verbatim, independent of
	// the per-course toggles.
	f.IncludeStudySessions = model.StudySelected
	f.StudyCourses = []string{"c3"}
	v = NewFilterView(f, filterCourses())
	require.False(t, v.Includes(model.KindStudy, "c1"))
	require.True(t, v.Includes(model.KindStudy, "c3"))
}

func TestFilterUnknownKindExcluded(t *testing.T) {
	v := NewFilterView(model.DefaultFilters(), filterCourses())
	require.False(t, v.Includes(model.Kind("banquet"), "c1"))
}
