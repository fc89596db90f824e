package schedule

import (
	"termcal/internal/model"
)

// FilterView is a resolved, read-only view of one Filters value for a single
// materialization pass. The effective allowed study-course set is computed
// once up front so per-candidate evaluation stays a pure lookup.
type FilterView struct {
	filters      model.Filters
	studyAllowed map[string]bool
}

// NewFilterView resolves filters against the course set of the current pass.
func NewFilterView(filters model.Filters, courses []model.Course) FilterView {
	allowed := make(map[string]bool)

	switch filters.IncludeStudySessions {
	case model.StudyNone:
		// Nothing allowed.
	case model.StudySelected:
		for _, id := range filters.StudyCourses {
			allowed[id] = true
		}
	default:
		// StudyAll: every course whose per-course toggle admits it.
		for _, c := range courses {
			if filters.CourseIncluded(c.ID) {
				allowed[c.ID] = true
			}
		}
	}

	return FilterView{filters: filters, studyAllowed: allowed}
}

// Includes decides whether a candidate of the given kind and source course is
// part of the materialized output. Pure; never mutates the configuration.
func (v FilterView) Includes(kind model.Kind, courseID string) bool {
	switch kind {
	case model.KindLecture:
		return v.filters.IncludeLectures && v.filters.CourseIncluded(courseID)
	case model.KindAssignment, model.KindExam:
		return v.filters.IncludeAssignmentsAndExams && v.filters.CourseIncluded(courseID)
	case model.KindStudy:
		return v.filters.IncludeStudySessions != model.StudyNone && v.studyAllowed[courseID]
	default:
		return false
	}
}
