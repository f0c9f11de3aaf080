package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/grades"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// GradeSummaryHandler reports the calling student's graded and ungraded
// quizzes, overall percentage and letter grade for one course.
func GradeSummaryHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		attempts, err := store.ListStudentAttempts(r.Context(), c.ID, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, grades.BuildSummary(c, attempts))
	}
}
