package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/progress"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// MarkCompleteHandler is the manual completion path. Quiz-bearing lessons
// are rejected here until an attempt exists; the quiz path completes the
// lesson inside the attempt transaction instead.
func MarkCompleteHandler(store course.Store, tracker *progress.Tracker) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		completed, err := tracker.MarkComplete(r.Context(), c, sub, chi.URLParam(r, "lessonID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, map[string]any{"completed_items": completed})
	}
}

func GetProgressHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		enr, err := store.GetEnrollment(r.Context(), c.ID, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		pct := progress.Compute(c, enr)
		writeJSON(w, map[string]any{
			"percentage": pct,
			"completed":  pct >= 100,
		})
	}
}
