package http

import (
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhall/learnhall-lms/internal/analytics"
	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// AnalyticsHandler serves the instructor rollup: per-activity averages,
// trend series, engagement shares and the course summary.
func AnalyticsHandler(store course.Store, engine *analytics.Engine) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		rollup, err := engine.BuildRollup(r.Context(), c, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, rollup)
	}
}
