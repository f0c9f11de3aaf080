package http

import (
	"encoding/json"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnhall/learnhall-lms/internal/apperr"
	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// EnrollHandler creates a pending enrollment for the calling student and
// fans a notification out to every instructor. The store commits both or
// neither.
func EnrollHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		now := time.Now().Unix()
		e := course.Enrollment{
			CourseID:       c.ID,
			StudentID:      sub,
			Status:         course.EnrollPending,
			CompletedItems: []string{},
			CreatedAt:      now,
		}
		notes := make([]course.Notification, 0, len(c.Instructors))
		for _, instructor := range c.Instructors {
			notes = append(notes, course.Notification{
				ID:        uuid.NewString(),
				UserID:    instructor,
				CourseID:  c.ID,
				Type:      "enroll_request",
				Message:   fmt.Sprintf("%s requested to join %s", sub, c.Title),
				CreatedAt: now,
			})
		}
		if err := store.CreateEnrollment(r.Context(), e, notes); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, e)
	}
}

// SetEnrollmentStatusHandler lets an instructor accept or reject a
// pending enrollment.
func SetEnrollmentStatusHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		studentID := chi.URLParam(r, "studentID")

		c, err := store.GetCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if !c.HasInstructor(sub) {
			writeErr(w, fmt.Errorf("not an instructor of %s: %w", courseID, apperr.ErrPermissionDenied))
			return
		}

		var req struct {
			Status course.EnrollStatus `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
			return
		}
		if req.Status != course.EnrollEnrolled && req.Status != course.EnrollRejected {
			writeErr(w, fmt.Errorf("status must be enrolled or rejected: %w", apperr.ErrValidation))
			return
		}
		if err := store.SetEnrollmentStatus(r.Context(), courseID, studentID, req.Status); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}

// ListEnrollmentsHandler returns a course's enrollment list to its
// instructors.
func ListEnrollmentsHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if !c.HasInstructor(sub) {
			writeErr(w, fmt.Errorf("not an instructor of %s: %w", c.ID, apperr.ErrPermissionDenied))
			return
		}
		list, err := store.ListEnrollments(r.Context(), c.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, list)
	}
}
