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
	"github.com/learnhall/learnhall-lms/internal/grading"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// SubmitQuizHandler grades a submission and writes the attempt. The
// attempt insert and the lesson joining the completed set commit as one
// unit inside the store; a repeat submission is a conflict.
func SubmitQuizHandler(store course.Store, grader *grading.Grader) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		quizID := chi.URLParam(r, "quizID")

		c, err := store.GetCourse(r.Context(), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		quiz, lesson, ok := c.FindQuiz(quizID)
		if !ok {
			writeErr(w, fmt.Errorf("quiz %s: %w", quizID, apperr.ErrNotFound))
			return
		}

		enr, err := store.GetEnrollment(r.Context(), courseID, sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		if enr.Status != course.EnrollEnrolled {
			writeErr(w, fmt.Errorf("enrollment status %s: %w", enr.Status, apperr.ErrPermissionDenied))
			return
		}

		var req struct {
			Answers map[string]course.Answer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
			return
		}

		score, err := grader.GradeSubmission(quiz, req.Answers)
		if err != nil {
			writeErr(w, err)
			return
		}

		a := course.Attempt{
			ID:             uuid.NewString(),
			CourseID:       courseID,
			LessonID:       lesson.ID,
			QuizID:         quiz.ID,
			StudentID:      sub,
			Score:          score,
			TotalQuestions: len(quiz.Questions),
			Answers:        req.Answers,
			SubmittedAt:    time.Now().Unix(),
		}
		if err := store.CreateAttempt(r.Context(), a); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, a)
	}
}

// GetAttemptHandler returns the caller's attempt for one quiz.
func GetAttemptHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "quizID"), sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, a)
	}
}
