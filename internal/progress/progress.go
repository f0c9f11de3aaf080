// Package progress maintains per-student completion state and derives
// course completion percentages. Percentages are recomputed on demand and
// never persisted as a second source of truth.
package progress

import (
	"context"
	"fmt"
	"math"

	"github.com/learnhall/learnhall-lms/internal/apperr"
	"github.com/learnhall/learnhall-lms/internal/course"
)

// Tracker guards the manual completion path. It validates the request and
// then delegates the append itself to the store, which performs it under
// its own lock or transaction. The quiz path appends inside the attempt
// transaction, so neither writer can overwrite the other.
type Tracker struct {
	store course.Store
}

func NewTracker(store course.Store) *Tracker { return &Tracker{store: store} }

// MarkComplete adds lessonID to the student's completed set. Marking an
// already-completed lesson is a no-op that still succeeds. A lesson that
// carries a quiz cannot be completed on this path until an attempt for
// that quiz exists.
func (t *Tracker) MarkComplete(ctx context.Context, c course.Course, studentID, lessonID string) ([]string, error) {
	enr, err := t.store.GetEnrollment(ctx, c.ID, studentID)
	if err != nil {
		return nil, err
	}
	if enr.Status != course.EnrollEnrolled {
		return nil, fmt.Errorf("enrollment status %s: %w", enr.Status, apperr.ErrPermissionDenied)
	}

	var lesson *course.Lesson
	for _, m := range c.Modules {
		for i := range m.Lessons {
			if m.Lessons[i].ID == lessonID {
				lesson = &m.Lessons[i]
			}
		}
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, apperr.ErrNotFound)
	}

	if enr.Completed(lessonID) {
		return enr.CompletedItems, nil
	}

	if lesson.Quiz != nil {
		if _, err := t.store.GetAttempt(ctx, lesson.Quiz.ID, studentID); err != nil {
			return nil, fmt.Errorf("quiz %s not attempted: %w", lesson.Quiz.ID, apperr.ErrValidation)
		}
	}

	if err := t.store.AddCompletedItem(ctx, c.ID, studentID, lessonID); err != nil {
		return nil, err
	}
	enr, err = t.store.GetEnrollment(ctx, c.ID, studentID)
	if err != nil {
		return nil, err
	}
	return enr.CompletedItems, nil
}

// Compute derives the completion percentage for one enrollment, in
// [0,100] rounded to two decimals. Stale lesson identities left behind by
// deleted lessons are ignored rather than inflating the result. A course
// with no lessons is 0, not NaN.
func Compute(c course.Course, e course.Enrollment) float64 {
	lessonIDs := c.LessonIDSet()
	total := len(lessonIDs)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, id := range e.CompletedItems {
		if _, ok := lessonIDs[id]; ok {
			completed++
		}
	}
	return round2(float64(completed) / float64(total) * 100)
}

// IsComplete reports whether the student has finished the whole course.
func IsComplete(c course.Course, e course.Enrollment) bool {
	return Compute(c, e) >= 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
