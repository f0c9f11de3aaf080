package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/learnhall/learnhall-lms/internal/apperr"
	"github.com/learnhall/learnhall-lms/internal/course"
)

func twoLessonCourse() course.Course {
	return course.Course{
		ID:    "c1",
		Title: "Intro to Go",
		Modules: []course.Module{
			{
				ID:    "m1",
				Title: "Basics",
				Lessons: []course.Lesson{
					{ID: "lessonA", Title: "Values"},
					{
						ID:    "lessonB",
						Title: "Maps",
						Quiz: &course.Quiz{
							ID:    "quizB",
							Title: "Maps Quiz",
							Questions: []course.Question{
								{ID: "q1", Kind: course.KindTrueFalse, CorrectBool: true},
							},
						},
					},
				},
			},
		},
	}
}

func seedEnrollment(t *testing.T, st course.Store, c course.Course, studentID string, status course.EnrollStatus) {
	t.Helper()
	if err := st.PutCourse(context.Background(), c); err != nil {
		t.Fatalf("put course: %v", err)
	}
	err := st.CreateEnrollment(context.Background(), course.Enrollment{
		CourseID:  c.ID,
		StudentID: studentID,
		Status:    status,
	}, nil)
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
}

func TestCompute_Half(t *testing.T) {
	c := twoLessonCourse()
	e := course.Enrollment{CourseID: c.ID, StudentID: "s1", Status: course.EnrollEnrolled, CompletedItems: []string{"lessonA"}}
	if got := Compute(c, e); got != 50.00 {
		t.Fatalf("want 50.00, got %v", got)
	}
}

func TestCompute_NoLessonsIsZero(t *testing.T) {
	c := course.Course{ID: "empty"}
	e := course.Enrollment{CompletedItems: []string{"ghost"}}
	if got := Compute(c, e); got != 0 {
		t.Fatalf("want 0 for empty course, got %v", got)
	}
}

func TestCompute_StaleIdentitiesIgnored(t *testing.T) {
	c := twoLessonCourse()
	e := course.Enrollment{CompletedItems: []string{"lessonA", "deleted-lesson", "lessonB", "another-ghost"}}
	if got := Compute(c, e); got != 100.00 {
		t.Fatalf("want 100.00 with stale ids ignored, got %v", got)
	}
}

func TestCompute_Monotonic(t *testing.T) {
	c := twoLessonCourse()
	e := course.Enrollment{}
	prev := Compute(c, e)
	for _, id := range []string{"lessonA", "lessonB"} {
		e.CompletedItems = append(e.CompletedItems, id)
		got := Compute(c, e)
		if got < prev {
			t.Fatalf("progress decreased: %v -> %v", prev, got)
		}
		if got > 100 {
			t.Fatalf("progress above 100: %v", got)
		}
		prev = got
	}
	if prev != 100.00 {
		t.Fatalf("want 100.00 after all lessons, got %v", prev)
	}
	if !IsComplete(c, e) {
		t.Fatalf("expected course completed")
	}
}

func TestMarkComplete_Idempotent(t *testing.T) {
	st := course.NewMemoryStore()
	c := twoLessonCourse()
	seedEnrollment(t, st, c, "s1", course.EnrollEnrolled)
	tr := NewTracker(st)

	first, err := tr.MarkComplete(context.Background(), c, "s1", "lessonA")
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	second, err := tr.MarkComplete(context.Background(), c, "s1", "lessonA")
	if err != nil {
		t.Fatalf("second mark must still succeed: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("want singleton set twice, got %v then %v", first, second)
	}
}

// interleavedStore runs fire after the first enrollment read, standing in
// for another request committing between the tracker's read and its write.
type interleavedStore struct {
	course.Store
	fired bool
	fire  func()
}

func (s *interleavedStore) GetEnrollment(ctx context.Context, courseID, studentID string) (course.Enrollment, error) {
	e, err := s.Store.GetEnrollment(ctx, courseID, studentID)
	if !s.fired {
		s.fired = true
		s.fire()
	}
	return e, err
}

func TestMarkComplete_ConcurrentAttemptNotLost(t *testing.T) {
	st := course.NewMemoryStore()
	c := twoLessonCourse()
	seedEnrollment(t, st, c, "s1", course.EnrollEnrolled)

	is := &interleavedStore{Store: st}
	is.fire = func() {
		err := st.CreateAttempt(context.Background(), course.Attempt{
			ID: "a1", CourseID: c.ID, LessonID: "lessonB", QuizID: "quizB",
			StudentID: "s1", Score: 1, TotalQuestions: 1,
		})
		if err != nil {
			t.Fatalf("interleaved attempt: %v", err)
		}
	}
	tr := NewTracker(is)

	got, err := tr.MarkComplete(context.Background(), c, "s1", "lessonA")
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	want := map[string]bool{"lessonA": false, "lessonB": false}
	for _, id := range got {
		if _, ok := want[id]; ok {
			want[id] = true
		}
	}
	for id, seen := range want {
		if !seen {
			t.Fatalf("completed set lost %s: %v", id, got)
		}
	}

	enr, err := st.GetEnrollment(context.Background(), c.ID, "s1")
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if !enr.Completed("lessonA") || !enr.Completed("lessonB") {
		t.Fatalf("stored set shrank: %v", enr.CompletedItems)
	}
}

func TestMarkComplete_QuizGuard(t *testing.T) {
	st := course.NewMemoryStore()
	c := twoLessonCourse()
	seedEnrollment(t, st, c, "s1", course.EnrollEnrolled)
	tr := NewTracker(st)

	_, err := tr.MarkComplete(context.Background(), c, "s1", "lessonB")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("want validation error before any attempt exists, got %v", err)
	}

	err = st.CreateAttempt(context.Background(), course.Attempt{
		ID: "a1", CourseID: c.ID, LessonID: "lessonB", QuizID: "quizB",
		StudentID: "s1", Score: 1, TotalQuestions: 1,
	})
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if _, err := tr.MarkComplete(context.Background(), c, "s1", "lessonB"); err != nil {
		t.Fatalf("mark after attempt must succeed: %v", err)
	}
}

func TestMarkComplete_NotEnrolled(t *testing.T) {
	st := course.NewMemoryStore()
	c := twoLessonCourse()
	seedEnrollment(t, st, c, "s1", course.EnrollPending)
	tr := NewTracker(st)

	if _, err := tr.MarkComplete(context.Background(), c, "s1", "lessonA"); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("want permission denied for pending enrollment, got %v", err)
	}
	enr, err := st.GetEnrollment(context.Background(), c.ID, "s1")
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if len(enr.CompletedItems) != 0 {
		t.Fatalf("completed set mutated on denied request: %v", enr.CompletedItems)
	}
}

func TestMarkComplete_UnknownLesson(t *testing.T) {
	st := course.NewMemoryStore()
	c := twoLessonCourse()
	seedEnrollment(t, st, c, "s1", course.EnrollEnrolled)
	tr := NewTracker(st)

	if _, err := tr.MarkComplete(context.Background(), c, "s1", "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
