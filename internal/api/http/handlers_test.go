package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhall/learnhall-lms/internal/analytics"
	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/grading"
	"github.com/learnhall/learnhall-lms/internal/progress"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// identityFromHeaders stands in for the JWT middleware in tests.
func identityFromHeaders(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx := rbac.WithSubject(r.Context(), r.Header.Get("X-Test-Sub"))
		ctx = rbac.WithRole(ctx, r.Header.Get("X-Test-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func testRouter(store course.Store) *chi.Mux {
	grader := grading.NewGrader()
	tracker := progress.NewTracker(store)
	engine := analytics.NewEngine(store)

	r := chi.NewRouter()
	r.Use(identityFromHeaders)
	r.Post("/courses/{courseID}/quizzes/{quizID}/submit", SubmitQuizHandler(store, grader))
	r.Post("/courses/{courseID}/lessons/{lessonID}/complete", MarkCompleteHandler(store, tracker))
	r.Get("/courses/{courseID}/progress", GetProgressHandler(store))
	r.Get("/courses/{courseID}/analytics", AnalyticsHandler(store, engine))
	r.Get("/courses/{courseID}", GetCourseHandler(store))
	return r
}

func seedCourse(t *testing.T, store course.Store) course.Course {
	t.Helper()
	c := course.Course{
		ID:          "c1",
		Title:       "Operating Systems",
		Instructors: []string{"teach-1"},
		Modules: []course.Module{
			{ID: "m1", Title: "Week 1", Lessons: []course.Lesson{
				{ID: "l1", Title: "Processes"},
				{ID: "l2", Title: "Scheduling", Quiz: &course.Quiz{
					ID:    "qz1",
					Title: "Scheduling Quiz",
					Questions: []course.Question{
						{ID: "q1", Kind: course.KindMultipleChoice, Options: []string{"FIFO", "RR", "SJF"}, CorrectOption: 1},
						{ID: "q2", Kind: course.KindTrueFalse, CorrectBool: false},
					},
				}},
			}},
		},
	}
	if err := store.PutCourse(context.Background(), c); err != nil {
		t.Fatalf("put course: %v", err)
	}
	err := store.CreateEnrollment(context.Background(), course.Enrollment{
		CourseID: "c1", StudentID: "stu-1", Status: course.EnrollEnrolled,
	}, nil)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return c
}

func doReq(t *testing.T, r nethttp.Handler, method, path, sub, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-Sub", sub)
	req.Header.Set("X-Test-Role", role)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitQuizFlow(t *testing.T) {
	store := course.NewMemoryStore()
	seedCourse(t, store)
	r := testRouter(store)

	body := `{"answers":{"q1":{"kind":"multiple_choice","option":1},"q2":{"kind":"true_false","bool":true}}}`
	w := doReq(t, r, "POST", "/courses/c1/quizzes/qz1/submit", "stu-1", "student", body)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("submit: want 200, got %d: %s", w.Code, w.Body.String())
	}
	var a course.Attempt
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}
	if a.Score != 1 || a.TotalQuestions != 2 {
		t.Fatalf("want 1/2, got %d/%d", a.Score, a.TotalQuestions)
	}

	// Quiz submission also completed the owning lesson: 1 of 2 lessons.
	w = doReq(t, r, "GET", "/courses/c1/progress", "stu-1", "student", "")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("progress: want 200, got %d", w.Code)
	}
	var p struct {
		Percentage float64 `json:"percentage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if p.Percentage != 50.00 {
		t.Fatalf("want 50.00, got %v", p.Percentage)
	}

	// Second submission conflicts and leaves the attempt alone.
	w = doReq(t, r, "POST", "/courses/c1/quizzes/qz1/submit", "stu-1", "student", body)
	if w.Code != nethttp.StatusConflict {
		t.Fatalf("resubmit: want 409, got %d", w.Code)
	}
}

func TestSubmitQuiz_IncompleteRejected(t *testing.T) {
	store := course.NewMemoryStore()
	seedCourse(t, store)
	r := testRouter(store)

	body := `{"answers":{"q1":{"kind":"multiple_choice","option":1}}}`
	w := doReq(t, r, "POST", "/courses/c1/quizzes/qz1/submit", "stu-1", "student", body)
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("want 400 for incomplete submission, got %d", w.Code)
	}
	if _, err := store.GetAttempt(context.Background(), "qz1", "stu-1"); err == nil {
		t.Fatalf("no attempt may exist after a rejected submission")
	}
}

func TestMarkComplete_QuizLessonGuarded(t *testing.T) {
	store := course.NewMemoryStore()
	seedCourse(t, store)
	r := testRouter(store)

	w := doReq(t, r, "POST", "/courses/c1/lessons/l2/complete", "stu-1", "student", "")
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("want 400 when skipping the quiz, got %d", w.Code)
	}
	w = doReq(t, r, "POST", "/courses/c1/lessons/l1/complete", "stu-1", "student", "")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("plain lesson completion: want 200, got %d", w.Code)
	}
}

func TestAnalytics_InstructorOnly(t *testing.T) {
	store := course.NewMemoryStore()
	seedCourse(t, store)
	r := testRouter(store)

	w := doReq(t, r, "GET", "/courses/c1/analytics", "teach-2", "educator", "")
	if w.Code != nethttp.StatusForbidden {
		t.Fatalf("non-instructor: want 403, got %d", w.Code)
	}

	w = doReq(t, r, "GET", "/courses/c1/analytics", "teach-1", "educator", "")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("instructor: want 200, got %d: %s", w.Code, w.Body.String())
	}
	var rollup analytics.Rollup
	if err := json.Unmarshal(w.Body.Bytes(), &rollup); err != nil {
		t.Fatalf("decode rollup: %v", err)
	}
	if rollup.Summary.TotalStudents != 1 {
		t.Fatalf("want 1 enrolled student, got %d", rollup.Summary.TotalStudents)
	}
}

func TestGetCourse_AnswersRedactedForStudents(t *testing.T) {
	store := course.NewMemoryStore()
	seedCourse(t, store)
	r := testRouter(store)

	w := doReq(t, r, "GET", "/courses/c1", "stu-1", "student", "")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	var c course.Course
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode course: %v", err)
	}
	q := c.Modules[0].Lessons[1].Quiz.Questions[0]
	if q.CorrectOption != 0 {
		t.Fatalf("canonical answer leaked to student: %+v", q)
	}
	if len(q.Options) != 3 {
		t.Fatalf("options must survive redaction: %+v", q)
	}
}
