package course

import (
	"context"
	"errors"
	"testing"

	"github.com/learnhall/learnhall-lms/internal/apperr"
)

func seedStore(t *testing.T) Store {
	t.Helper()
	st := NewMemoryStore()
	c := Course{
		ID:          "c1",
		Title:       "Networking 101",
		Instructors: []string{"t1", "t2"},
		Modules: []Module{
			{ID: "m1", Title: "Week 1", Lessons: []Lesson{
				{ID: "l1", Title: "OSI Model", Quiz: &Quiz{ID: "qz1", Title: "OSI Quiz", Questions: []Question{
					{ID: "q1", Kind: KindTrueFalse, CorrectBool: true},
				}}},
			}},
		},
	}
	if err := st.PutCourse(context.Background(), c); err != nil {
		t.Fatalf("put course: %v", err)
	}
	return st
}

func TestCreateEnrollment_NotificationFanOut(t *testing.T) {
	st := seedStore(t)
	notes := []Notification{
		{ID: "n1", UserID: "t1", CourseID: "c1", Type: "enroll_request", Message: "s1 requested to join"},
		{ID: "n2", UserID: "t2", CourseID: "c1", Type: "enroll_request", Message: "s1 requested to join"},
	}
	err := st.CreateEnrollment(context.Background(), Enrollment{CourseID: "c1", StudentID: "s1", Status: EnrollPending}, notes)
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	for _, instructor := range []string{"t1", "t2"} {
		got, err := st.ListNotifications(context.Background(), instructor)
		if err != nil {
			t.Fatalf("list notifications: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("want 1 notification for %s, got %d", instructor, len(got))
		}
		if got[0].IsRead {
			t.Fatalf("new notification must be unread")
		}
	}
}

func TestCreateEnrollment_Duplicate(t *testing.T) {
	st := seedStore(t)
	e := Enrollment{CourseID: "c1", StudentID: "s1", Status: EnrollPending}
	if err := st.CreateEnrollment(context.Background(), e, nil); err != nil {
		t.Fatalf("first enrollment: %v", err)
	}
	if err := st.CreateEnrollment(context.Background(), e, nil); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("want conflict on duplicate, got %v", err)
	}
}

func TestCreateAttempt_AtomicCompletion(t *testing.T) {
	st := seedStore(t)
	err := st.CreateEnrollment(context.Background(), Enrollment{CourseID: "c1", StudentID: "s1", Status: EnrollEnrolled}, nil)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	a := Attempt{ID: "a1", CourseID: "c1", LessonID: "l1", QuizID: "qz1", StudentID: "s1", Score: 1, TotalQuestions: 1}
	if err := st.CreateAttempt(context.Background(), a); err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	enr, err := st.GetEnrollment(context.Background(), "c1", "s1")
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if !enr.Completed("l1") {
		t.Fatalf("attempt write must also complete the owning lesson")
	}
}

func TestCreateAttempt_Conflict(t *testing.T) {
	st := seedStore(t)
	err := st.CreateEnrollment(context.Background(), Enrollment{CourseID: "c1", StudentID: "s1", Status: EnrollEnrolled}, nil)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	first := Attempt{ID: "a1", CourseID: "c1", LessonID: "l1", QuizID: "qz1", StudentID: "s1", Score: 1, TotalQuestions: 1}
	if err := st.CreateAttempt(context.Background(), first); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	second := first
	second.ID = "a2"
	second.Score = 0
	if err := st.CreateAttempt(context.Background(), second); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("want conflict on second attempt, got %v", err)
	}
	got, err := st.GetAttempt(context.Background(), "qz1", "s1")
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if got.ID != "a1" || got.Score != 1 {
		t.Fatalf("original attempt changed by losing submission: %+v", got)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	st := seedStore(t)
	notes := []Notification{{ID: "n1", UserID: "t1", CourseID: "c1", Type: "enroll_request", Message: "hi"}}
	err := st.CreateEnrollment(context.Background(), Enrollment{CourseID: "c1", StudentID: "s1", Status: EnrollPending}, notes)
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	if err := st.MarkNotificationRead(context.Background(), "n1", "t1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	got, _ := st.ListNotifications(context.Background(), "t1")
	if len(got) != 1 || !got[0].IsRead {
		t.Fatalf("notification not marked read: %+v", got)
	}
	if err := st.MarkNotificationRead(context.Background(), "n1", "t2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want not found for wrong user, got %v", err)
	}
}
