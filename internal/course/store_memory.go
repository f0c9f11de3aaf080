package course

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/learnhall/learnhall-lms/internal/apperr"
)

// memoryStore keeps everything in maps behind one lock. Used by tests and
// by the gateway when no database is configured.
type memoryStore struct {
	mu          sync.RWMutex
	courses     map[string]Course
	enrollments map[string]Enrollment    // courseID|studentID
	attempts    map[string]Attempt       // quizID|studentID
	notes       map[string][]Notification // userID -> notifications
}

func NewMemoryStore() Store {
	return &memoryStore{
		courses:     map[string]Course{},
		enrollments: map[string]Enrollment{},
		attempts:    map[string]Attempt{},
		notes:       map[string][]Notification{},
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (m *memoryStore) PutCourse(_ context.Context, c Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *memoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.courses[id]
	if !ok {
		return Course{}, fmt.Errorf("course %s: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

func (m *memoryStore) ListCourses(_ context.Context) ([]Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) CreateEnrollment(_ context.Context, e Enrollment, notes []Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(e.CourseID, e.StudentID)
	if _, ok := m.enrollments[k]; ok {
		return fmt.Errorf("enrollment for %s: %w", k, apperr.ErrConflict)
	}
	m.enrollments[k] = e
	for _, n := range notes {
		m.notes[n.UserID] = append(m.notes[n.UserID], n)
	}
	return nil
}

func (m *memoryStore) GetEnrollment(_ context.Context, courseID, studentID string) (Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enrollments[pairKey(courseID, studentID)]
	if !ok {
		return Enrollment{}, fmt.Errorf("enrollment: %w", apperr.ErrNotFound)
	}
	return e, nil
}

func (m *memoryStore) SetEnrollmentStatus(_ context.Context, courseID, studentID string, status EnrollStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(courseID, studentID)
	e, ok := m.enrollments[k]
	if !ok {
		return fmt.Errorf("enrollment: %w", apperr.ErrNotFound)
	}
	e.Status = status
	m.enrollments[k] = e
	return nil
}

func (m *memoryStore) ListEnrollments(_ context.Context, courseID string) ([]Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Enrollment
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (m *memoryStore) AddCompletedItem(_ context.Context, courseID, studentID, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(courseID, studentID)
	e, ok := m.enrollments[k]
	if !ok {
		return fmt.Errorf("enrollment: %w", apperr.ErrNotFound)
	}
	if !e.Completed(lessonID) {
		e.CompletedItems = append(e.CompletedItems, lessonID)
		m.enrollments[k] = e
	}
	return nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey(a.QuizID, a.StudentID)
	if _, ok := m.attempts[k]; ok {
		return fmt.Errorf("attempt for quiz %s: %w", a.QuizID, apperr.ErrConflict)
	}
	ek := pairKey(a.CourseID, a.StudentID)
	e, ok := m.enrollments[ek]
	if !ok {
		return fmt.Errorf("enrollment: %w", apperr.ErrNotFound)
	}
	m.attempts[k] = a
	if !e.Completed(a.LessonID) {
		e.CompletedItems = append(e.CompletedItems, a.LessonID)
		m.enrollments[ek] = e
	}
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, quizID, studentID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[pairKey(quizID, studentID)]
	if !ok {
		return Attempt{}, fmt.Errorf("attempt: %w", apperr.ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) ListCourseAttempts(_ context.Context, courseID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if a.CourseID == courseID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt < out[j].SubmittedAt })
	return out, nil
}

func (m *memoryStore) ListStudentAttempts(_ context.Context, courseID, studentID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if a.CourseID == courseID && a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt < out[j].SubmittedAt })
	return out, nil
}

func (m *memoryStore) ListNotifications(_ context.Context, userID string) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]Notification(nil), m.notes[userID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.notes[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, apperr.ErrNotFound)
}
