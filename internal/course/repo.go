package course

import "context"

// Store is the document-store boundary for the engine. Two invariants are
// the store's to keep atomic: an attempt insert commits together with the
// owning lesson joining the enrollment's completed set, and an enrollment
// insert commits together with its instructor notification fan-out.
type Store interface {
	PutCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)

	// CreateEnrollment writes the enrollment and the notifications in one
	// atomic unit. A repeated request for the same (course, student) pair
	// fails with apperr.ErrConflict.
	CreateEnrollment(ctx context.Context, e Enrollment, notes []Notification) error
	GetEnrollment(ctx context.Context, courseID, studentID string) (Enrollment, error)
	SetEnrollmentStatus(ctx context.Context, courseID, studentID string, status EnrollStatus) error
	// ListEnrollments returns a course's enrollments in original
	// enrollment order.
	ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
	// AddCompletedItem appends lessonID to the completed set if absent.
	// The append happens under the store's lock or inside a transaction
	// that re-reads the row, so a lesson completed by a concurrent
	// attempt commit is never lost. The set only grows.
	AddCompletedItem(ctx context.Context, courseID, studentID, lessonID string) error

	// CreateAttempt inserts the attempt and adds a.LessonID to the
	// student's completed set in one atomic unit. A second attempt for the
	// same (quiz, student) pair fails with apperr.ErrConflict and leaves
	// the original untouched.
	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, quizID, studentID string) (Attempt, error)
	ListCourseAttempts(ctx context.Context, courseID string) ([]Attempt, error)
	ListStudentAttempts(ctx context.Context, courseID, studentID string) ([]Attempt, error)

	ListNotifications(ctx context.Context, userID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}
