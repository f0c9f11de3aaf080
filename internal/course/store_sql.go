package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/learnhall/learnhall-lms/internal/apperr"
)

// SQLStore persists the course tree and answer blobs as JSON columns, the
// same way the store keeps heterogeneous records interpretable across the
// sqlite and postgres drivers.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return err
	}
	mods, err := json.Marshal(c.Modules)
	if err != nil {
		return err
	}
	instr, err := json.Marshal(c.Instructors)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO courses (id,title,description,tags_json,modules_json,instructors_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
			tags_json=EXCLUDED.tags_json, modules_json=EXCLUDED.modules_json, instructors_json=EXCLUDED.instructors_json`,
		c.ID, c.Title, c.Description, string(tags), string(mods), string(instr), c.CreatedAt)
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,description,tags_json,modules_json,instructors_json,created_at FROM courses WHERE id=$1`, id)
	return scanCourse(row)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanCourse(row rowScanner) (Course, error) {
	var c Course
	var tags, mods, instr string
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &tags, &mods, &instr, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, fmt.Errorf("course: %w", apperr.ErrNotFound)
		}
		return Course{}, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return Course{}, err
	}
	if err := json.Unmarshal([]byte(mods), &c.Modules); err != nil {
		return Course{}, err
	}
	if err := json.Unmarshal([]byte(instr), &c.Instructors); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,description,tags_json,modules_json,instructors_json,created_at FROM courses ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateEnrollment(ctx context.Context, e Enrollment, notes []Notification) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exist int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM enrollments WHERE course_id=$1 AND student_id=$2`, e.CourseID, e.StudentID).Scan(&exist)
	if err == nil {
		return fmt.Errorf("enrollment exists: %w", apperr.ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	completed, err := json.Marshal(emptyIfNil(e.CompletedItems))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO enrollments (course_id,student_id,status,completed_json,created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		e.CourseID, e.StudentID, string(e.Status), string(completed), e.CreatedAt); err != nil {
		return err
	}
	for _, n := range notes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO notifications (id,user_id,course_id,typ,message,is_read,created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			n.ID, n.UserID, n.CourseID, n.Type, n.Message, n.IsRead, n.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetEnrollment(ctx context.Context, courseID, studentID string) (Enrollment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT course_id,student_id,status,completed_json,created_at FROM enrollments
		WHERE course_id=$1 AND student_id=$2`, courseID, studentID)
	return scanEnrollment(row)
}

func scanEnrollment(row rowScanner) (Enrollment, error) {
	var e Enrollment
	var status, completed string
	if err := row.Scan(&e.CourseID, &e.StudentID, &status, &completed, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, fmt.Errorf("enrollment: %w", apperr.ErrNotFound)
		}
		return Enrollment{}, err
	}
	e.Status = EnrollStatus(status)
	if err := json.Unmarshal([]byte(completed), &e.CompletedItems); err != nil {
		return Enrollment{}, err
	}
	return e, nil
}

func (s *SQLStore) SetEnrollmentStatus(ctx context.Context, courseID, studentID string, status EnrollStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE enrollments SET status=$1 WHERE course_id=$2 AND student_id=$3`,
		string(status), courseID, studentID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("enrollment: %w", apperr.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT course_id,student_id,status,completed_json,created_at FROM enrollments
		WHERE course_id=$1 ORDER BY created_at, student_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AddCompletedItem re-reads the enrollment row inside the transaction
// before appending, the same pattern CreateAttempt uses, so a lesson
// completed by a concurrent attempt commit survives the append.
func (s *SQLStore) AddCompletedItem(ctx context.Context, courseID, studentID, lessonID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT course_id,student_id,status,completed_json,created_at FROM enrollments
		WHERE course_id=$1 AND student_id=$2`, courseID, studentID)
	e, err := scanEnrollment(row)
	if err != nil {
		return err
	}
	if e.Completed(lessonID) {
		return nil
	}
	buf, err := json.Marshal(append(e.CompletedItems, lessonID))
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE enrollments SET completed_json=$1 WHERE course_id=$2 AND student_id=$3`,
		string(buf), courseID, studentID); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateAttempt inserts the attempt and folds the owning lesson into the
// enrollment's completed set inside one transaction. The pre-check plus
// the UNIQUE (quiz_id, student_id) index resolve concurrent submissions:
// the loser sees a conflict, never a silent duplicate.
func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exist int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM attempts WHERE quiz_id=$1 AND student_id=$2`, a.QuizID, a.StudentID).Scan(&exist)
	if err == nil {
		return fmt.Errorf("attempt exists for quiz %s: %w", a.QuizID, apperr.ErrConflict)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO attempts (id,course_id,lesson_id,quiz_id,student_id,score,total_questions,answers_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.CourseID, a.LessonID, a.QuizID, a.StudentID, a.Score, a.TotalQuestions, string(answers), a.SubmittedAt); err != nil {
		return err
	}

	row := tx.QueryRowContext(ctx, `SELECT course_id,student_id,status,completed_json,created_at FROM enrollments
		WHERE course_id=$1 AND student_id=$2`, a.CourseID, a.StudentID)
	e, err := scanEnrollment(row)
	if err != nil {
		return err
	}
	if !e.Completed(a.LessonID) {
		buf, err := json.Marshal(append(e.CompletedItems, a.LessonID))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE enrollments SET completed_json=$1 WHERE course_id=$2 AND student_id=$3`,
			string(buf), a.CourseID, a.StudentID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetAttempt(ctx context.Context, quizID, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,lesson_id,quiz_id,student_id,score,total_questions,answers_json,submitted_at
		FROM attempts WHERE quiz_id=$1 AND student_id=$2`, quizID, studentID)
	return scanAttempt(row)
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var answers string
	if err := row.Scan(&a.ID, &a.CourseID, &a.LessonID, &a.QuizID, &a.StudentID, &a.Score, &a.TotalQuestions, &answers, &a.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt: %w", apperr.ErrNotFound)
		}
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return Attempt{}, fmt.Errorf("attempt %s answers: %w", a.ID, err)
	}
	return a, nil
}

func (s *SQLStore) ListCourseAttempts(ctx context.Context, courseID string) ([]Attempt, error) {
	return s.listAttempts(ctx, `SELECT id,course_id,lesson_id,quiz_id,student_id,score,total_questions,answers_json,submitted_at
		FROM attempts WHERE course_id=$1 ORDER BY submitted_at, id`, courseID)
}

func (s *SQLStore) ListStudentAttempts(ctx context.Context, courseID, studentID string) ([]Attempt, error) {
	return s.listAttempts(ctx, `SELECT id,course_id,lesson_id,quiz_id,student_id,score,total_questions,answers_json,submitted_at
		FROM attempts WHERE course_id=$1 AND student_id=$2 ORDER BY submitted_at, id`, courseID, studentID)
}

func (s *SQLStore) listAttempts(ctx context.Context, query string, args ...any) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListNotifications(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,user_id,course_id,typ,message,is_read,created_at FROM notifications
		WHERE user_id=$1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.CourseID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("notification: %w", apperr.ErrNotFound)
	}
	return nil
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
