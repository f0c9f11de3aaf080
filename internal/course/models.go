package course

import "time"

// QuestionKind tags the Question/Answer union.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindIdentification QuestionKind = "identification"
	KindTrueFalse      QuestionKind = "true_false"
)

// Question is a tagged union over the three supported kinds. Only the
// fields matching Kind are meaningful; the rest stay at their zero value.
type Question struct {
	ID     string       `json:"id"`
	Kind   QuestionKind `json:"kind"`
	Prompt string       `json:"prompt"`

	Options       []string `json:"options,omitempty"`        // multiple_choice
	CorrectOption int      `json:"correct_option,omitempty"` // multiple_choice, zero-based
	CorrectText   string   `json:"correct_text,omitempty"`   // identification
	CorrectBool   bool     `json:"correct_bool,omitempty"`   // true_false
}

// Answer is the submitted counterpart of Question. An answer only counts
// when its Kind matches the question's Kind; grading never sniffs the
// runtime shape of the value.
type Answer struct {
	Kind   QuestionKind `json:"kind"`
	Option int          `json:"option,omitempty"`
	Text   string       `json:"text,omitempty"`
	Bool   bool         `json:"bool,omitempty"`
}

type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	DueAt     *time.Time `json:"due_at,omitempty"`
}

// Lesson is the trackable unit of completion. At most one quiz.
type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
	LabURL   string `json:"lab_url,omitempty"`
	Quiz     *Quiz  `json:"quiz,omitempty"`
}

type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Modules     []Module `json:"modules"`
	Instructors []string `json:"instructors,omitempty"`
	CreatedAt   int64    `json:"created_at,omitempty"`
}

// Lessons returns the course's lessons in module order.
func (c Course) Lessons() []Lesson {
	var out []Lesson
	for _, m := range c.Modules {
		out = append(out, m.Lessons...)
	}
	return out
}

// LessonIDSet returns the identity set used for defensive intersection in
// progress math.
func (c Course) LessonIDSet() map[string]struct{} {
	set := map[string]struct{}{}
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			set[l.ID] = struct{}{}
		}
	}
	return set
}

// FindQuiz locates a quiz and its owning lesson within the course tree.
func (c Course) FindQuiz(quizID string) (Quiz, Lesson, bool) {
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if l.Quiz != nil && l.Quiz.ID == quizID {
				return *l.Quiz, l, true
			}
		}
	}
	return Quiz{}, Lesson{}, false
}

// HasInstructor reports whether userID teaches this course.
func (c Course) HasInstructor(userID string) bool {
	for _, id := range c.Instructors {
		if id == userID {
			return true
		}
	}
	return false
}

// Redacted returns a deep copy of the course with canonical answers
// stripped, for serving to students.
func (c Course) Redacted() Course {
	out := c
	out.Modules = make([]Module, len(c.Modules))
	for i, m := range c.Modules {
		om := m
		om.Lessons = make([]Lesson, len(m.Lessons))
		for j, l := range m.Lessons {
			ol := l
			if l.Quiz != nil {
				q := *l.Quiz
				q.Questions = make([]Question, len(l.Quiz.Questions))
				for k, qu := range l.Quiz.Questions {
					qu.CorrectOption = 0
					qu.CorrectText = ""
					qu.CorrectBool = false
					q.Questions[k] = qu
				}
				ol.Quiz = &q
			}
			om.Lessons[j] = ol
		}
		out.Modules[i] = om
	}
	return out
}

// Attempt is the single scored record of a student's quiz submission.
// Written once, never mutated.
type Attempt struct {
	ID             string            `json:"id"`
	CourseID       string            `json:"course_id"`
	LessonID       string            `json:"lesson_id"`
	QuizID         string            `json:"quiz_id"`
	StudentID      string            `json:"student_id"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	Answers        map[string]Answer `json:"answers"` // questionID -> answer
	SubmittedAt    int64             `json:"submitted_at"`
}

type EnrollStatus string

const (
	EnrollPending  EnrollStatus = "pending"
	EnrollEnrolled EnrollStatus = "enrolled"
	EnrollRejected EnrollStatus = "rejected"
)

// Enrollment ties one student to one course. CompletedItems holds lesson
// identities and only grows while the status is enrolled.
type Enrollment struct {
	CourseID       string       `json:"course_id"`
	StudentID      string       `json:"student_id"`
	Status         EnrollStatus `json:"status"`
	CompletedItems []string     `json:"completed_items"`
	CreatedAt      int64        `json:"created_at"`
}

// Completed reports whether lessonID is already in the completed set.
func (e Enrollment) Completed(lessonID string) bool {
	for _, id := range e.CompletedItems {
		if id == lessonID {
			return true
		}
	}
	return false
}

type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CourseID  string `json:"course_id"`
	Type      string `json:"type"` // e.g. enroll_request
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt int64  `json:"created_at"`
}
