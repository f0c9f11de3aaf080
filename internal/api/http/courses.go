package http

import (
	"encoding/json"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/learnhall/learnhall-lms/internal/apperr"
	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/rbac"
)

// Handlers only; routes stay in cmd/gateway.

var validate = validator.New()

type questionReq struct {
	Kind   string `json:"kind" validate:"required,oneof=multiple_choice identification true_false"`
	Prompt string `json:"prompt" validate:"required"`

	Options       []string `json:"options,omitempty"`
	CorrectOption int      `json:"correct_option,omitempty"`
	CorrectText   string   `json:"correct_text,omitempty"`
	CorrectBool   bool     `json:"correct_bool,omitempty"`
}

type quizReq struct {
	Title     string        `json:"title" validate:"required"`
	Questions []questionReq `json:"questions" validate:"required,min=1,dive"`
	DueAt     *time.Time    `json:"due_at,omitempty"`
}

type lessonReq struct {
	Title    string   `json:"title" validate:"required"`
	Body     string   `json:"body,omitempty"`
	VideoURL string   `json:"video_url,omitempty" validate:"omitempty,url"`
	LabURL   string   `json:"lab_url,omitempty" validate:"omitempty,url"`
	Quiz     *quizReq `json:"quiz,omitempty"` // at most one quiz per lesson
}

type moduleReq struct {
	Title   string      `json:"title" validate:"required"`
	Lessons []lessonReq `json:"lessons" validate:"dive"`
}

type createCourseReq struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Modules     []moduleReq `json:"modules" validate:"dive"`
	Instructors []string    `json:"instructors,omitempty"`
}

// checkQuestion covers the kind-specific shapes validator tags can't.
func checkQuestion(q questionReq) error {
	switch course.QuestionKind(q.Kind) {
	case course.KindMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("multiple_choice needs at least two options: %w", apperr.ErrValidation)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("correct_option out of range: %w", apperr.ErrValidation)
		}
	case course.KindIdentification:
		if q.CorrectText == "" {
			return fmt.Errorf("identification needs correct_text: %w", apperr.ErrValidation)
		}
	}
	return nil
}

func (r createCourseReq) toCourse(creator string) (course.Course, error) {
	c := course.Course{
		ID:          uuid.NewString(),
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Instructors: r.Instructors,
		CreatedAt:   time.Now().Unix(),
	}
	if !c.HasInstructor(creator) {
		c.Instructors = append(c.Instructors, creator)
	}
	for _, m := range r.Modules {
		mod := course.Module{ID: uuid.NewString(), Title: m.Title}
		for _, l := range m.Lessons {
			lesson := course.Lesson{
				ID:       uuid.NewString(),
				Title:    l.Title,
				Body:     l.Body,
				VideoURL: l.VideoURL,
				LabURL:   l.LabURL,
			}
			if l.Quiz != nil {
				quiz := course.Quiz{ID: uuid.NewString(), Title: l.Quiz.Title, DueAt: l.Quiz.DueAt}
				for _, q := range l.Quiz.Questions {
					if err := checkQuestion(q); err != nil {
						return course.Course{}, err
					}
					quiz.Questions = append(quiz.Questions, course.Question{
						ID:            uuid.NewString(),
						Kind:          course.QuestionKind(q.Kind),
						Prompt:        q.Prompt,
						Options:       q.Options,
						CorrectOption: q.CorrectOption,
						CorrectText:   q.CorrectText,
						CorrectBool:   q.CorrectBool,
					})
				}
				lesson.Quiz = &quiz
			}
			mod.Lessons = append(mod.Lessons, lesson)
		}
		c.Modules = append(c.Modules, mod)
	}
	return c, nil
}

func CreateCourseHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		var req createCourseReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			nethttp.Error(w, err.Error(), nethttp.StatusBadRequest)
			return
		}
		c, err := req.toCourse(sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := store.PutCourse(r.Context(), c); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, c)
	}
}

func ListCoursesHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		courses, err := store.ListCourses(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		type summary struct {
			ID          string   `json:"id"`
			Title       string   `json:"title"`
			Description string   `json:"description,omitempty"`
			Tags        []string `json:"tags,omitempty"`
		}
		out := make([]summary, 0, len(courses))
		for _, c := range courses {
			out = append(out, summary{ID: c.ID, Title: c.Title, Description: c.Description, Tags: c.Tags})
		}
		writeJSON(w, out)
	}
}

func GetCourseHandler(store course.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		// Students never see canonical answers.
		if rbac.RoleFromContext(r.Context()) == "student" {
			c = c.Redacted()
		}
		writeJSON(w, c)
	}
}
