// Package grading evaluates submitted answers against question
// definitions and totals full quiz submissions. Scoring is all-or-nothing
// per question: a missing answer, or an answer whose kind does not match
// the question's kind, is simply wrong, never an error.
package grading

import (
	"fmt"
	"strings"

	"github.com/learnhall/learnhall-lms/internal/apperr"
	"github.com/learnhall/learnhall-lms/internal/course"
)

// Strategy scores a single question kind.
type Strategy interface {
	Correct(q course.Question, a course.Answer) bool
}

// Grader routes by question kind to the right Strategy.
type Grader struct {
	strategies map[course.QuestionKind]Strategy
}

func NewGrader() *Grader {
	return &Grader{
		strategies: map[course.QuestionKind]Strategy{
			course.KindMultipleChoice: multipleChoiceStrategy{},
			course.KindIdentification: identificationStrategy{},
			course.KindTrueFalse:      trueFalseStrategy{},
		},
	}
}

// IsCorrect reports whether a holds the right answer for q. The answer
// must carry the question's kind tag; anything else scores false.
func (g *Grader) IsCorrect(q course.Question, a course.Answer) bool {
	if a.Kind != q.Kind {
		return false
	}
	s, ok := g.strategies[q.Kind]
	if !ok {
		return false
	}
	return s.Correct(q, a)
}

// GradeSubmission scores answers against quiz. Every question must have
// an answer entry; an incomplete submission fails validation before any
// attempt record exists.
func (g *Grader) GradeSubmission(quiz course.Quiz, answers map[string]course.Answer) (int, error) {
	for _, q := range quiz.Questions {
		if _, ok := answers[q.ID]; !ok {
			return 0, fmt.Errorf("question %s unanswered: %w", q.ID, apperr.ErrValidation)
		}
	}
	score := 0
	for _, q := range quiz.Questions {
		if g.IsCorrect(q, answers[q.ID]) {
			score++
		}
	}
	return score, nil
}

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) Correct(q course.Question, a course.Answer) bool {
	if a.Option < 0 || a.Option >= len(q.Options) {
		return false
	}
	return a.Option == q.CorrectOption
}

type identificationStrategy struct{}

// Identification compares case-insensitively with surrounding whitespace
// trimmed. No fuzzy matching, no synonyms.
func (identificationStrategy) Correct(q course.Question, a course.Answer) bool {
	want := strings.TrimSpace(q.CorrectText)
	got := strings.TrimSpace(a.Text)
	if got == "" && want != "" {
		return false
	}
	return strings.EqualFold(want, got)
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Correct(q course.Question, a course.Answer) bool {
	return a.Bool == q.CorrectBool
}
