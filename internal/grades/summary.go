// Package grades turns a student's attempt set into a human-facing report.
package grades

import (
	"math"

	"github.com/learnhall/learnhall-lms/internal/course"
)

type QuizGrade struct {
	QuizID string `json:"quiz_id"`
	Title  string `json:"title"`
	Score  int    `json:"score"`
	Total  int    `json:"total"`
}

type QuizRef struct {
	QuizID string `json:"quiz_id"`
	Title  string `json:"title"`
}

type Summary struct {
	OverallGrade *float64    `json:"overall_grade"` // nil until something is graded
	LetterGrade  string      `json:"letter_grade"`
	Graded       []QuizGrade `json:"graded"`
	Ungraded     []QuizRef   `json:"ungraded"`
}

// letterTable is evaluated top-down; thresholds are monotonic with no gaps.
var letterTable = []struct {
	min    float64
	letter string
}{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{60, "D"},
}

// Letter maps a percentage to its letter grade; nil maps to "N/A".
func Letter(pct *float64) string {
	if pct == nil {
		return "N/A"
	}
	for _, row := range letterTable {
		if *pct >= row.min {
			return row.letter
		}
	}
	return "F"
}

// BuildSummary partitions the course's quizzes into graded and ungraded
// for one student and derives the overall percentage. Quizzes with a zero
// question count stay in the graded list but do not feed the overall
// percentage; with no nonzero-total graded quizzes the overall is nil.
func BuildSummary(c course.Course, attempts []course.Attempt) Summary {
	byQuiz := map[string]course.Attempt{}
	for _, a := range attempts {
		byQuiz[a.QuizID] = a
	}

	s := Summary{Graded: []QuizGrade{}, Ungraded: []QuizRef{}}
	sumScore, sumTotal := 0, 0
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if l.Quiz == nil {
				continue
			}
			a, ok := byQuiz[l.Quiz.ID]
			if !ok {
				s.Ungraded = append(s.Ungraded, QuizRef{QuizID: l.Quiz.ID, Title: l.Quiz.Title})
				continue
			}
			s.Graded = append(s.Graded, QuizGrade{
				QuizID: l.Quiz.ID,
				Title:  l.Quiz.Title,
				Score:  a.Score,
				Total:  a.TotalQuestions,
			})
			if a.TotalQuestions > 0 {
				sumScore += a.Score
				sumTotal += a.TotalQuestions
			}
		}
	}

	if sumTotal > 0 {
		pct := math.Round(float64(sumScore) / float64(sumTotal) * 100)
		s.OverallGrade = &pct
	}
	s.LetterGrade = Letter(s.OverallGrade)
	return s
}
