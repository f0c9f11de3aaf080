// Package analytics aggregates a course's attempts and enrollments into
// chart-ready series for the educator view. Everything here is a pure
// derivation over store reads; nothing is written back.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/learnhall/learnhall-lms/internal/apperr"
	"github.com/learnhall/learnhall-lms/internal/course"
	"github.com/learnhall/learnhall-lms/internal/progress"
)

// trendLimit caps how many students the trajectory comparison chart
// tracks, in original enrollment order.
const trendLimit = 3

type ActivityAverage struct {
	Activity     string  `json:"activity"`
	AverageScore float64 `json:"average_score"`
	Attempts     int     `json:"attempts"`
}

type StudentTrend struct {
	StudentID string `json:"student_id"`
	Scores    []int  `json:"scores"` // ordered by submission time
}

type EngagementShare struct {
	StudentID string `json:"student_id"`
	Attempts  int    `json:"attempts"`
}

type Summary struct {
	TotalStudents   int     `json:"total_students"`
	CompletedCount  int     `json:"completed_count"`
	AverageProgress float64 `json:"average_progress"`
}

type Rollup struct {
	Activities []ActivityAverage `json:"activities"`
	Trends     []StudentTrend    `json:"trends"`
	Engagement []EngagementShare `json:"engagement"`
	Summary    Summary           `json:"summary"`
}

// Engine loads a course's attempt history and enrollment list and builds
// the rollup. The caller must be an instructor of the course; anything
// else fails before any aggregation runs.
type Engine struct {
	store course.Store
}

func NewEngine(store course.Store) *Engine { return &Engine{store: store} }

func (e *Engine) BuildRollup(ctx context.Context, c course.Course, requesterID string) (Rollup, error) {
	if !c.HasInstructor(requesterID) {
		return Rollup{}, fmt.Errorf("user %s is not an instructor of course %s: %w",
			requesterID, c.ID, apperr.ErrPermissionDenied)
	}
	enrollments, err := e.store.ListEnrollments(ctx, c.ID)
	if err != nil {
		return Rollup{}, err
	}
	attempts, err := e.store.ListCourseAttempts(ctx, c.ID)
	if err != nil {
		return Rollup{}, err
	}
	return Build(c, enrollments, attempts), nil
}

// Build computes the whole rollup in one pass over attempts. Enrollments
// that are not enrolled are dropped; attempts pointing at lessons or
// quizzes no longer in the course tree are skipped from activity averages
// rather than failing the rollup.
func Build(c course.Course, enrollments []course.Enrollment, attempts []course.Attempt) Rollup {
	var enrolled []course.Enrollment
	for _, e := range enrollments {
		if e.Status == course.EnrollEnrolled {
			enrolled = append(enrolled, e)
		}
	}

	activityNames := activityIndex(c)

	type acc struct {
		sum   int
		count int
	}
	byActivity := map[string]*acc{}
	byStudent := map[string][]int{} // attempts arrive sorted by submission time
	engagement := map[string]int{}

	for _, a := range attempts {
		engagement[a.StudentID]++
		byStudent[a.StudentID] = append(byStudent[a.StudentID], a.Score)
		name, ok := activityNames[a.QuizID]
		if !ok {
			continue // dangling reference, skip
		}
		ag := byActivity[name]
		if ag == nil {
			ag = &acc{}
			byActivity[name] = ag
		}
		ag.sum += a.Score
		ag.count++
	}

	var activities []ActivityAverage
	for name, ag := range byActivity {
		activities = append(activities, ActivityAverage{
			Activity:     name,
			AverageScore: round2(float64(ag.sum) / float64(ag.count)),
			Attempts:     ag.count,
		})
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].Activity < activities[j].Activity })

	var trends []StudentTrend
	for i, e := range enrolled {
		if i == trendLimit {
			break
		}
		trends = append(trends, StudentTrend{StudentID: e.StudentID, Scores: byStudent[e.StudentID]})
	}

	shares := make([]EngagementShare, 0, len(enrolled))
	for _, e := range enrolled {
		shares = append(shares, EngagementShare{StudentID: e.StudentID, Attempts: engagement[e.StudentID]})
	}

	sum := Summary{TotalStudents: len(enrolled)}
	if len(enrolled) > 0 {
		total := 0.0
		for _, e := range enrolled {
			pct := progress.Compute(c, e)
			total += pct
			if pct >= 100 {
				sum.CompletedCount++
			}
		}
		sum.AverageProgress = round2(total / float64(len(enrolled)))
	}

	return Rollup{Activities: activities, Trends: trends, Engagement: shares, Summary: sum}
}

// activityIndex maps quiz IDs to their "lesson: quiz" display names.
func activityIndex(c course.Course) map[string]string {
	idx := map[string]string{}
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if l.Quiz != nil {
				idx[l.Quiz.ID] = l.Title + ": " + l.Quiz.Title
			}
		}
	}
	return idx
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
