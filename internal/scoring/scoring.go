// Package scoring turns a completed answer sheet into a score, a
// percentage and a grade label.
package scoring

import (
	"math"

	"github.com/pavelanni/englishquiz/internal/model"
)

// Grade labels.
const (
	GradeExcellent        = "Excellent"
	GradeGood             = "Good"
	GradeNeedsImprovement = "Needs Improvement"
)

// Result is the outcome of scoring one answer sheet.
type Result struct {
	Score      int `json:"score"`
	Total      int `json:"totalQuestions"`
	Percentage int `json:"percentage"`
}

// Evaluate scores answers against questions position by position. An answer
// is correct only when it is non-nil and exactly equals the question's
// answer. Slots missing from answers count as unanswered and answers beyond
// the last question are ignored.
func Evaluate(questions []model.Question, answers []model.Answer) Result {
	score := 0
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		if Correct(q, answers[i]) {
			score++
		}
	}
	return Result{
		Score:      score,
		Total:      len(questions),
		Percentage: Percentage(score, len(questions)),
	}
}

// Correct reports whether a is the designated answer of q.
func Correct(q model.Question, a model.Answer) bool {
	return a != nil && *a == q.Answer
}

// Percentage returns round(score/total*100), or 0 when total is not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// Grade maps a percentage to its label. Each tier includes its lower bound.
func Grade(percentage int) string {
	switch {
	case percentage >= 80:
		return GradeExcellent
	case percentage >= 60:
		return GradeGood
	default:
		return GradeNeedsImprovement
	}
}
