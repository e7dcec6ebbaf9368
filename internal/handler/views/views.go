// Package views renders the server-side pages. The pages are templ
// components; run `templ generate` after editing a .templ file.
package views

import (
	"fmt"
	"time"

	"github.com/pavelanni/englishquiz/internal/scoring"
)

func gradeClass(grade string) string {
	switch grade {
	case scoring.GradeExcellent:
		return "grade-excellent"
	case scoring.GradeGood:
		return "grade-good"
	default:
		return "grade-needs-improvement"
	}
}

func scoreText(score, total int) string {
	return fmt.Sprintf("%d/%d", score, total)
}

func percentText(p int) string {
	return fmt.Sprintf("%d%%", p)
}

func averageText(avg float64) string {
	return fmt.Sprintf("%.1f%%", avg)
}

func submittedAt(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
