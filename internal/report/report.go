package report

import (
	"math"

	"github.com/pavelanni/englishquiz/internal/model"
)

// Summary aggregates submission percentages for the admin dashboard.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Max     int     `json:"max"`
}

// Summarize computes count, mean percentage (one decimal place) and the
// best percentage. An empty list yields a zero Summary.
func Summarize(subs []model.SubmissionSummary) Summary {
	if len(subs) == 0 {
		return Summary{}
	}
	sum, best := 0, subs[0].Percentage
	for _, s := range subs {
		sum += s.Percentage
		if s.Percentage > best {
			best = s.Percentage
		}
	}
	avg := float64(sum) / float64(len(subs))
	return Summary{
		Count:   len(subs),
		Average: math.Round(avg*10) / 10,
		Max:     best,
	}
}
