package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/englishquiz/internal/model"
)

// ExportSubmissions builds the export document with every submission,
// answers included, newest first.
func (s *Store) ExportSubmissions(ctx context.Context) (model.SubmissionExport, error) {
	summaries, err := s.ListSubmissionSummaries(ctx)
	if err != nil {
		return model.SubmissionExport{}, fmt.Errorf("list submissions: %w", err)
	}
	total, err := s.QuestionCount(ctx)
	if err != nil {
		return model.SubmissionExport{}, fmt.Errorf("count questions: %w", err)
	}

	subs := make([]model.Submission, 0, len(summaries))
	for _, sum := range summaries {
		sub, err := s.GetSubmission(ctx, sum.ID)
		if err != nil {
			return model.SubmissionExport{}, fmt.Errorf("get submission %s: %w", sum.ID, err)
		}
		subs = append(subs, sub)
	}

	return model.SubmissionExport{
		ExportedAt:     time.Now().UTC(),
		TotalQuestions: total,
		Count:          len(subs),
		Submissions:    subs,
	}, nil
}
