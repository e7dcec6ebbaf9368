package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/englishquiz/internal/model"
)

// CreateSubmission assigns an ID and timestamp to sub and stores it. The
// stored record is returned.
func (s *Store) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	sub.ID = uuid.NewString()
	sub.SubmittedAt = time.Now().UTC()
	if sub.Answers == nil {
		sub.Answers = []model.Answer{}
	}
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return model.Submission{}, fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, student_name, answers, score, total_questions, percentage, time_spent, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.StudentName, string(answers), sub.Score, sub.TotalQuestions, sub.Percentage, sub.TimeSpent, sub.SubmittedAt,
	)
	if err != nil {
		return model.Submission{}, unavailable("insert submission", err)
	}
	return sub, nil
}

// GetSubmission returns a full submission by ID. It returns sql.ErrNoRows when absent.
func (s *Store) GetSubmission(ctx context.Context, id string) (model.Submission, error) {
	var sub model.Submission
	var answers string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, student_name, answers, score, total_questions, percentage, time_spent, submitted_at
		 FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.StudentName, &answers, &sub.Score, &sub.TotalQuestions, &sub.Percentage, &sub.TimeSpent, &sub.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, sql.ErrNoRows
	}
	if err != nil {
		return sub, unavailable("get submission", err)
	}
	if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
		return sub, fmt.Errorf("decode answers of submission %s: %w", sub.ID, err)
	}
	return sub, nil
}

// ListSubmissionSummaries returns every submission without answers, newest first.
func (s *Store) ListSubmissionSummaries(ctx context.Context) ([]model.SubmissionSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_name, score, total_questions, percentage, time_spent, submitted_at
		 FROM submissions ORDER BY submitted_at DESC, rowid DESC`)
	if err != nil {
		return nil, unavailable("list submissions", err)
	}
	defer rows.Close()
	subs := []model.SubmissionSummary{}
	for rows.Next() {
		var sub model.SubmissionSummary
		if err := rows.Scan(&sub.ID, &sub.StudentName, &sub.Score, &sub.TotalQuestions, &sub.Percentage, &sub.TimeSpent, &sub.SubmittedAt); err != nil {
			return nil, unavailable("scan submission", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list submissions", err)
	}
	return subs, nil
}
