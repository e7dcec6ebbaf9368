package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/englishquiz/internal/model"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertQuestion stores a question.
func (s *Store) InsertQuestion(ctx context.Context, q model.Question) (int64, error) {
	return insertQuestion(ctx, s.db, q)
}

// InsertQuestions stores a batch of questions read from the file name and
// records its hash. Either every question and the hash are stored or none.
func (s *Store) InsertQuestions(ctx context.Context, questions []model.Question, name, hash string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin import", err)
	}
	defer tx.Rollback()

	for i, q := range questions {
		if _, err := insertQuestion(ctx, tx, q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	if err := setImportedFileHash(ctx, tx, name, hash); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit import", err)
	}
	return nil
}

func insertQuestion(ctx context.Context, db execer, q model.Question) (int64, error) {
	if len(q.Options) != model.OptionsPerQuestion {
		return 0, fmt.Errorf("%w: question must have exactly %d options", model.ErrValidation, model.OptionsPerQuestion)
	}
	if q.Category == "" {
		q.Category = model.DefaultCategory
	}
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return 0, fmt.Errorf("encode options: %w", err)
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO questions (prompt, options, answer, explanation, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.Prompt, string(opts), q.Answer, q.Explanation, q.Category, time.Now().UTC(),
	)
	if err != nil {
		return 0, unavailable("insert question", err)
	}
	return res.LastInsertId()
}

// ListQuestions returns all questions in insertion order.
func (s *Store) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, prompt, options, answer, explanation, category, created_at FROM questions ORDER BY id`)
	if err != nil {
		return nil, unavailable("list questions", err)
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list questions", err)
	}
	return questions, nil
}

// GetQuestion returns a question by ID. It returns sql.ErrNoRows when absent.
func (s *Store) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, prompt, options, answer, explanation, category, created_at FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// QuestionCount returns the number of questions in the database.
func (s *Store) QuestionCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return 0, unavailable("count questions", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(r scanner) (model.Question, error) {
	var q model.Question
	var opts string
	if err := r.Scan(&q.ID, &q.Prompt, &opts, &q.Answer, &q.Explanation, &q.Category, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return q, err
		}
		return q, unavailable("scan question", err)
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return q, fmt.Errorf("decode options of question %d: %w", q.ID, err)
	}
	return q, nil
}
