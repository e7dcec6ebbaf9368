package model

import (
	"context"
	"time"
)

// DefaultCategory is assigned to questions imported without a category.
const DefaultCategory = "general"

// OptionsPerQuestion is the fixed number of choices every question carries.
const OptionsPerQuestion = 4

// Question is a multiple-choice quiz item.
type Question struct {
	ID          int64     `json:"id"`
	Prompt      string    `json:"prompt"`
	Options     []string  `json:"options"`
	Answer      string    `json:"answer"`
	Explanation string    `json:"explanation,omitempty"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"-"`
}

// HasOption reports whether opt is one of the question's choices.
func (q Question) HasOption(opt string) bool {
	for _, o := range q.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// QuestionImport is the shape of a question in import files and in the
// admin create request.
type QuestionImport struct {
	Prompt      string   `json:"prompt" validate:"notblank"`
	Options     []string `json:"options" validate:"len=4,dive,notblank"`
	Answer      string   `json:"answer" validate:"notblank"`
	Explanation string   `json:"explanation"`
	Category    string   `json:"category"`
}

// Question converts the import into a storable question.
func (qi QuestionImport) Question() Question {
	category := qi.Category
	if category == "" {
		category = DefaultCategory
	}
	return Question{
		Prompt:      qi.Prompt,
		Options:     append([]string(nil), qi.Options...),
		Answer:      qi.Answer,
		Explanation: qi.Explanation,
		Category:    category,
	}
}

// Answer is one answer slot; nil means the question was left unanswered.
type Answer = *string

// AnswerOf returns an answer slot holding opt.
func AnswerOf(opt string) Answer {
	return &opt
}

// Submission is the persisted record of one completed quiz attempt.
type Submission struct {
	ID             string    `json:"id"`
	StudentName    string    `json:"studentName"`
	Answers        []Answer  `json:"answers"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	TimeSpent      int       `json:"timeSpent"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Summary drops the per-question answers.
func (s Submission) Summary() SubmissionSummary {
	return SubmissionSummary{
		ID:             s.ID,
		StudentName:    s.StudentName,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage,
		TimeSpent:      s.TimeSpent,
		SubmittedAt:    s.SubmittedAt,
	}
}

// SubmissionSummary is a submission without its answers, as shown to admins.
type SubmissionSummary struct {
	ID             string    `json:"id"`
	StudentName    string    `json:"studentName"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	TimeSpent      int       `json:"timeSpent"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// SubmissionRequest is the body a test-taker posts at quiz completion.
type SubmissionRequest struct {
	StudentName string   `json:"studentName" validate:"notblank"`
	Answers     []Answer `json:"answers" validate:"required"`
	TimeSpent   int      `json:"timeSpent" validate:"min=0"`
}

// SubmissionCreated is returned after a submission has been stored.
type SubmissionCreated struct {
	ID             string `json:"id"`
	StudentName    string `json:"studentName"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
}

// Admin is the administrator account.
type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// LoginRequest carries administrator credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	SecureCookies bool          // Set Secure flag on cookies (disable for local dev)
	TokenTTL      time.Duration // Lifetime of an admin session token
	Lang          string
}

type adminCtxKey struct{}

// ContextWithAdminID stores the authenticated administrator's id in the request context.
func ContextWithAdminID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, adminCtxKey{}, id)
}

// AdminIDFromContext retrieves the authenticated administrator's id, or false.
func AdminIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(adminCtxKey{}).(int64)
	return id, ok
}
