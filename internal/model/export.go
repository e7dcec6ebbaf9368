package model

import "time"

// SubmissionExport is the top-level JSON structure for result export.
type SubmissionExport struct {
	ExportedAt     time.Time    `json:"exported_at"`
	TotalQuestions int          `json:"total_questions"`
	Count          int          `json:"count"`
	Submissions    []Submission `json:"submissions"`
}
