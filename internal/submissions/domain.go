package submissions

import (
	"time"

	"github.com/mockround/mockround/internal/shared"
)

// Status is the judging outcome of a submission.
type Status string

const (
	StatusPending           Status = "Pending"
	StatusAccepted          Status = "Accepted"
	StatusWrongAnswer       Status = "Wrong Answer"
	StatusTimeLimitExceeded Status = "Time Limit Exceeded"
	StatusRuntimeError      Status = "Runtime Error"
	StatusCompilationError  Status = "Compilation Error"
)

var statuses = []Status{
	StatusPending, StatusAccepted, StatusWrongAnswer,
	StatusTimeLimitExceeded, StatusRuntimeError, StatusCompilationError,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Submission is a user's attempt at a problem.
type Submission struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProblemID string    `json:"problem_id"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Status    Status    `json:"status"`
	Score     int       `json:"score"`
	TimeSpent int       `json:"time_spent"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmissionWithDetails joins the problem title and author username.
type SubmissionWithDetails struct {
	Submission
	ProblemTitle string `json:"problem_title"`
	Username     string `json:"username"`
}

// CreateSubmissionRequest is the body of POST /submissions.
type CreateSubmissionRequest struct {
	ProblemID string `json:"problem_id" validate:"required,uuid"`
	Language  string `json:"language" validate:"required,max=50"`
	Code      string `json:"code" validate:"required,max=200000"`
	TimeSpent int    `json:"time_spent" validate:"min=0"`
}

// UpdateSubmissionRequest grades a submission; nil fields are kept.
type UpdateSubmissionRequest struct {
	Status    *string `json:"status"`
	Score     *int    `json:"score" validate:"omitempty,min=0,max=100"`
	TimeSpent *int    `json:"time_spent" validate:"omitempty,min=0"`
}

// ListFilters narrows the submission listing.
type ListFilters struct {
	shared.PageRequest
	ProblemID string
	Status    Status
	UserID    string
}
