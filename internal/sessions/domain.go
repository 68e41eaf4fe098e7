package sessions

import (
	"time"

	"github.com/mockround/mockround/internal/shared"
)

// Status is the lifecycle state of an interview session.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Session is an interview practice session owned by its creator.
type Session struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	InterviewerID *string    `json:"interviewer_id"`
	Title         string     `json:"title"`
	Status        Status     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Feedback      string     `json:"feedback"`
	LastUpdatedBy *string    `json:"last_updated_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Participants returns the identities with participant access besides the owner.
func (s Session) Participants() []string {
	if s.InterviewerID == nil || *s.InterviewerID == "" {
		return nil
	}
	return []string{*s.InterviewerID}
}

// Question is a prompt asked within a session.
type Question struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	ProblemID       *string   `json:"problem_id"`
	Prompt          string    `json:"prompt"`
	SubmittedAnswer string    `json:"submitted_answer"`
	Feedback        string    `json:"feedback"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Title         string     `json:"title" validate:"required,max=200"`
	InterviewerID *string    `json:"interviewer_id" validate:"omitempty,uuid"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time" validate:"required"`
	EndTime       *time.Time `json:"end_time"`
}

// UpdateSessionRequest is the body of PUT /sessions/{id}; nil fields are kept.
type UpdateSessionRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=1,max=200"`
	InterviewerID *string    `json:"interviewer_id" validate:"omitempty,uuid"`
	Status        *string    `json:"status"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
}

// FeedbackRequest carries reviewer feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required,max=20000"`
}

// CreateQuestionRequest is the body of POST /sessions/{id}/questions.
type CreateQuestionRequest struct {
	Prompt    string  `json:"prompt" validate:"required,max=20000"`
	ProblemID *string `json:"problem_id" validate:"omitempty,uuid"`
}

// AnswerRequest carries a participant's answer.
type AnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=100000"`
}

// ListFilters narrows the session listing. Non-elevated viewers only see
// sessions they own.
type ListFilters struct {
	shared.PageRequest
	Status Status
	UserID string
}
