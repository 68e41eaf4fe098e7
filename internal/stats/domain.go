package stats

import (
	"errors"
	"time"
)

// ErrAlreadyCounted is returned when a submission's solve was folded in before.
var ErrAlreadyCounted = errors.New("solve already counted")

// Stats are the running practice statistics of one user.
type Stats struct {
	UserID         string    `json:"user_id"`
	ProblemsSolved int       `json:"problems_solved"`
	AverageScore   float64   `json:"average_score"`
	TimeSpent      int64     `json:"time_spent"`
	StudyPlan      []string  `json:"study_plan"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WithSolve returns the stats after one more solve. It is the in-memory
// counterpart of the RecordSolve upsert and must stay in step with it.
func (s Stats) WithSolve(score, timeSpent int) Stats {
	n := float64(s.ProblemsSolved)
	s.AverageScore = (s.AverageScore*n + float64(score)) / (n + 1)
	s.ProblemsSolved++
	s.TimeSpent += int64(timeSpent)
	return s
}

// Solve is one accepted attempt to fold into a user's stats.
type Solve struct {
	UserID       string `json:"user_id"`
	SubmissionID string `json:"submission_id,omitempty"`
	Score        int    `json:"score"`
	TimeSpent    int    `json:"time_spent"`
}

// SortBy selects the leaderboard ranking column.
type SortBy string

const (
	SortProblemsSolved SortBy = "problems_solved"
	SortAverageScore   SortBy = "average_score"
	SortTimeSpent      SortBy = "time_spent"
)

// SortOptions lists every leaderboard ordering.
var SortOptions = []SortBy{SortProblemsSolved, SortAverageScore, SortTimeSpent}

// Valid reports whether s is a known ordering.
func (s SortBy) Valid() bool {
	switch s {
	case SortProblemsSolved, SortAverageScore, SortTimeSpent:
		return true
	}
	return false
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	ProblemsSolved int     `json:"problems_solved"`
	AverageScore   float64 `json:"average_score"`
	TimeSpent      int64   `json:"time_spent"`
}

// UpdateStatsRequest is the body of PUT /stats/{userID}.
type UpdateStatsRequest struct {
	StudyPlan []string `json:"study_plan" validate:"max=50,dive,required,max=200"`
}

// RecordSolveRequest is the body of POST /stats/{userID}/solve.
type RecordSolveRequest struct {
	Score     int `json:"score" validate:"min=0,max=100"`
	TimeSpent int `json:"time_spent" validate:"min=0"`
}
