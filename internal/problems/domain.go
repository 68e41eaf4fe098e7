package problems

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/mockround/mockround/internal/shared"
)

// Difficulty grades a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Problem is a coding exercise. Problems created by non-admins start
// unapproved.
type Problem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	CreatorID   *string    `json:"creator_id"`
	Approved    bool       `json:"approved"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Creator returns the creator id or an empty string for orphaned problems.
func (p Problem) Creator() string {
	if p.CreatorID == nil {
		return ""
	}
	return *p.CreatorID
}

// Tag labels a problem.
type Tag struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// TagCount is a distinct tag with the number of problems carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CreateProblemRequest is the body of POST /problems.
type CreateProblemRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=20000"`
	Difficulty  string   `json:"difficulty" validate:"required"`
	Tags        []string `json:"tags" validate:"max=20,dive,required,max=50"`
}

// UpdateProblemRequest is the body of PUT /problems/{id}; nil fields are kept.
type UpdateProblemRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=20000"`
	Difficulty  *string `json:"difficulty"`
}

// AddTagRequest is the body of POST /problems/{id}/tags.
type AddTagRequest struct {
	Tag string `json:"tag" validate:"required,max=50"`
}

// ListFilters narrows the problem listing. ViewerID limits unapproved
// problems to the viewer's own unless IncludeUnapproved is set.
type ListFilters struct {
	shared.PageRequest
	Difficulty        Difficulty
	Approved          *bool
	Tag               string
	Search            string
	ViewerID          string
	IncludeUnapproved bool
}

// NormalizeTag trims and case-folds a tag so "DP " and "dp" collide.
func NormalizeTag(raw string) string {
	return cases.Fold().String(strings.Join(strings.Fields(raw), " "))
}
