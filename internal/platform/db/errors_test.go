package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert tag: %w", &pgconn.PgError{Code: "23505", ConstraintName: "problem_tags_problem_tag_key"})
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))
	assert.Equal(t, "problem_tags_problem_tag_key", ConstraintName(err))

	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.Empty(t, ConstraintName(nil))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.True(t, IsNotFound(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, IsNotFound(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsNotFound(nil))
}
