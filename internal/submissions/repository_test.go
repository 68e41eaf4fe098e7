package submissions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/platform/db/dbtest"
	"github.com/mockround/mockround/internal/shared"
)

func TestPGSubmissionDetailsJoinProblemAndAuthor(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	author := dbtest.InsertUser(t, pool, uuid.NewString(), "sam")
	other := dbtest.InsertUser(t, pool, uuid.NewString(), "tia")
	problemID := dbtest.InsertProblem(t, pool, uuid.NewString(), author, true)

	created, err := repo.Create(ctx, Submission{
		ID: uuid.NewString(), UserID: author, ProblemID: problemID,
		Language: "go", Code: "package main", Status: StatusPending, TimeSpent: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sam", got.Username)
	assert.Equal(t, "problem "+problemID[:8], got.ProblemTitle)
	assert.Equal(t, 12, got.TimeSpent)

	dbtest.InsertSubmission(t, pool, uuid.NewString(), other, problemID)

	items, total, err := repo.List(ctx, ListFilters{UserID: author})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "sam", items[0].Username)

	_, total, err = repo.List(ctx, ListFilters{ProblemID: problemID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	graded := created
	graded.Status = StatusAccepted
	graded.Score = 95
	updated, err := repo.Update(ctx, graded)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, updated.Status)

	_, total, err = repo.List(ctx, ListFilters{Status: StatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPGSubmissionWritesMapMissingReferences(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	author := dbtest.InsertUser(t, pool, uuid.NewString(), "uma")

	_, err := repo.Create(ctx, Submission{
		ID: uuid.NewString(), UserID: author, ProblemID: uuid.NewString(),
		Language: "go", Code: "package main", Status: StatusPending,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = repo.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.NewString()), shared.ErrNotFound)
}
