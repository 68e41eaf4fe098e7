package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/platform/db/dbtest"
	"github.com/mockround/mockround/internal/shared"
)

func TestPGSessionListScopesByOwner(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, pool, uuid.NewString(), "nora")
	interviewer := dbtest.InsertUser(t, pool, uuid.NewString(), "ivan")
	start := time.Now().UTC().Truncate(time.Second)

	mine, err := repo.Create(ctx, Session{
		ID: uuid.NewString(), UserID: owner, InterviewerID: &interviewer,
		Title: "System design", Status: StatusPending, StartTime: start,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Session{
		ID: uuid.NewString(), UserID: interviewer, Title: "Warm-up", Status: StatusPending, StartTime: start,
	})
	require.NoError(t, err)

	items, total, err := repo.List(ctx, ListFilters{UserID: owner})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, mine.ID, items[0].ID)
	require.NotNil(t, items[0].InterviewerID)
	assert.Equal(t, interviewer, *items[0].InterviewerID)

	_, total, err = repo.List(ctx, ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	ghost := uuid.NewString()
	_, err = repo.Create(ctx, Session{
		ID: uuid.NewString(), UserID: owner, InterviewerID: &ghost,
		Title: "Ghost", Status: StatusPending, StartTime: start,
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestPGQuestionsBelongToSession(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, pool, uuid.NewString(), "quinn")
	session, err := repo.Create(ctx, Session{
		ID: uuid.NewString(), UserID: owner, Title: "Arrays", Status: StatusPending, StartTime: time.Now().UTC(),
	})
	require.NoError(t, err)

	q, err := repo.CreateQuestion(ctx, Question{ID: uuid.NewString(), SessionID: session.ID, Prompt: "Reverse a list"})
	require.NoError(t, err)
	q.SubmittedAnswer = "two pointers"
	answered, err := repo.UpdateQuestion(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "two pointers", answered.SubmittedAnswer)

	missing := uuid.NewString()
	_, err = repo.CreateQuestion(ctx, Question{ID: uuid.NewString(), SessionID: session.ID, ProblemID: &missing, Prompt: "?"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, repo.Delete(ctx, session.ID))
	_, err = repo.GetQuestion(ctx, q.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
