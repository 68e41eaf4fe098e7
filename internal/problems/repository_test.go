package problems

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/platform/db/dbtest"
	"github.com/mockround/mockround/internal/shared"
)

func TestPGAddTagMapsUniqueViolationToDuplicate(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, pool, uuid.NewString(), "owen")
	problemID := dbtest.InsertProblem(t, pool, uuid.NewString(), owner, true)

	tag, err := repo.AddTag(ctx, problemID, "dp")
	require.NoError(t, err)
	assert.Equal(t, problemID, tag.ProblemID)

	_, err = repo.AddTag(ctx, problemID, "dp")
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = repo.AddTag(ctx, uuid.NewString(), "dp")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	svc := NewService(repo, nil, nil)
	_, err = svc.AddTag(ctx, auth.Identity{ID: owner, Role: auth.RoleAdmin}, problemID, "  DP ")
	assert.ErrorIs(t, err, shared.ErrDuplicate)

	p, err := repo.Get(ctx, problemID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dp"}, p.Tags)

	counts, err := repo.TagCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{{Tag: "dp", Count: 1}}, counts)
}

func TestPGListHidesOthersUnapprovedProblems(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	owner := dbtest.InsertUser(t, pool, uuid.NewString(), "olga")
	viewer := dbtest.InsertUser(t, pool, uuid.NewString(), "vince")
	draft := dbtest.InsertProblem(t, pool, uuid.NewString(), owner, false)
	public := dbtest.InsertProblem(t, pool, uuid.NewString(), owner, true)

	items, total, err := repo.List(ctx, ListFilters{ViewerID: viewer})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, public, items[0].ID)

	_, total, err = repo.List(ctx, ListFilters{ViewerID: owner})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = repo.List(ctx, ListFilters{ViewerID: viewer, IncludeUnapproved: true})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	unapproved := false
	items, total, err = repo.List(ctx, ListFilters{ViewerID: owner, Approved: &unapproved})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, draft, items[0].ID)
}

func TestPGCreateWithTagsCommitsTogether(t *testing.T) {
	pool := dbtest.Pool(t)
	svc := NewService(NewRepository(pool), nil, nil)
	ctx := context.Background()
	adminID := dbtest.InsertUser(t, pool, uuid.NewString(), "ada")
	actor := auth.Identity{ID: adminID, Role: auth.RoleAdmin}

	p, err := svc.Create(ctx, actor, CreateProblemRequest{
		Title: "Knapsack", Difficulty: "Medium", Tags: []string{"DP", "arrays"},
	})
	require.NoError(t, err)
	assert.True(t, p.Approved)

	got, err := svc.Get(ctx, actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"arrays", "dp"}, got.Tags)
	assert.Equal(t, adminID, got.Creator())
}
