package users

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

func TestPGUserAdministration(t *testing.T) {
	pool := dbtest.Pool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	ann := dbtest.InsertUser(t, pool, uuid.NewString(), "ann")
	dbtest.InsertUser(t, pool, uuid.NewString(), "bert")

	updated, err := repo.UpdateRole(ctx, ann, auth.RoleInterviewer)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleInterviewer, updated.Role)

	items, total, err := repo.List(ctx, ListFilters{Role: auth.RoleInterviewer})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "ann", items[0].Username)

	_, total, err = repo.List(ctx, ListFilters{Search: "BER"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	require.NoError(t, repo.Delete(ctx, ann))
	_, err = repo.Get(ctx, ann)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ann), shared.ErrNotFound)
}
