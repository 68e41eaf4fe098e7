package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/platform/db/dbtest"
)

func TestMigrationsCreateSchema(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	for _, table := range []string{
		"users", "problems", "problem_tags", "interview_sessions",
		"interview_questions", "submissions", "user_stats", "stats_solves", "audit_logs",
	} {
		var exists bool
		err := pool.QueryRow(ctx, `SELECT to_regclass('public.' || $1) IS NOT NULL`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
}

func TestWithTxRollsBackAndMapsErrors(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	id := dbtest.InsertUser(t, pool, uuid.NewString(), "carol")

	boom := errors.New("boom")
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET username = 'renamed' WHERE id = $1`, id); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var username string
	require.NoError(t, pool.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, id).Scan(&username))
	assert.Equal(t, "carol", username)

	_, err = pool.Exec(ctx, `INSERT INTO users (id, username, email, password_hash) VALUES ($1, 'carol', 'other@example.com', 'x')`, uuid.NewString())
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.Equal(t, "users_username_key", db.ConstraintName(err))

	_, err = pool.Exec(ctx, `INSERT INTO user_stats (user_id) VALUES ($1)`, uuid.NewString())
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	id := dbtest.InsertUser(t, pool, uuid.NewString(), "dora")

	assert.Panics(t, func() {
		_ = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `UPDATE users SET username = 'renamed' WHERE id = $1`, id); err != nil {
				return err
			}
			panic("boom")
		})
	})

	var username string
	require.NoError(t, pool.QueryRow(ctx, `SELECT username FROM users WHERE id = $1`, id).Scan(&username))
	assert.Equal(t, "dora", username)
}
