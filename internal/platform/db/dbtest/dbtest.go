// Package dbtest starts a disposable PostgreSQL for integration tests.
// Tests using it are skipped unless TEST_INTEGRATION is set.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mockround/mockround/internal/platform/db"
)

// Pool starts a migrated PostgreSQL container and returns a pool connected to it.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("mockround_test"),
		postgres.WithUsername("mockround"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := db.Migrate(dsn, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// InsertUser stores a bare user row and returns its id.
func InsertUser(t *testing.T, pool *pgxpool.Pool, id, username string) string {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, username, email, password_hash, role) VALUES ($1, $2, $3, 'x', 'user')`,
		id, username, username+"@example.com")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

// InsertProblem stores an Easy problem created by creatorID and returns its id.
func InsertProblem(t *testing.T, pool *pgxpool.Pool, id, creatorID string, approved bool) string {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO problems (id, title, difficulty, creator_id, approved) VALUES ($1, $2, 'Easy', $3, $4)`,
		id, "problem "+id[:8], creatorID, approved)
	if err != nil {
		t.Fatalf("insert problem: %v", err)
	}
	return id
}

// InsertSubmission stores a pending submission and returns its id.
func InsertSubmission(t *testing.T, pool *pgxpool.Pool, id, userID, problemID string) string {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO submissions (id, user_id, problem_id, language, code) VALUES ($1, $2, $3, 'go', 'package main')`,
		id, userID, problemID)
	if err != nil {
		t.Fatalf("insert submission: %v", err)
	}
	return id
}
