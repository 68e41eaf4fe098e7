package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@host:5432/db?sslmode=disable", MigrationURL("postgres://u:p@host:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@host/db", MigrationURL("postgresql://u@host/db"))
	assert.Equal(t, "pgx5://already", MigrationURL("pgx5://already"))
}
