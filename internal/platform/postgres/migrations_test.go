package postgres

import (
	"context"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	content, err := fs.ReadFile(migrationsFS, "migrations/00001_create_tasks.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- +goose Up")
	assert.Contains(t, string(content), "-- +goose Down")
	assert.Contains(t, string(content), "WHERE status <> 'done'")
}

func TestRunMigrations_UnknownCommand(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	err = RunMigrations(context.Background(), db, "sideways", nil)
	assert.ErrorIs(t, err, ErrUnknownMigrationCommand)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement runs for an unknown command")
}

func TestMigrationCommands(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"up", "down", "reset", "status", "version"},
		MigrationCommands())
}
