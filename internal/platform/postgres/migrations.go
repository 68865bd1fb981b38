package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

// MigrationTableName is the goose version table.
const MigrationTableName = "schema_migrations"

// Supported migration commands.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateReset   = "reset"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// ErrUnknownMigrationCommand is returned for a command outside the supported set.
var ErrUnknownMigrationCommand = errors.New("unknown migration command")

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its dialect, table and filesystem in package globals.
var gooseMu sync.Mutex

// MigrationCommands lists the commands RunMigrations accepts.
func MigrationCommands() []string {
	return []string{MigrateUp, MigrateDown, MigrateReset, MigrateStatus, MigrateVersion}
}

// RunMigrations applies command to db using the SQL migrations embedded in
// this package. A nil logger falls back to slog.Default().
func RunMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("command", command),
	)

	if !isMigrationCommand(command) {
		return fmt.Errorf("%w: %s (expected one of %v)", ErrUnknownMigrationCommand, command, MigrationCommands())
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	before := currentVersion(ctx, db, log)
	start := time.Now()

	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, db, "migrations")
	case MigrateDown:
		err = goose.DownContext(ctx, db, "migrations")
	case MigrateReset:
		err = goose.ResetContext(ctx, db, "migrations")
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, "migrations")
	case MigrateVersion:
		err = goose.VersionContext(ctx, db, "migrations")
	}

	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	after := currentVersion(ctx, db, log)
	log.Info("migration command completed",
		slog.Int64("previous_version", before),
		slog.Int64("version", after),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

func isMigrationCommand(command string) bool {
	for _, c := range MigrationCommands() {
		if c == command {
			return true
		}
	}
	return false
}

// currentVersion reports the applied schema version, or -1 when it cannot be read.
func currentVersion(ctx context.Context, db *sql.DB, log *slog.Logger) int64 {
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		log.Debug("could not read schema version", slog.String("error", err.Error()))
		return -1
	}
	return version
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress output at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level. It does not exit; the failing goose call
// returns an error to the caller instead.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
