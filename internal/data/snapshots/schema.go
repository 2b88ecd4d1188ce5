package snapshots

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the newest migration this build understands. Migrations
// are numbered from 1 without gaps.
const SchemaVersion = 2

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  ts_utc TEXT NOT NULL,
  entry_output TEXT NOT NULL DEFAULT '',
  output_count INTEGER NOT NULL DEFAULT 0,
  initial_bytes INTEGER NOT NULL DEFAULT 0,
  lazy_bytes INTEGER NOT NULL DEFAULT 0,
  raw_size INTEGER NOT NULL,
  payload BLOB NOT NULL,
  created_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_utc);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE snapshots ADD COLUMN input_count INTEGER NOT NULL DEFAULT 0;
CREATE INDEX IF NOT EXISTS idx_snapshots_name ON snapshots(name);
`,
	},
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS snapshot_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);`

// EnsureSchema brings db up to SchemaVersion. A database written by a newer
// build is rejected rather than downgraded.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var applied int
	row := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM snapshot_migrations`)
	if err := row.Scan(&applied); err != nil {
		return fmt.Errorf("read applied schema version: %w", err)
	}
	if applied > SchemaVersion {
		return fmt.Errorf("snapshot database is at schema %d, this build supports up to %d", applied, SchemaVersion)
	}

	for _, m := range migrations[applied:] {
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.sql); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO snapshot_migrations(version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}
