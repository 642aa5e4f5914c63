package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillIsRecurring(db); err != nil {
		return fmt.Errorf("backfilling is_recurring: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		due_date       TEXT,
		status         TEXT NOT NULL DEFAULT 'planned'
		               CHECK(status IN ('planned','in_progress','done','cancelled')),
		priority       TEXT NOT NULL DEFAULT 'medium'
		               CHECK(priority IN ('low','medium','high','urgent')),
		category       TEXT NOT NULL DEFAULT 'general'
		               CHECK(category IN ('general','document','meeting','deadline','personal')),
		completed      INTEGER NOT NULL DEFAULT 0,
		recurrence     TEXT NOT NULL DEFAULT 'none'
		               CHECK(recurrence IN ('none','weekly','monthly','quarterly','yearly')),
		is_recurring   INTEGER NOT NULL DEFAULT 0,
		parent_task_id TEXT REFERENCES tasks(id) ON DELETE CASCADE,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_recurring ON tasks(is_recurring) WHERE is_recurring = 1`,

	// One instance per occurrence of a root.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_occurrence
		ON tasks(parent_task_id, due_date) WHERE parent_task_id IS NOT NULL`,

	`ALTER TABLE tasks ADD COLUMN completed_at TEXT`,
}

// migrateBackfillIsRecurring re-derives is_recurring from recurrence for rows
// written before the two were kept in sync, and clears recurrence on
// generated instances. Idempotent: rows already consistent are untouched.
func migrateBackfillIsRecurring(db *sql.DB) error {
	ctx := context.Background()

	if _, err := db.ExecContext(ctx,
		`UPDATE tasks SET recurrence = 'none'
		 WHERE parent_task_id IS NOT NULL AND recurrence != 'none'`); err != nil {
		return fmt.Errorf("clearing recurrence on instances: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`UPDATE tasks SET is_recurring = CASE
			WHEN recurrence IN ('weekly','monthly','quarterly','yearly') THEN 1 ELSE 0 END
		 WHERE is_recurring != CASE
			WHEN recurrence IN ('weekly','monthly','quarterly','yearly') THEN 1 ELSE 0 END`); err != nil {
		return fmt.Errorf("updating is_recurring: %w", err)
	}
	return nil
}
