package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Migrations are idempotent.
	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))
}

func TestMigrate_CreatesTasksTable(t *testing.T) {
	db := openTestDB(t)

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='tasks'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "tasks", name)
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_tasks_parent",
		"idx_tasks_due",
		"idx_tasks_recurring",
		"idx_tasks_occurrence",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_BackfillsIsRecurring(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO tasks (id, title, recurrence, is_recurring, created_at, updated_at)
		VALUES ('root', 'Root', 'monthly', 0, '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tasks (id, title, recurrence, is_recurring, parent_task_id, created_at, updated_at)
		VALUES ('inst', 'Inst', 'weekly', 1, 'root', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	var rec string
	var recurring int
	require.NoError(t, db.QueryRow(`SELECT recurrence, is_recurring FROM tasks WHERE id = 'root'`).Scan(&rec, &recurring))
	assert.Equal(t, "monthly", rec)
	assert.Equal(t, 1, recurring)

	require.NoError(t, db.QueryRow(`SELECT recurrence, is_recurring FROM tasks WHERE id = 'inst'`).Scan(&rec, &recurring))
	assert.Equal(t, "none", rec)
	assert.Equal(t, 0, recurring)
}

func TestMigrate_DuplicateOccurrenceRejected(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO tasks (id, title, recurrence, is_recurring, created_at, updated_at)
		VALUES ('root', 'Root', 'weekly', 1, '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	insert := `INSERT INTO tasks (id, title, due_date, parent_task_id, created_at, updated_at)
		VALUES (?, 'Inst', '2024-01-08T09:00:00Z', 'root', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`
	_, err = db.Exec(insert, "a")
	require.NoError(t, err)
	_, err = db.Exec(insert, "b")
	assert.Error(t, err, "second instance on the same occurrence must violate the unique index")
}

func TestMigrate_DeletingRootCascades(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec(`INSERT INTO tasks (id, title, recurrence, is_recurring, created_at, updated_at)
		VALUES ('root', 'Root', 'weekly', 1, '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO tasks (id, title, due_date, parent_task_id, created_at, updated_at)
		VALUES ('inst', 'Inst', '2024-01-08T09:00:00Z', 'root', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM tasks WHERE id = 'root'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrate_RejectsUnknownEnumValues(t *testing.T) {
	db := openTestDB(t)

	insert := `INSERT INTO tasks (id, title, status, priority, category, recurrence, created_at, updated_at)
		VALUES (?, 'Task', ?, ?, ?, ?, '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`

	_, err := db.Exec(insert, "ok", "planned", "medium", "meeting", "monthly")
	require.NoError(t, err)

	tests := []struct {
		name                                   string
		status, priority, category, recurrence string
	}{
		{"status", "blocked", "medium", "general", "none"},
		{"priority", "planned", "critical", "general", "none"},
		{"category", "planned", "medium", "errand", "none"},
		{"recurrence", "planned", "medium", "general", "daily"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Exec(insert, "bad-"+tt.name, tt.status, tt.priority, tt.category, tt.recurrence)
			assert.Error(t, err)
		})
	}
}
