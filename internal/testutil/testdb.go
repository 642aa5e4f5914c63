package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewTestTaskUoW creates a TaskUnitOfWork over a fresh in-memory database and
// returns the database too, for direct assertions.
func NewTestTaskUoW(t *testing.T) (repository.TaskUnitOfWork, *sql.DB) {
	t.Helper()
	database := NewTestDB(t)
	return repository.NewSQLiteTaskUnitOfWork(NewTestUoW(database)), database
}

// CountTasks returns the number of rows in tasks, optionally limited to the
// instances of parentID.
func CountTasks(t *testing.T, database *sql.DB, parentID string) int {
	t.Helper()
	var n int
	var err error
	if parentID == "" {
		err = database.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n)
	} else {
		err = database.QueryRow(`SELECT COUNT(*) FROM tasks WHERE parent_task_id = ?`, parentID).Scan(&n)
	}
	if err != nil {
		t.Fatalf("counting tasks: %v", err)
	}
	return n
}
