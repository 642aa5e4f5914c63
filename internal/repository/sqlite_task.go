package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, title, description, due_date, status, priority, category,
		completed, completed_at, recurrence, is_recurring, parent_task_id,
		created_at, updated_at`

const taskOrder = ` ORDER BY due_date IS NULL, due_date, id`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo. conn may be the database
// itself or a transaction handed out by db.UnitOfWork.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (id, title, description, due_date, status, priority, category,
		completed, completed_at, recurrence, is_recurring, parent_task_id,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		nullableTimeToString(t.DueDate),
		string(t.Status),
		string(t.Priority),
		string(t.Category),
		boolToInt(t.Completed),
		nullableTimeToString(t.CompletedAt),
		string(t.Recurrence),
		boolToInt(t.IsRecurring),
		nullableString(t.ParentTaskID),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", mapConstraint(err))
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanTask(row)
}

func (r *SQLiteTaskRepo) List(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	var where []string
	var args []any
	if f.RootsOnly {
		where = append(where, "parent_task_id IS NULL")
	}
	if f.ParentID != "" {
		where = append(where, "parent_task_id = ?")
		args = append(args, f.ParentID)
	}
	if f.HideCompleted {
		where = append(where, "completed = 0")
	}
	if f.DueFrom != nil {
		where = append(where, "due_date >= ?")
		args = append(args, formatTime(*f.DueFrom))
	}
	if f.DueTo != nil {
		where = append(where, "due_date <= ?")
		args = append(args, formatTime(*f.DueTo))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += taskOrder

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) ListByParent(ctx context.Context, parentID string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE parent_task_id = ?` + taskOrder
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks by parent: %w", err)
	}
	defer rows.Close()
	return r.scanTasks(rows)
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, due_date = ?, status = ?,
		priority = ?, category = ?, completed = ?, completed_at = ?, recurrence = ?,
		is_recurring = ?, parent_task_id = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Title,
		t.Description,
		nullableTimeToString(t.DueDate),
		string(t.Status),
		string(t.Priority),
		string(t.Category),
		boolToInt(t.Completed),
		nullableTimeToString(t.CompletedAt),
		string(t.Recurrence),
		boolToInt(t.IsRecurring),
		nullableString(t.ParentTaskID),
		formatTime(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", mapConstraint(err))
	}
	return expectOneRow(res, t.ID)
}

// Delete removes a task. The foreign key cascades the delete to any
// instances still linked to it.
func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return expectOneRow(res, id)
}

func (r *SQLiteTaskRepo) DeleteByParent(ctx context.Context, parentID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE parent_task_id = ?`, parentID)
	if err != nil {
		return 0, fmt.Errorf("deleting instances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return int(n), nil
}

// mapConstraint turns a unique constraint violation into ErrConflict so
// callers need not match driver messages.
func mapConstraint(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteTaskRepo) scanTask(row scanner) (*domain.Task, error) {
	var t domain.Task
	var status, priority, category, recurrence string
	var completed, isRecurring int
	var dueDate, completedAt, parentID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &dueDate, &status, &priority, &category,
		&completed, &completedAt, &recurrence, &isRecurring, &parentID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.Priority(priority)
	t.Category = domain.Category(category)
	t.Recurrence = domain.RecurrenceType(recurrence)
	t.Completed = intToBool(completed)
	t.IsRecurring = intToBool(isRecurring)
	t.DueDate = parseNullableTime(dueDate)
	t.CompletedAt = parseNullableTime(completedAt)
	if parentID.Valid && parentID.String != "" {
		p := parentID.String
		t.ParentTaskID = &p
	}

	t.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	t.UpdatedAt, err = time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}

func (r *SQLiteTaskRepo) scanTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// SQLiteTaskUnitOfWork adapts a db.UnitOfWork to TaskUnitOfWork by binding a
// SQLiteTaskRepo to each transaction.
type SQLiteTaskUnitOfWork struct {
	uow db.UnitOfWork
}

func NewSQLiteTaskUnitOfWork(uow db.UnitOfWork) *SQLiteTaskUnitOfWork {
	return &SQLiteTaskUnitOfWork{uow: uow}
}

func (u *SQLiteTaskUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tasks TaskRepo) error) error {
	return u.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, NewSQLiteTaskRepo(tx))
	})
}
