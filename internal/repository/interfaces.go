package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup by ID matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would duplicate a task ID or a
	// second instance of the same occurrence of a root.
	ErrConflict = errors.New("conflict")
)

// TaskFilter narrows List. The zero value matches every task.
type TaskFilter struct {
	// DueFrom and DueTo bound DueDate inclusively. Tasks without a due date
	// are excluded when either bound is set.
	DueFrom *time.Time
	DueTo   *time.Time

	// RootsOnly drops generated instances.
	RootsOnly bool

	// ParentID keeps only the instances of one root.
	ParentID string

	// HideCompleted drops done tasks.
	HideCompleted bool
}

// IsZero reports whether f matches every task.
func (f TaskFilter) IsZero() bool {
	return f.DueFrom == nil && f.DueTo == nil && !f.RootsOnly && f.ParentID == "" && !f.HideCompleted
}

// Match applies f to a single task.
func (f TaskFilter) Match(t *domain.Task) bool {
	if f.RootsOnly && t.IsInstance() {
		return false
	}
	if f.ParentID != "" && t.Parent() != f.ParentID {
		return false
	}
	if f.HideCompleted && t.Completed {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.DueDate == nil {
			return false
		}
		if f.DueFrom != nil && t.DueDate.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.DueDate.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// TaskRepo persists tasks. List returns tasks ordered by due date (tasks
// without one last), then ID.
type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
	ListByParent(ctx context.Context, parentID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
	DeleteByParent(ctx context.Context, parentID string) (int, error)
}

// TaskUnitOfWork runs fn against a TaskRepo whose writes are committed
// together when fn returns nil and discarded otherwise.
type TaskUnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tasks TaskRepo) error) error
}
