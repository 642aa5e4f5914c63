package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
	"github.com/alexanderramin/cadence/internal/repository"
)

// ErrInstanceRecurrence is returned when an update would give a generated
// instance its own recurrence rule.
var ErrInstanceRecurrence = errors.New("a generated instance cannot recur; edit its root instead")

// TaskService is the task store. Reads bring generated instances up to the
// rolling horizon before returning; writes to a recurring root apply the
// instance cascade in the same transaction as the root.
type TaskService interface {
	Create(ctx context.Context, t *domain.Task) (*CascadeResult, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, f repository.TaskFilter) ([]*domain.Task, error)
	Instances(ctx context.Context, rootID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) (*CascadeResult, error)
	Delete(ctx context.Context, id string) (*CascadeResult, error)
	Start(ctx context.Context, id string) (*domain.Task, error)
	Complete(ctx context.Context, id string) (*domain.Task, error)
	Cancel(ctx context.Context, id string) (*domain.Task, error)
	Reopen(ctx context.Context, id string) (*domain.Task, error)
	Reconcile(ctx context.Context) (int, error)
	Preview(anchor time.Time, rule domain.RecurrenceType) []time.Time
	Import(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
	ImportFile(ctx context.Context, path string) (*ImportResult, error)
}

// CascadeResult reports the instance changes a write caused.
type CascadeResult struct {
	Task    *domain.Task
	Added   int
	Deleted int
}

// ImportResult holds the outcome of a task import.
type ImportResult struct {
	Tasks         []*domain.Task
	InstanceCount int
}
