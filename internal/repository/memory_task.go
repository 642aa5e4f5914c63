package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/recurrence"
)

// MemoryTaskRepo implements TaskRepo over a map. It enforces the same
// constraints as the SQLite schema: unique IDs, instances must reference an
// existing task, one instance per occurrence, and deleting a task deletes
// its instances. Tasks are cloned on the way in and out.
type MemoryTaskRepo struct {
	mu     sync.RWMutex
	tasks  map[string]*domain.Task
	writes int
}

// NewMemoryTaskRepo returns a repo seeded with tasks.
func NewMemoryTaskRepo(tasks ...*domain.Task) *MemoryTaskRepo {
	r := &MemoryTaskRepo{tasks: make(map[string]*domain.Task, len(tasks))}
	for _, t := range tasks {
		r.tasks[t.ID] = t.Clone()
	}
	return r
}

// Snapshot returns a copy of every task, ordered like List.
func (r *MemoryTaskRepo) Snapshot() []*domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(*domain.Task) bool { return true })
}

// Writes returns how many mutating calls have succeeded since the repo was
// created.
func (r *MemoryTaskRepo) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writes
}

// Len returns the number of stored tasks.
func (r *MemoryTaskRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (r *MemoryTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return fmt.Errorf("inserting task %s: %w", t.ID, ErrConflict)
	}
	if err := r.checkLink(t); err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	r.tasks[t.ID] = t.Clone()
	r.writes++
	return nil
}

func (r *MemoryTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task: %w", ErrNotFound)
	}
	return t.Clone(), nil
}

func (r *MemoryTaskRepo) List(_ context.Context, f TaskFilter) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(f.Match), nil
}

func (r *MemoryTaskRepo) ListByParent(_ context.Context, parentID string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(t *domain.Task) bool { return t.Parent() == parentID }), nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	if err := r.checkLink(t); err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	r.tasks[t.ID] = t.Clone()
	r.writes++
	return nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	delete(r.tasks, id)
	r.deleteChildren(id)
	r.writes++
	return nil
}

func (r *MemoryTaskRepo) DeleteByParent(_ context.Context, parentID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.deleteChildren(parentID)
	if n > 0 {
		r.writes++
	}
	return n, nil
}

func (r *MemoryTaskRepo) deleteChildren(parentID string) int {
	n := 0
	for id, t := range r.tasks {
		if t.Parent() == parentID {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}

// checkLink enforces the parent reference and occurrence uniqueness for an
// instance. Caller holds the write lock.
func (r *MemoryTaskRepo) checkLink(t *domain.Task) error {
	if !t.IsInstance() {
		return nil
	}
	if _, ok := r.tasks[t.Parent()]; !ok {
		return fmt.Errorf("parent %s: %w", t.Parent(), ErrNotFound)
	}
	if t.DueDate == nil {
		return nil
	}
	key := recurrence.OccurrenceKey(*t.DueDate)
	for id, other := range r.tasks {
		if id == t.ID || other.Parent() != t.Parent() || other.DueDate == nil {
			continue
		}
		if recurrence.OccurrenceKey(*other.DueDate) == key {
			return fmt.Errorf("occurrence %s of %s: %w", key, t.Parent(), ErrConflict)
		}
	}
	return nil
}

func (r *MemoryTaskRepo) collect(keep func(*domain.Task) bool) []*domain.Task {
	out := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	sortByDue(out, func(t *domain.Task) (*time.Time, string) { return t.DueDate, t.ID })
	return out
}

// MemoryTaskUnitOfWork runs each transaction against a copy of the stored
// tasks and swaps the copy in only when fn succeeds.
type MemoryTaskUnitOfWork struct {
	mu   sync.Mutex
	repo *MemoryTaskRepo
}

func NewMemoryTaskUnitOfWork(tasks ...*domain.Task) *MemoryTaskUnitOfWork {
	return &MemoryTaskUnitOfWork{repo: NewMemoryTaskRepo(tasks...)}
}

// Repo returns the committed state. Reads through it see only committed
// transactions.
func (u *MemoryTaskUnitOfWork) Repo() *MemoryTaskRepo {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.repo
}

func (u *MemoryTaskUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tasks TaskRepo) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	work := NewMemoryTaskRepo(u.repo.Snapshot()...)
	if err := fn(ctx, work); err != nil {
		return err
	}
	if work.Writes() > 0 {
		u.repo = work
	}
	return nil
}
