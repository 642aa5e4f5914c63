package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
	"github.com/alexanderramin/cadence/internal/recurrence"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/google/uuid"
)

type taskService struct {
	uow      repository.TaskUnitOfWork
	policy   recurrence.Policy
	now      func() time.Time
	newID    recurrence.IDFunc
	observer UseCaseObserver

	// mu serializes reconcile and cascade passes within the process.
	mu sync.Mutex
}

// Option configures a TaskService.
type Option func(*taskService)

// WithClock replaces time.Now as the source of "now".
func WithClock(now func() time.Time) Option {
	return func(s *taskService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPolicy sets the generation horizon and initial instance status.
func WithPolicy(p recurrence.Policy) Option {
	return func(s *taskService) { s.policy = p }
}

// WithObserver reports every use case to obs.
func WithObserver(obs UseCaseObserver) Option {
	return func(s *taskService) {
		if obs != nil {
			s.observer = obs
		}
	}
}

// WithIDFunc replaces the uuid allocator.
func WithIDFunc(f recurrence.IDFunc) Option {
	return func(s *taskService) {
		if f != nil {
			s.newID = f
		}
	}
}

func NewTaskService(uow repository.TaskUnitOfWork, opts ...Option) TaskService {
	s := &taskService{
		uow:      uow,
		policy:   recurrence.DefaultPolicy(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskService) Create(ctx context.Context, t *domain.Task) (res *CascadeResult, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "create-task", time.Now(), fields, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if t.ID == "" {
		t.ID = s.newID()
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Normalize()
	if t.Completed && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if err = t.Validate(); err != nil {
		return nil, err
	}
	fields["task_id"] = t.ID

	if t.IsInstance() {
		return nil, fmt.Errorf("creating task: instances are generated from their root")
	}

	delta := recurrence.PlanCreate(t, now, s.newID, s.policy)
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		if err := tasks.Create(ctx, t); err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		return applyDelta(ctx, tasks, delta)
	})
	if err != nil {
		return nil, err
	}
	fields["added"] = len(delta.Create)
	return &CascadeResult{Task: t, Added: len(delta.Create)}, nil
}

func (s *taskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		var err error
		task, err = tasks.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// List reconciles every root against the rolling horizon, then returns the
// tasks matching f. The reconcile writes and the read share a transaction.
func (s *taskService) List(ctx context.Context, f repository.TaskFilter) (out []*domain.Task, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "list-tasks", time.Now(), fields, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		added, err := s.reconcile(ctx, tasks, now)
		if err != nil {
			return err
		}
		fields["added"] = added
		out, err = tasks.List(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["count"] = len(out)
	return out, nil
}

func (s *taskService) Instances(ctx context.Context, rootID string) ([]*domain.Task, error) {
	return s.List(ctx, repository.TaskFilter{ParentID: rootID})
}

// Reconcile runs the lazy regeneration pass on its own and returns the number
// of instances it added.
func (s *taskService) Reconcile(ctx context.Context) (added int, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "reconcile", time.Now(), fields, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		var err error
		added, err = s.reconcile(ctx, tasks, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	fields["added"] = added
	return added, nil
}

// reconcile adds the instances missing from the store. An instance that
// already exists for the same occurrence, written by a competing pass, is
// skipped rather than failing the read.
func (s *taskService) reconcile(ctx context.Context, tasks repository.TaskRepo, now time.Time) (int, error) {
	all, err := tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return 0, fmt.Errorf("loading tasks: %w", err)
	}
	missing := recurrence.Reconcile(all, now, s.newID, s.policy)
	added := 0
	for _, inst := range missing {
		if err := tasks.Create(ctx, inst); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return added, fmt.Errorf("materializing instance of %s: %w", inst.Parent(), err)
		}
		added++
	}
	return added, nil
}

func (s *taskService) Update(ctx context.Context, t *domain.Task) (res *CascadeResult, err error) {
	fields := map[string]any{"task_id": t.ID}
	defer observe(ctx, s.observer, "update-task", time.Now(), fields, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var delta recurrence.Delta
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		before, err := tasks.GetByID(ctx, t.ID)
		if err != nil {
			return err
		}
		if before.IsInstance() && t.Recurrence.Recurs() {
			return ErrInstanceRecurrence
		}

		// Identity and lineage are not editable.
		t.ParentTaskID = before.ParentTaskID
		t.CreatedAt = before.CreatedAt
		t.UpdatedAt = now
		t.Normalize()
		if t.Completed && t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		if err := t.Validate(); err != nil {
			return err
		}

		var instances []*domain.Task
		if !before.IsInstance() {
			instances, err = tasks.ListByParent(ctx, t.ID)
			if err != nil {
				return fmt.Errorf("loading instances: %w", err)
			}
		}
		delta = recurrence.PlanUpdate(before, t, instances, now, s.newID, s.policy)

		if err := tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		return applyDelta(ctx, tasks, delta)
	})
	if err != nil {
		return nil, err
	}
	fields["added"] = len(delta.Create)
	fields["deleted"] = len(delta.Delete)
	return &CascadeResult{Task: t, Added: len(delta.Create), Deleted: len(delta.Delete)}, nil
}

// Delete removes a task. Deleting a root also deletes every instance linked
// to it; deleting an instance leaves its root and siblings alone.
func (s *taskService) Delete(ctx context.Context, id string) (res *CascadeResult, err error) {
	fields := map[string]any{"task_id": id}
	defer observe(ctx, s.observer, "delete-task", time.Now(), fields, &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int
	var task *domain.Task
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		var err error
		task, err = tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		var instances []*domain.Task
		if !task.IsInstance() {
			instances, err = tasks.ListByParent(ctx, id)
			if err != nil {
				return fmt.Errorf("loading instances: %w", err)
			}
		}
		delta := recurrence.PlanDelete(task, instances)
		if err := applyDelta(ctx, tasks, delta); err != nil {
			return err
		}
		deleted = len(delta.Delete) - 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["deleted"] = deleted
	return &CascadeResult{Task: task, Deleted: deleted}, nil
}

func (s *taskService) Start(ctx context.Context, id string) (*domain.Task, error) {
	return s.transition(ctx, "start-task", id, (*domain.Task).MarkInProgress)
}

func (s *taskService) Cancel(ctx context.Context, id string) (*domain.Task, error) {
	return s.transition(ctx, "cancel-task", id, (*domain.Task).Cancel)
}

func (s *taskService) Complete(ctx context.Context, id string) (*domain.Task, error) {
	return s.transition(ctx, "complete-task", id, (*domain.Task).MarkDone)
}

func (s *taskService) Reopen(ctx context.Context, id string) (*domain.Task, error) {
	return s.transition(ctx, "reopen-task", id, (*domain.Task).Reopen)
}

func (s *taskService) transition(ctx context.Context, name, id string, apply func(*domain.Task, time.Time) error) (task *domain.Task, err error) {
	fields := map[string]any{"task_id": id}
	defer observe(ctx, s.observer, name, time.Now(), fields, &err)

	now := s.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		var err error
		task, err = tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(task, now); err != nil {
			return err
		}
		return tasks.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	fields["status"] = string(task.Status)
	return task, nil
}

// Preview returns the occurrences a root anchored at anchor would have today,
// without touching the store.
func (s *taskService) Preview(anchor time.Time, rule domain.RecurrenceType) []time.Time {
	return recurrence.Occurrences(s.policy.InZone(&anchor), rule, s.policy.HorizonEnd(s.now()))
}

func (s *taskService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.Import(ctx, schema)
}

// Import creates every task in schema, with the instances of the recurring
// ones, in a single transaction.
func (s *taskService) Import(ctx context.Context, schema *importer.ImportSchema) (res *ImportResult, err error) {
	fields := map[string]any{}
	defer observe(ctx, s.observer, "import-tasks", time.Now(), fields, &err)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	created, err := importer.Convert(schema, now, s.policy.Zone())
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	instances := 0
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tasks repository.TaskRepo) error {
		for _, t := range created {
			if err := tasks.Create(ctx, t); err != nil {
				return fmt.Errorf("creating task %q: %w", t.Title, err)
			}
			delta := recurrence.PlanCreate(t, now, s.newID, s.policy)
			if err := applyDelta(ctx, tasks, delta); err != nil {
				return err
			}
			instances += len(delta.Create)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["task_count"] = len(created)
	fields["added"] = instances
	return &ImportResult{Tasks: created, InstanceCount: instances}, nil
}

// applyDelta deletes before it creates so that regenerated instances never
// collide with the ones they replace. A whole series goes in one statement.
func applyDelta(ctx context.Context, tasks repository.TaskRepo, d recurrence.Delta) error {
	if d.Series != "" {
		if _, err := tasks.DeleteByParent(ctx, d.Series); err != nil {
			return fmt.Errorf("deleting instances of %s: %w", d.Series, err)
		}
	}
	for _, id := range d.Singles() {
		if err := tasks.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting task %s: %w", id, err)
		}
	}
	for _, t := range d.Create {
		if err := tasks.Create(ctx, t); err != nil {
			return fmt.Errorf("creating instance due %s: %w", recurrence.OccurrenceKey(*t.DueDate), err)
		}
	}
	return nil
}

func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - " + e.Error())
	}
	return errors.New(b.String())
}
