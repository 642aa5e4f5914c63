package testutil

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/google/uuid"
)

// FixedNow is the clock reading fixtures and service tests share.
var FixedNow = time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

// FixedClock returns a clock function that always reads FixedNow.
func FixedClock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// Task options
type TaskOption func(*domain.Task)

func WithDue(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DueDate = &d
	}
}

func WithRecurrence(r domain.RecurrenceType) TaskOption {
	return func(t *domain.Task) {
		t.Recurrence = r
	}
}

func WithParent(id string) TaskOption {
	return func(t *domain.Task) {
		t.ParentTaskID = &id
	}
}

func WithStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithCategory(c domain.Category) TaskOption {
	return func(t *domain.Task) {
		t.Category = c
	}
}

func WithDescription(d string) TaskOption {
	return func(t *domain.Task) {
		t.Description = d
	}
}

// NewTestTask returns a normalized one-time task due at FixedNow unless
// options say otherwise.
func NewTestTask(title string, opts ...TaskOption) *domain.Task {
	due := FixedNow
	t := &domain.Task{
		ID:        uuid.New().String(),
		Title:     title,
		DueDate:   &due,
		CreatedAt: FixedNow,
		UpdatedAt: FixedNow,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Normalize()
	return t
}

// NewTestRoot returns a recurring root anchored at anchor.
func NewTestRoot(title string, anchor time.Time, rule domain.RecurrenceType, opts ...TaskOption) *domain.Task {
	opts = append([]TaskOption{WithDue(anchor), WithRecurrence(rule)}, opts...)
	return NewTestTask(title, opts...)
}

// NewTestInstance returns an instance of parentID due at due.
func NewTestInstance(parentID string, due time.Time, opts ...TaskOption) *domain.Task {
	opts = append([]TaskOption{WithDue(due), WithParent(parentID)}, opts...)
	return NewTestTask("instance", opts...)
}
