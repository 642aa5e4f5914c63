package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidTransition is returned when a lifecycle method is called on a
// task whose status does not allow it.
var ErrInvalidTransition = errors.New("invalid status transition")

// Task is the unit tracked by the system. A task with no ParentTaskID is a
// recurrence root; a task with ParentTaskID set is a generated instance.
type Task struct {
	ID          string `validate:"required"`
	Title       string `validate:"required,max=255"`
	Description string `validate:"max=4000"`

	// DueDate is the anchor (first occurrence) for recurring roots.
	DueDate *time.Time

	Status      TaskStatus `validate:"oneof=planned in_progress done cancelled"`
	Priority    Priority   `validate:"oneof=low medium high urgent"`
	Category    Category   `validate:"oneof=general document meeting deadline personal"`
	Completed   bool
	CompletedAt *time.Time

	Recurrence   RecurrenceType `validate:"oneof=none weekly monthly quarterly yearly"`
	IsRecurring  bool
	ParentTaskID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

var validate = validator.New()

// IsInstance reports whether the task was generated from a recurring root.
func (t *Task) IsInstance() bool {
	return t.ParentTaskID != nil && *t.ParentTaskID != ""
}

// IsRoot reports whether the task is a recurring root.
func (t *Task) IsRoot() bool {
	return !t.IsInstance() && t.IsRecurring
}

// Normalize brings derived fields in line with the fields they depend on.
// Every write path calls it before persisting; IsRecurring is never set
// anywhere else.
func (t *Task) Normalize() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = TaskPlanned
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Category == "" {
		t.Category = CategoryGeneral
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceNone
	}
	if t.ParentTaskID != nil && *t.ParentTaskID == "" {
		t.ParentTaskID = nil
	}
	if t.IsInstance() {
		t.Recurrence = RecurrenceNone
	}
	t.IsRecurring = t.Recurrence.Recurs()

	t.Completed = t.Status == TaskDone
	if !t.Completed {
		t.CompletedAt = nil
	}
}

// Validate checks field constraints. Recurring roots must carry a due date
// since it anchors the occurrence sequence.
func (t *Task) Validate() error {
	var msgs []string
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating task: %w", err)
		}
		for _, e := range verrs {
			msgs = append(msgs, fieldMessage(e))
		}
	}
	if t.Recurrence.Recurs() && t.DueDate == nil {
		msgs = append(msgs, "due date is required for a recurring task")
	}
	if len(msgs) > 0 {
		return fmt.Errorf("invalid task: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func fieldMessage(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", field, e.Value(), e.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, e.Tag())
	}
}

// MarkDone transitions the task to done. Calling it on a done task is a
// no-op that keeps the original CompletedAt.
func (t *Task) MarkDone(now time.Time) error {
	switch t.Status {
	case TaskDone:
		return nil
	case TaskCancelled:
		return fmt.Errorf("cannot complete cancelled task: %w", ErrInvalidTransition)
	}
	t.Status = TaskDone
	t.Completed = true
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// MarkInProgress transitions a planned task to in_progress.
func (t *Task) MarkInProgress(now time.Time) error {
	switch t.Status {
	case TaskInProgress:
		return nil
	case TaskPlanned:
		t.Status = TaskInProgress
		t.UpdatedAt = now
		return nil
	default:
		return fmt.Errorf("cannot start %s task: %w", t.Status, ErrInvalidTransition)
	}
}

// Reopen moves a done or cancelled task back to planned.
func (t *Task) Reopen(now time.Time) error {
	if t.Status != TaskDone && t.Status != TaskCancelled {
		return fmt.Errorf("cannot reopen %s task: %w", t.Status, ErrInvalidTransition)
	}
	t.Status = TaskPlanned
	t.Completed = false
	t.CompletedAt = nil
	t.UpdatedAt = now
	return nil
}

// Cancel marks the task cancelled unless it is already done.
func (t *Task) Cancel(now time.Time) error {
	if t.Status == TaskDone {
		return fmt.Errorf("cannot cancel done task: %w", ErrInvalidTransition)
	}
	t.Status = TaskCancelled
	t.Completed = false
	t.CompletedAt = nil
	t.UpdatedAt = now
	return nil
}

// Clone returns a deep copy, including pointer fields.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.CompletedAt != nil {
		d := *t.CompletedAt
		c.CompletedAt = &d
	}
	if t.ParentTaskID != nil {
		p := *t.ParentTaskID
		c.ParentTaskID = &p
	}
	return &c
}

// Parent returns the parent task ID, or "" for roots and one-time tasks.
func (t *Task) Parent() string {
	if t.ParentTaskID == nil {
		return ""
	}
	return *t.ParentTaskID
}
