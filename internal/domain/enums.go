package domain

import (
	"fmt"
	"strings"
)

type TaskStatus string

const (
	TaskPlanned    TaskStatus = "planned"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryDocument Category = "document"
	CategoryMeeting  Category = "meeting"
	CategoryDeadline Category = "deadline"
	CategoryPersonal Category = "personal"
)

// RecurrenceType defines whether and how a task repeats.
type RecurrenceType string

const (
	RecurrenceNone      RecurrenceType = "none"
	RecurrenceWeekly    RecurrenceType = "weekly"
	RecurrenceMonthly   RecurrenceType = "monthly"
	RecurrenceQuarterly RecurrenceType = "quarterly"
	RecurrenceYearly    RecurrenceType = "yearly"
)

// TaskStatuses is the canonical ordered set of task statuses.
var TaskStatuses = []TaskStatus{TaskPlanned, TaskInProgress, TaskDone, TaskCancelled}

// Priorities is the canonical ordered set of priorities, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Categories is the canonical ordered set of task categories.
var Categories = []Category{CategoryGeneral, CategoryDocument, CategoryMeeting, CategoryDeadline, CategoryPersonal}

// RecurrenceTypes is the canonical ordered set of recurrence types.
var RecurrenceTypes = []RecurrenceType{RecurrenceNone, RecurrenceWeekly, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly}

// Recurs reports whether r produces occurrences. Unknown values never recur.
func (r RecurrenceType) Recurs() bool {
	switch r {
	case RecurrenceWeekly, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
		return true
	case RecurrenceNone:
		return false
	default:
		return false
	}
}

func (r RecurrenceType) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceYearly:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPlanned, TaskInProgress, TaskDone, TaskCancelled:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryDocument, CategoryMeeting, CategoryDeadline, CategoryPersonal:
		return true
	}
	return false
}

// ParseRecurrenceType accepts the canonical names plus "one-time" and the
// empty string as aliases for none.
func ParseRecurrenceType(s string) (RecurrenceType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "one-time", "once":
		return RecurrenceNone, nil
	}
	r := RecurrenceType(v)
	if !r.Valid() {
		return "", fmt.Errorf("unknown recurrence type %q (expected one of %s)", s, joinValues(RecurrenceTypes))
	}
	return r, nil
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	v := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown status %q (expected one of %s)", s, joinValues(TaskStatuses))
	}
	return v, nil
}

func ParsePriority(s string) (Priority, error) {
	v := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown priority %q (expected one of %s)", s, joinValues(Priorities))
	}
	return v, nil
}

func ParseCategory(s string) (Category, error) {
	v := Category(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown category %q (expected one of %s)", s, joinValues(Categories))
	}
	return v, nil
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
