package importer

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/google/uuid"
)

// Convert transforms a validated ImportSchema into normalized tasks ready for
// persistence, in file order. Instances of recurring tasks are not included.
// Due dates without an offset are read in loc.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema, now time.Time, loc *time.Location) ([]*domain.Task, error) {
	var defPriority domain.Priority
	var defCategory domain.Category
	if d := schema.Defaults; d != nil {
		if d.Priority != "" {
			p, err := domain.ParsePriority(d.Priority)
			if err != nil {
				return nil, fmt.Errorf("defaults: %w", err)
			}
			defPriority = p
		}
		if d.Category != "" {
			c, err := domain.ParseCategory(d.Category)
			if err != nil {
				return nil, fmt.Errorf("defaults: %w", err)
			}
			defCategory = c
		}
	}

	tasks := make([]*domain.Task, 0, len(schema.Tasks))
	for i, in := range schema.Tasks {
		t := &domain.Task{
			ID:          uuid.New().String(),
			Title:       in.Title,
			Description: in.Description,
			Priority:    defPriority,
			Category:    defCategory,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		var err error
		if t.Recurrence, err = domain.ParseRecurrenceType(in.Recurrence); err != nil {
			return nil, fmt.Errorf("tasks[%d]: %w", i, err)
		}
		if in.DueDate != "" {
			due, err := ParseDueDate(in.DueDate, loc)
			if err != nil {
				return nil, fmt.Errorf("tasks[%d]: %w", i, err)
			}
			t.DueDate = &due
		}
		if in.Priority != "" {
			if t.Priority, err = domain.ParsePriority(in.Priority); err != nil {
				return nil, fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}
		if in.Category != "" {
			if t.Category, err = domain.ParseCategory(in.Category); err != nil {
				return nil, fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}
		if in.Status != "" {
			if t.Status, err = domain.ParseTaskStatus(in.Status); err != nil {
				return nil, fmt.Errorf("tasks[%d]: %w", i, err)
			}
		}

		t.Normalize()
		if t.Completed {
			completed := now
			t.CompletedAt = &completed
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
