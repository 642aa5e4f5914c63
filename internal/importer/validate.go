package importer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	if schema.Defaults != nil {
		if schema.Defaults.Priority != "" {
			if _, err := domain.ParsePriority(schema.Defaults.Priority); err != nil {
				errs = append(errs, fmt.Errorf("defaults.priority: %w", err))
			}
		}
		if schema.Defaults.Category != "" {
			if _, err := domain.ParseCategory(schema.Defaults.Category); err != nil {
				errs = append(errs, fmt.Errorf("defaults.category: %w", err))
			}
		}
	}

	if len(schema.Tasks) == 0 {
		errs = append(errs, fmt.Errorf("tasks: at least one task is required"))
	}
	for i := range schema.Tasks {
		errs = append(errs, validateTask(fmt.Sprintf("tasks[%d]", i), &schema.Tasks[i])...)
	}
	return errs
}

func validateTask(prefix string, t *TaskImport) []error {
	var errs []error

	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s.%s: failed %s", prefix, strings.ToLower(fe.Field()), fe.Tag()))
			}
		} else {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}

	rule, err := domain.ParseRecurrenceType(t.Recurrence)
	if err != nil {
		errs = append(errs, fmt.Errorf("%s.recurrence: %w", prefix, err))
	}
	if t.DueDate != "" {
		if _, err := ParseDueDate(t.DueDate, nil); err != nil {
			errs = append(errs, fmt.Errorf("%s.due_date: %w", prefix, err))
		}
	} else if rule.Recurs() {
		errs = append(errs, fmt.Errorf("%s.due_date is required for a %s task", prefix, rule))
	}
	if t.Priority != "" {
		if _, err := domain.ParsePriority(t.Priority); err != nil {
			errs = append(errs, fmt.Errorf("%s.priority: %w", prefix, err))
		}
	}
	if t.Category != "" {
		if _, err := domain.ParseCategory(t.Category); err != nil {
			errs = append(errs, fmt.Errorf("%s.category: %w", prefix, err))
		}
	}
	if t.Status != "" {
		if _, err := domain.ParseTaskStatus(t.Status); err != nil {
			errs = append(errs, fmt.Errorf("%s.status: %w", prefix, err))
		}
	}
	return errs
}
