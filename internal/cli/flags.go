package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
	"github.com/spf13/pflag"
)

// enumValue is a pflag.Value that rejects anything parse refuses, so bad
// enum values fail at flag parsing with the allowed set in the message.
type enumValue[T ~string] struct {
	target  *T
	parse   func(string) (T, error)
	allowed []T
	name    string
}

var _ pflag.Value = (*enumValue[domain.Priority])(nil)

func newEnumValue[T ~string](target *T, def T, name string, allowed []T, parse func(string) (T, error)) *enumValue[T] {
	*target = def
	return &enumValue[T]{target: target, parse: parse, allowed: allowed, name: name}
}

func (e *enumValue[T]) String() string {
	if e.target == nil {
		return ""
	}
	return string(*e.target)
}

func (e *enumValue[T]) Set(s string) error {
	v, err := e.parse(s)
	if err != nil {
		return err
	}
	*e.target = v
	return nil
}

func (e *enumValue[T]) Type() string { return e.name }

func (e *enumValue[T]) usage(what string) string {
	vals := make([]string, len(e.allowed))
	for i, v := range e.allowed {
		vals[i] = string(v)
	}
	return fmt.Sprintf("%s (%s)", what, strings.Join(vals, "|"))
}

func recurrenceFlag(fs *pflag.FlagSet, target *domain.RecurrenceType, name string) {
	v := newEnumValue(target, domain.RecurrenceNone, "rule", domain.RecurrenceTypes, domain.ParseRecurrenceType)
	fs.Var(v, name, v.usage("Recurrence rule"))
}

func priorityFlag(fs *pflag.FlagSet, target *domain.Priority) {
	v := newEnumValue(target, domain.PriorityMedium, "priority", domain.Priorities, domain.ParsePriority)
	fs.VarP(v, "priority", "p", v.usage("Priority"))
}

func categoryFlag(fs *pflag.FlagSet, target *domain.Category) {
	v := newEnumValue(target, domain.CategoryGeneral, "category", domain.Categories, domain.ParseCategory)
	fs.VarP(v, "category", "c", v.usage("Category"))
}

func statusFlag(fs *pflag.FlagSet, target *domain.TaskStatus) {
	v := newEnumValue(target, domain.TaskPlanned, "status", domain.TaskStatuses, domain.ParseTaskStatus)
	fs.VarP(v, "status", "s", v.usage("Status"))
}

// dateValue parses due dates in the App's zone.
type dateValue struct {
	target **time.Time
	loc    func() *time.Location
}

func (d *dateValue) String() string {
	if d.target == nil || *d.target == nil {
		return ""
	}
	return (*d.target).Format("2006-01-02 15:04")
}

func (d *dateValue) Set(s string) error {
	if strings.TrimSpace(s) == "" {
		*d.target = nil
		return nil
	}
	t, err := importer.ParseDueDate(s, d.loc())
	if err != nil {
		return err
	}
	*d.target = &t
	return nil
}

func (d *dateValue) Type() string { return "date" }

func dateFlag(fs *pflag.FlagSet, app *App, target **time.Time, name, short, usage string) {
	fs.VarP(&dateValue{target: target, loc: app.loc}, name, short, usage+" (YYYY-MM-DD, YYYY-MM-DD HH:MM or RFC3339)")
}
