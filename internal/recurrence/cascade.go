package recurrence

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Delta is the change a store must apply atomically to bring the instances
// of a root in line with its definition. Deletes are applied before creates.
type Delta struct {
	Create []*domain.Task
	Delete []string
	// Series, when set, names the root whose every instance is listed in
	// Delete. The only other ID Delete may then hold is Series itself.
	Series string
}

// Empty reports whether applying d would change nothing.
func (d Delta) Empty() bool {
	return len(d.Create) == 0 && len(d.Delete) == 0
}

// Singles returns the IDs in Delete that dropping the Series instances does
// not cover.
func (d Delta) Singles() []string {
	if d.Series == "" {
		return d.Delete
	}
	for _, id := range d.Delete {
		if id == d.Series {
			return []string{id}
		}
	}
	return nil
}

// PlanCreate returns the instances to persist alongside a newly created root.
func PlanCreate(root *domain.Task, now time.Time, newID IDFunc, p Policy) Delta {
	if !root.IsRecurring || root.IsInstance() {
		return Delta{}
	}
	return Delta{Create: Materialize(root, now, newID, p)}
}

// DefinitionChanged reports whether the recurrence rule or the anchor
// differs between before and after.
func DefinitionChanged(before, after *domain.Task) bool {
	if before.Recurrence != after.Recurrence || before.IsRecurring != after.IsRecurring {
		return true
	}
	switch {
	case before.DueDate == nil && after.DueDate == nil:
		return false
	case before.DueDate == nil || after.DueDate == nil:
		return true
	default:
		return !before.DueDate.Equal(*after.DueDate)
	}
}

// PlanUpdate returns the cascade for an edit of a root from before to after.
// instances are the tasks currently linked to the root.
//
//   - recurring -> recurring with a new rule or anchor: drop every instance
//     and regenerate the full sequence.
//   - recurring -> one-time: drop every instance.
//   - one-time -> recurring: generate the full sequence, dropping any
//     leftovers first.
//   - anything else (descriptive edits): no change.
func PlanUpdate(before, after *domain.Task, instances []*domain.Task, now time.Time, newID IDFunc, p Policy) Delta {
	if after.IsInstance() {
		return Delta{}
	}
	wasRecurring := before.IsRecurring
	isRecurring := after.IsRecurring

	switch {
	case wasRecurring && isRecurring:
		if !DefinitionChanged(before, after) {
			return Delta{}
		}
		return Delta{Delete: ids(instances), Series: series(after, instances), Create: Materialize(after, now, newID, p)}
	case wasRecurring && !isRecurring:
		return Delta{Delete: ids(instances), Series: series(after, instances)}
	case !wasRecurring && isRecurring:
		return Delta{Delete: ids(instances), Series: series(after, instances), Create: Materialize(after, now, newID, p)}
	default:
		return Delta{}
	}
}

// PlanDelete returns the cascade for deleting root: every instance linked to
// it, then the root itself.
func PlanDelete(root *domain.Task, instances []*domain.Task) Delta {
	del := make([]string, 0, len(instances)+1)
	del = append(del, ids(instances)...)
	del = append(del, root.ID)
	return Delta{Delete: del, Series: series(root, instances)}
}

// series returns root's ID when instances are all linked to it.
func series(root *domain.Task, instances []*domain.Task) string {
	if len(instances) == 0 {
		return ""
	}
	for _, inst := range instances {
		if inst.Parent() != root.ID {
			return ""
		}
	}
	return root.ID
}

func ids(tasks []*domain.Task) []string {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
