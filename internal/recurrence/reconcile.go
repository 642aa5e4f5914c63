package recurrence

import (
	"sort"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// IDFunc allocates a fresh unique task identifier.
type IDFunc func() string

// NewInstance builds the generated instance of root due at due.
func NewInstance(root *domain.Task, due time.Time, id string, now time.Time, p Policy) *domain.Task {
	parent := root.ID
	d := due
	inst := &domain.Task{
		ID:           id,
		Title:        root.Title,
		Description:  root.Description,
		Category:     root.Category,
		Priority:     root.Priority,
		DueDate:      &d,
		Status:       p.initialStatus(),
		Completed:    false,
		Recurrence:   domain.RecurrenceNone,
		IsRecurring:  false,
		ParentTaskID: &parent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return inst
}

// Materialize builds one instance of root per occurrence in the full target
// sequence.
func Materialize(root *domain.Task, now time.Time, newID IDFunc, p Policy) []*domain.Task {
	seq := Sequence(root, now, p)
	out := make([]*domain.Task, 0, len(seq))
	for _, due := range seq {
		out = append(out, NewInstance(root, due, newID(), now, p))
	}
	return out
}

// GroupInstances indexes tasks by ParentTaskID. Tasks without a parent are
// skipped.
func GroupInstances(tasks []*domain.Task) map[string][]*domain.Task {
	byParent := make(map[string][]*domain.Task)
	for _, t := range tasks {
		if t.IsInstance() {
			byParent[*t.ParentTaskID] = append(byParent[*t.ParentTaskID], t)
		}
	}
	return byParent
}

// NeedsRegeneration reports whether the instance coverage of a root falls
// short of the rolling horizon: there are no instances, or the latest
// instance is due before the horizon end.
func NeedsRegeneration(instances []*domain.Task, horizonEnd time.Time) bool {
	latest, ok := latestDue(instances)
	if !ok {
		return true
	}
	return latest.Before(horizonEnd)
}

func latestDue(instances []*domain.Task) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, inst := range instances {
		if inst.DueDate == nil {
			continue
		}
		if !found || inst.DueDate.After(latest) {
			latest = *inst.DueDate
			found = true
		}
	}
	return latest, found
}

// Reconcile computes the instances missing from tasks. Roots are the
// recurring tasks without a parent; for each root whose coverage needs
// regeneration, occurrences already represented by an instance (by
// OccurrenceKey) are skipped. Existing tasks are never changed and nothing is
// removed, so calling Reconcile on its own output adds nothing.
//
// A root with a missing anchor yields no instances and does not affect the
// other roots.
func Reconcile(tasks []*domain.Task, now time.Time, newID IDFunc, p Policy) []*domain.Task {
	byParent := GroupInstances(tasks)
	horizonEnd := p.HorizonEnd(now)

	roots := make([]*domain.Task, 0)
	for _, t := range tasks {
		if t.IsRecurring && !t.IsInstance() {
			roots = append(roots, t)
		}
	}
	// Stable output order regardless of store ordering.
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	var added []*domain.Task
	for _, root := range roots {
		existing := byParent[root.ID]
		if !NeedsRegeneration(existing, horizonEnd) {
			continue
		}
		seen := make(map[string]bool, len(existing))
		for _, inst := range existing {
			if inst.DueDate != nil {
				seen[OccurrenceKey(*inst.DueDate)] = true
			}
		}
		for _, due := range Occurrences(p.InZone(root.DueDate), root.Recurrence, horizonEnd) {
			key := OccurrenceKey(due)
			if seen[key] {
				continue
			}
			seen[key] = true
			added = append(added, NewInstance(root, due, newID(), now, p))
		}
	}
	return added
}
