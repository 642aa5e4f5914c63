package recurrence

import (
	"testing"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// applyDelta mimics a store applying d: the series, then single deletes,
// then creates.
func applyDelta(tasks []*domain.Task, d Delta) []*domain.Task {
	drop := make(map[string]bool, len(d.Delete))
	for _, id := range d.Singles() {
		drop[id] = true
	}
	var out []*domain.Task
	for _, t := range tasks {
		if drop[t.ID] || (d.Series != "" && t.Parent() == d.Series) {
			continue
		}
		out = append(out, t)
	}
	return append(out, d.Create...)
}

func instancesOf(tasks []*domain.Task, rootID string) []*domain.Task {
	return GroupInstances(tasks)[rootID]
}

func TestPlanCreate(t *testing.T) {
	now := date(2024, 1, 31, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceMonthly)

	d := PlanCreate(root, now, seqIDs(), DefaultPolicy())
	assert.Empty(t, d.Delete)
	assert.Len(t, d.Create, 36)

	oneTime := &domain.Task{ID: "once", DueDate: &now}
	oneTime.Normalize()
	assert.True(t, PlanCreate(oneTime, now, seqIDs(), DefaultPolicy()).Empty())
}

func TestPlanUpdate_RuleChangeReplacesAllInstances(t *testing.T) {
	now := date(2024, 1, 31, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceWeekly)
	ids := seqIDs()
	tasks := append([]*domain.Task{root}, PlanCreate(root, now, ids, DefaultPolicy()).Create...)
	oldIDs := make(map[string]bool)
	for _, inst := range instancesOf(tasks, root.ID) {
		oldIDs[inst.ID] = true
	}
	require.Len(t, oldIDs, 156)

	after := root.Clone()
	after.Recurrence = domain.RecurrenceMonthly
	after.Normalize()

	d := PlanUpdate(root, after, instancesOf(tasks, root.ID), now, ids, DefaultPolicy())
	assert.Len(t, d.Delete, 156)
	tasks = applyDelta(tasks, d)

	remaining := instancesOf(tasks, root.ID)
	require.Len(t, remaining, 36)
	want := Sequence(after, now, DefaultPolicy())
	got := make(map[string]bool)
	for _, inst := range remaining {
		assert.False(t, oldIDs[inst.ID], "weekly instance %s survived the rule change", inst.ID)
		got[OccurrenceKey(*inst.DueDate)] = true
	}
	for _, due := range want {
		assert.True(t, got[OccurrenceKey(due)], "missing monthly occurrence %s", due)
	}
}

func TestPlanUpdate_AnchorChangeRegenerates(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceMonthly)
	instances := PlanCreate(root, now, seqIDs(), DefaultPolicy()).Create

	after := root.Clone()
	moved := now.AddDate(0, 0, 14)
	after.DueDate = &moved

	d := PlanUpdate(root, after, instances, now, seqIDs(), DefaultPolicy())
	assert.Len(t, d.Delete, len(instances))
	require.NotEmpty(t, d.Create)
	assert.Equal(t, date(2024, 2, 15, 9, 0), *d.Create[0].DueDate)
}

func TestPlanUpdate_StopRecurring(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceQuarterly)
	instances := PlanCreate(root, now, seqIDs(), DefaultPolicy()).Create

	after := root.Clone()
	after.Recurrence = domain.RecurrenceNone
	after.Normalize()

	d := PlanUpdate(root, after, instances, now, seqIDs(), DefaultPolicy())
	assert.Len(t, d.Delete, len(instances))
	assert.Equal(t, root.ID, d.Series)
	assert.Empty(t, d.Singles())
	assert.Empty(t, d.Create)
}

func TestPlanUpdate_StartRecurring(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	before := &domain.Task{ID: "t-1", Title: "Board meeting", DueDate: &now}
	before.Normalize()

	after := before.Clone()
	after.Recurrence = domain.RecurrenceYearly
	after.Normalize()

	d := PlanUpdate(before, after, nil, now, seqIDs(), DefaultPolicy())
	assert.Empty(t, d.Delete)
	assert.Len(t, d.Create, 3)
	for _, inst := range d.Create {
		assert.Equal(t, "t-1", inst.Parent())
	}
}

func TestPlanUpdate_DescriptiveEditIsNoop(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceWeekly)
	instances := PlanCreate(root, now, seqIDs(), DefaultPolicy()).Create

	after := root.Clone()
	after.Title = "Renamed"
	after.Priority = domain.PriorityLow

	assert.True(t, PlanUpdate(root, after, instances, now, seqIDs(), DefaultPolicy()).Empty())
}

func TestPlanUpdate_OneTimeStaysOneTime(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	before := &domain.Task{ID: "t-1", DueDate: &now}
	before.Normalize()
	after := before.Clone()
	later := now.AddDate(0, 1, 0)
	after.DueDate = &later

	assert.True(t, PlanUpdate(before, after, nil, now, seqIDs(), DefaultPolicy()).Empty())
}

func TestDelta_Singles(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Delta{Delete: []string{"a", "b"}}.Singles())
	assert.Empty(t, Delta{Delete: []string{"i1", "i2"}, Series: "root"}.Singles())
	assert.Equal(t, []string{"root"}, Delta{Delete: []string{"i1", "root"}, Series: "root"}.Singles())
}

func TestPlanDelete_NamesSeries(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceMonthly)
	instances := PlanCreate(root, now, seqIDs(), DefaultPolicy()).Create

	d := PlanDelete(root, instances)
	assert.Equal(t, root.ID, d.Series)
	assert.Len(t, d.Delete, len(instances)+1)

	oneTime := newRoot("single", now, domain.RecurrenceNone)
	d = PlanDelete(oneTime, nil)
	assert.Empty(t, d.Series)
	assert.Equal(t, []string{"single"}, d.Singles())
}

func TestPlanDelete_CascadesToInstances(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	root := newRoot("root-1", now, domain.RecurrenceMonthly)
	other := newRoot("root-2", now, domain.RecurrenceYearly)
	ids := seqIDs()

	tasks := []*domain.Task{root, other}
	tasks = append(tasks, Reconcile(tasks, now, ids, DefaultPolicy())...)

	d := PlanDelete(root, instancesOf(tasks, root.ID))
	assert.Empty(t, d.Create)
	assert.Contains(t, d.Delete, root.ID)

	tasks = applyDelta(tasks, d)
	for _, task := range tasks {
		assert.NotEqual(t, root.ID, task.ID)
		assert.NotEqual(t, root.ID, task.Parent(), "orphaned instance %s", task.ID)
	}
	assert.Len(t, instancesOf(tasks, other.ID), 3, "other roots are untouched")
}

func TestDefinitionChanged(t *testing.T) {
	now := date(2024, 1, 1, 9, 0)
	a := newRoot("r", now, domain.RecurrenceWeekly)

	b := a.Clone()
	assert.False(t, DefinitionChanged(a, b))

	sameInstant := now.In(date(2024, 1, 1, 0, 0).Location())
	b.DueDate = &sameInstant
	assert.False(t, DefinitionChanged(a, b))

	b.DueDate = nil
	assert.True(t, DefinitionChanged(a, b))
}
