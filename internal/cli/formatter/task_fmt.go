package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const titleWidth = 40

// upcomingLimit caps how many instances the detail view lists.
const upcomingLimit = 5

// TaskDetailData holds everything the task detail card shows.
type TaskDetailData struct {
	Task *domain.Task
	// Parent is set when Task is a generated instance.
	Parent *domain.Task
	// Instances is set when Task is a recurring root.
	Instances []*domain.Task
	Now       time.Time
	Loc       *time.Location
}

func dueCell(t *domain.Task, now time.Time, loc *time.Location) (string, string) {
	if t.DueDate == nil {
		return Dim("--"), Dim("--")
	}
	due := t.DueDate.In(loc)
	rel := RelativeDateStyled(due, now.In(loc))
	if t.Completed || t.Status == domain.TaskCancelled {
		rel = Dim(RelativeDateFrom(due, now.In(loc)))
	}
	return StyleFg.Render(due.Format("2006-01-02 15:04")), rel
}

// FormatTaskList renders tasks as a table inside a bordered box.
func FormatTaskList(tasks []*domain.Task, now time.Time, loc *time.Location) string {
	loc = locOrUTC(loc)
	cols := Cols("ID", "TITLE", "DUE", "WHEN", "STATUS", "PRIORITY", "CATEGORY", "REPEAT")
	rows := make([][]string, 0, len(tasks))

	for _, t := range tasks {
		due, rel := dueCell(t, now, loc)
		title := Truncate(t.Title, titleWidth)
		if t.Completed {
			title = Dim(title)
		} else {
			title = Bold(title)
		}
		rows = append(rows, []string{
			TruncID(t.ID),
			title,
			due,
			rel,
			StatusPill(t.Status),
			PriorityBadge(t.Priority),
			CategoryBadge(t.Category),
			RecurrenceBadge(t),
		})
	}

	table := RenderTable(cols, rows)
	footer := Dim(Plural(len(tasks), "task"))
	return RenderBox("Tasks", table+"\n\n"+footer)
}

// FormatTaskDetail renders a single task with its lineage.
func FormatTaskDetail(data TaskDetailData) string {
	t := data.Task
	data.Loc = locOrUTC(data.Loc)
	var b strings.Builder

	b.WriteString(StyleBold.Render(t.Title) + "\n")
	b.WriteString(RecurrenceBadge(t) + "\n\n")

	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-9s", label)), value))
	}

	field("ID", StyleFg.Render(t.ID))
	field("STATUS", StatusPill(t.Status))
	field("PRIORITY", PriorityBadge(t.Priority))
	field("CATEGORY", CategoryBadge(t.Category))
	if t.DueDate != nil {
		due := t.DueDate.In(data.Loc)
		field("DUE", fmt.Sprintf("%s %s", StyleFg.Render(HumanDateTime(due)), Dim("("+RelativeDateFrom(due, data.Now.In(data.Loc))+")")))
	} else {
		field("DUE", Dim("--"))
	}
	if t.CompletedAt != nil {
		field("DONE AT", StyleFg.Render(HumanDateTime(t.CompletedAt.In(data.Loc))))
	}
	if data.Parent != nil {
		field("ROOT", fmt.Sprintf("%s %s", Bold(data.Parent.Title), TruncID(data.Parent.ID)))
	} else if t.IsInstance() {
		field("ROOT", TruncID(t.Parent()))
	}
	field("CREATED", StyleFg.Render(HumanDateTime(t.CreatedAt.In(data.Loc))))
	field("UPDATED", StyleFg.Render(HumanDateTime(t.UpdatedAt.In(data.Loc))))

	if strings.TrimSpace(t.Description) != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(60).Render(StyleFg.Render(t.Description)) + "\n")
	}

	if t.IsRoot() {
		b.WriteString("\n" + formatUpcoming(data.Instances, data.Now, data.Loc))
	}

	return RenderBox("", strings.TrimRight(b.String(), "\n"))
}

func formatUpcoming(instances []*domain.Task, now time.Time, loc *time.Location) string {
	var b strings.Builder
	open := 0
	var upcoming []*domain.Task
	for _, inst := range instances {
		if inst.Completed || inst.Status == domain.TaskCancelled {
			continue
		}
		open++
		if inst.DueDate != nil && !inst.DueDate.Before(now) && len(upcoming) < upcomingLimit {
			upcoming = append(upcoming, inst)
		}
	}

	b.WriteString(Header("Occurrences") + "\n")
	b.WriteString(Dim(fmt.Sprintf("%s, %d open", Plural(len(instances), "instance"), open)) + "\n")
	if len(upcoming) == 0 {
		b.WriteString(Dim("No upcoming occurrences") + "\n")
		return b.String()
	}
	for _, inst := range upcoming {
		due := inst.DueDate.In(loc)
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			StyleFg.Render(HumanDate(due)),
			RelativeDateStyled(due, now.In(loc)),
			TruncID(inst.ID)))
	}
	return b.String()
}

// FormatCascade summarizes a write and the instance changes it caused.
func FormatCascade(verb string, t *domain.Task, added, deleted int) string {
	line := fmt.Sprintf("%s %s %s", verb, Bold(t.Title), TruncID(t.ID))
	var parts []string
	if added > 0 {
		parts = append(parts, StyleGreen.Render(fmt.Sprintf("+%s", Plural(added, "instance"))))
	}
	if deleted > 0 {
		parts = append(parts, StyleRed.Render(fmt.Sprintf("-%s", Plural(deleted, "instance"))))
	}
	if len(parts) > 0 {
		line += " " + Dim("(") + strings.Join(parts, Dim(", ")) + Dim(")")
	}
	return line
}

// FormatPreview lists the occurrences a rule would produce from anchor.
func FormatPreview(anchor time.Time, rule domain.RecurrenceType, dates []time.Time, loc *time.Location) string {
	loc = locOrUTC(loc)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s %s\n\n",
		StyleGreen.Render("↻ "+Label(rule)),
		Dim("from"),
		StyleFg.Render(HumanDateTime(anchor.In(loc)))))
	if len(dates) == 0 {
		b.WriteString(Dim("No occurrences within the horizon"))
		return RenderBox("Preview", b.String())
	}

	rows := make([][]string, 0, len(dates))
	for i, d := range dates {
		local := d.In(loc)
		rows = append(rows, []string{
			Dim(fmt.Sprintf("%d", i+1)),
			StyleFg.Render(local.Format("2006-01-02 15:04")),
			StyleFg.Render(local.Format("Mon")),
		})
	}
	cols := []Column{{Title: "#", Align: lipgloss.Right}, {Title: "DATE"}, {Title: "DAY"}}
	b.WriteString(RenderTable(cols, rows))
	b.WriteString("\n\n" + Dim(Plural(len(dates), "occurrence")))
	return RenderBox("Preview", b.String())
}

// FormatCalendar renders a Monday-first month grid with per-day task counts,
// followed by the tasks of that month grouped by day.
func FormatCalendar(year int, month time.Month, tasks []*domain.Task, now time.Time, loc *time.Location) string {
	loc = locOrUTC(loc)
	byDay := make(map[int][]*domain.Task)
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due := t.DueDate.In(loc)
		if due.Year() != year || due.Month() != month {
			continue
		}
		byDay[due.Day()] = append(byDay[due.Day()], t)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1).Day()
	offset := (int(first.Weekday()) + 6) % 7
	today := now.In(loc)

	const cellWidth = 6
	var b strings.Builder
	for _, wd := range []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"} {
		b.WriteString(StyleHeader.Render(fmt.Sprintf("%-*s", cellWidth, wd)))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", offset*cellWidth))

	for day := 1; day <= last; day++ {
		text := fmt.Sprintf("%2d", day)
		if n := len(byDay[day]); n > 0 {
			text += fmt.Sprintf("·%d", n)
		}
		cell := fmt.Sprintf("%-*s", cellWidth, text)
		switch {
		case today.Year() == year && today.Month() == month && today.Day() == day:
			cell = StyleGreen.Bold(true).Render(cell)
		case len(byDay[day]) > 0:
			cell = StyleYellow.Render(cell)
		default:
			cell = StyleDim.Render(cell)
		}
		b.WriteString(cell)
		if (offset+day)%7 == 0 && day != last {
			b.WriteString("\n")
		}
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	b.WriteString("\n\n")
	if len(days) == 0 {
		b.WriteString(Dim("Nothing due this month"))
	}
	for _, d := range days {
		b.WriteString(Bold(fmt.Sprintf("%s %d", month.String()[:3], d)) + "\n")
		for _, t := range byDay[d] {
			marker := "○"
			if t.Completed {
				marker = "✔"
			}
			b.WriteString(fmt.Sprintf("  %s %s  %s %s\n",
				Dim(marker),
				StyleFg.Render(t.DueDate.In(loc).Format("15:04")),
				Truncate(t.Title, titleWidth),
				TruncID(t.ID)))
		}
	}

	return RenderBox(fmt.Sprintf("%s %d", month, year), strings.TrimRight(b.String(), "\n"))
}
