package formatter

import (
	"strings"

	"github.com/alexanderramin/cadence/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Label turns a stored enum value into display text: "in_progress" becomes
// "In Progress".
func Label[T ~string](v T) string {
	if v == "" {
		return "--"
	}
	return titleCaser.String(strings.ReplaceAll(string(v), "_", " "))
}

// StatusPill returns a colored status indicator for a task status.
func StatusPill(status domain.TaskStatus) string {
	switch status {
	case domain.TaskPlanned:
		return StyleBlue.Render("○ " + Label(status))
	case domain.TaskInProgress:
		return StyleGreen.Render("● " + Label(status))
	case domain.TaskDone:
		return StyleDim.Render("✔ " + Label(status))
	case domain.TaskCancelled:
		return StyleDim.Render("✖ " + Label(status))
	default:
		return StyleDim.Render(string(status))
	}
}

// PriorityBadge renders a priority in its urgency color.
func PriorityBadge(p domain.Priority) string {
	return PriorityColor(p).Render(Label(p))
}

// CategoryBadge renders a category label in purple.
func CategoryBadge(c domain.Category) string {
	return StylePurple.Render(Label(c))
}

// RecurrenceBadge describes how a task repeats. Instances show the arrow
// marker instead of a rule since they never recur themselves.
func RecurrenceBadge(t *domain.Task) string {
	switch {
	case t.IsInstance():
		return StyleDim.Render("↳ instance")
	case t.IsRecurring:
		return StyleGreen.Render("↻ " + Label(t.Recurrence))
	default:
		return Dim("One-time")
	}
}
