package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/cadence/internal/repository"
)

// resolveTaskID accepts a full task ID or a unique prefix of one, as printed
// by the list view.
func resolveTaskID(ctx context.Context, app *App, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("task ID is required")
	}

	if t, err := app.Tasks.GetByID(ctx, input); err == nil {
		return t.ID, nil
	}

	tasks, err := app.Tasks.List(ctx, repository.TaskFilter{})
	if err != nil {
		return "", err
	}

	var matches []string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, input) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("task %q: %w", input, repository.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
