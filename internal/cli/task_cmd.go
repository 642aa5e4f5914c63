package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskShowCmd(app),
		newTaskUpdateCmd(app),
		newTaskStartCmd(app),
		newTaskDoneCmd(app),
		newTaskCancelCmd(app),
		newTaskReopenCmd(app),
		newTaskRemoveCmd(app),
		newTaskPreviewCmd(app),
		newTaskImportCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var (
		title, description string
		due                *time.Time
		rule               domain.RecurrenceType
		priority           domain.Priority
		category           domain.Category
		status             domain.TaskStatus
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task; recurring tasks generate their instances immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rule.Recurs() && due == nil {
				return fmt.Errorf("a recurring task needs --due as its first occurrence")
			}
			t := &domain.Task{
				Title:       title,
				Description: description,
				DueDate:     due,
				Status:      status,
				Priority:    priority,
				Category:    category,
				Recurrence:  rule,
			}
			res, err := app.Tasks.Create(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCascade("Created", res.Task, res.Added, res.Deleted))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&title, "title", "t", "", "Task title")
	fs.StringVarP(&description, "description", "d", "", "Task description")
	dateFlag(fs, app, &due, "due", "", "Due date; the anchor for recurring tasks")
	recurrenceFlag(fs, &rule, "repeat")
	priorityFlag(fs, &priority)
	categoryFlag(fs, &category)
	statusFlag(fs, &status)
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var (
		from, to *time.Time
		roots    bool
		parent   string
		hideDone bool
		limit    int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, generating any instances missing up to the horizon",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := repository.TaskFilter{
				DueFrom:       from,
				DueTo:         to,
				RootsOnly:     roots,
				HideCompleted: hideDone,
			}
			if parent != "" {
				id, err := resolveTaskID(ctx, app, parent)
				if err != nil {
					return err
				}
				f.ParentID = id
			}

			tasks, err := app.Tasks.List(ctx, f)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			if limit > 0 && len(tasks) > limit {
				tasks = tasks[:limit]
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskList(tasks, app.now(), app.loc()))
			return nil
		},
	}

	fs := cmd.Flags()
	dateFlag(fs, app, &from, "from", "", "Only tasks due at or after")
	dateFlag(fs, app, &to, "to", "", "Only tasks due at or before")
	fs.BoolVar(&roots, "roots", false, "Hide generated instances")
	fs.StringVar(&parent, "parent", "", "Only instances of this recurring task")
	fs.BoolVar(&hideDone, "hide-done", false, "Hide completed tasks")
	fs.IntVarP(&limit, "limit", "n", 0, "Show at most this many tasks")

	return cmd
}

func newTaskShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveTaskID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.GetByID(ctx, id)
			if err != nil {
				return err
			}

			data := formatter.TaskDetailData{Task: t, Now: app.now(), Loc: app.loc()}
			switch {
			case t.IsInstance():
				parent, err := app.Tasks.GetByID(ctx, t.Parent())
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				data.Parent = parent
			case t.IsRoot():
				data.Instances, err = app.Tasks.Instances(ctx, t.ID)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskDetail(data))
			return nil
		},
	}
}

func newTaskUpdateCmd(app *App) *cobra.Command {
	var (
		title, description string
		due                *time.Time
		rule               domain.RecurrenceType
		priority           domain.Priority
		category           domain.Category
		status             domain.TaskStatus
		clearDue           bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a task; changing a rule or due date regenerates its instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveTaskID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.GetByID(ctx, id)
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			if changed("title") {
				t.Title = title
			}
			if changed("description") {
				t.Description = description
			}
			if changed("due") {
				t.DueDate = due
			}
			if clearDue {
				t.DueDate = nil
			}
			if changed("repeat") {
				t.Recurrence = rule
			}
			if changed("priority") {
				t.Priority = priority
			}
			if changed("category") {
				t.Category = category
			}
			if changed("status") {
				t.Status = status
			}

			res, err := app.Tasks.Update(ctx, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCascade("Updated", res.Task, res.Added, res.Deleted))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&title, "title", "t", "", "New title")
	fs.StringVarP(&description, "description", "d", "", "New description")
	dateFlag(fs, app, &due, "due", "", "New due date")
	fs.BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	recurrenceFlag(fs, &rule, "repeat")
	priorityFlag(fs, &priority)
	categoryFlag(fs, &category)
	statusFlag(fs, &status)
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")

	return cmd
}

func newTaskStartCmd(app *App) *cobra.Command {
	return newTransitionCmd(app, "start ID", "Move a planned task to in progress", "Started", service.TaskService.Start)
}

func newTaskDoneCmd(app *App) *cobra.Command {
	return newTransitionCmd(app, "done ID", "Mark a task done", "Completed", service.TaskService.Complete)
}

func newTaskCancelCmd(app *App) *cobra.Command {
	return newTransitionCmd(app, "cancel ID", "Cancel a task that is not done", "Cancelled", service.TaskService.Cancel)
}

func newTaskReopenCmd(app *App) *cobra.Command {
	return newTransitionCmd(app, "reopen ID", "Move a done or cancelled task back to planned", "Reopened", service.TaskService.Reopen)
}

// newTransitionCmd builds a one-argument command that applies a status
// transition and reports the task with verb.
func newTransitionCmd(app *App, use, short, verb string, apply func(service.TaskService, context.Context, string) (*domain.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveTaskID(ctx, app, args[0])
			if err != nil {
				return err
			}
			t, err := apply(app.Tasks, ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, formatter.Bold(t.Title), formatter.TruncID(t.ID))
			return nil
		},
	}
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a task; deleting a recurring task deletes its instances",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveTaskID(ctx, app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Tasks.Delete(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCascade("Deleted", res.Task, 0, res.Deleted))
			return nil
		},
	}
}

func newTaskPreviewCmd(app *App) *cobra.Command {
	var (
		anchor *time.Time
		rule   domain.RecurrenceType
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the occurrences a rule would generate, without saving anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.now()
			if anchor != nil {
				a = *anchor
			}
			dates := app.Tasks.Preview(a, rule)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatPreview(a, rule, dates, app.loc()))
			return nil
		},
	}

	fs := cmd.Flags()
	dateFlag(fs, app, &anchor, "due", "", "First occurrence (default now)")
	recurrenceFlag(fs, &rule, "repeat")
	_ = cmd.MarkFlagRequired("repeat")

	return cmd
}

func newTaskImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import tasks from a JSON or YAML file in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Tasks.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %s (%s generated)\n",
				formatter.Plural(len(res.Tasks), "task"),
				formatter.Plural(res.InstanceCount, "instance"))
			for _, t := range res.Tasks {
				fmt.Fprintf(out, "  %s %s  %s\n", formatter.TruncID(t.ID), t.Title, formatter.RecurrenceBadge(t))
			}
			return nil
		},
	}
}
