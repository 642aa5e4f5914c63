package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/spf13/cobra"
)

func newCalendarCmd(app *App) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a month of tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := app.loc()
			now := app.now().In(loc)
			first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
			if month != "" {
				m, err := time.ParseInLocation("2006-01", month, loc)
				if err != nil {
					return fmt.Errorf("invalid month %q (expected YYYY-MM)", month)
				}
				first = m
			}
			last := first.AddDate(0, 1, 0).Add(-time.Nanosecond)

			tasks, err := app.Tasks.List(cmd.Context(), repository.TaskFilter{DueFrom: &first, DueTo: &last})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCalendar(first.Year(), first.Month(), tasks, now, loc))
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show as YYYY-MM (default current month)")

	return cmd
}
