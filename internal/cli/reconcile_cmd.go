package cli

import (
	"fmt"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newReconcileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Generate instances missing up to the rolling horizon",
		Long: `Reconcile brings every recurring task's instances up to the rolling
horizon. Listing tasks does this on the fly; this command runs the same pass
on its own, e.g. from cron.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := app.Tasks.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			if added == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("All recurring tasks are up to date."))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", formatter.Plural(added, "instance"))
			return nil
		},
	}
}
