package cli

import (
	"time"

	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and environment used by CLI commands.
type App struct {
	Tasks service.TaskService

	// Now is the reference time for relative dates and the default calendar
	// month. Defaults to time.Now.
	Now func() time.Time
	// Loc is the zone dates are parsed and displayed in. Defaults to time.Local.
	Loc *time.Location
	// Color enables styled output; --no-color overrides it.
	Color bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) loc() *time.Location {
	if a.Loc != nil {
		return a.Loc
	}
	return time.Local
}

// NewRootCmd creates the top-level "cadence" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:           "cadence",
		Short:         "Recurring task tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			formatter.SetColor(app.Color && !noColor)
		},
	}

	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")
	// Read by main before the command tree is built; declared here so it
	// shows in help and parses cleanly.
	root.PersistentFlags().String("config", "", "Config file (default ~/.cadence/config.yaml)")

	root.AddCommand(
		newTaskCmd(app),
		newReconcileCmd(app),
		newCalendarCmd(app),
	)

	return root
}
