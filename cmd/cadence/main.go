package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alexanderramin/cadence/internal/cli"
	"github.com/alexanderramin/cadence/internal/config"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/filestore"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFlag(args)})
	if err != nil {
		return err
	}

	uow, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []service.Option{service.WithPolicy(cfg.Policy())}
	if cfg.Log.UseCases {
		opts = append(opts, service.WithObserver(service.NewLogUseCaseObserver(os.Stderr, cfg.Log.Format)))
	}

	app := &cli.App{
		Tasks: service.NewTaskService(uow, opts...),
		Loc:   cfg.Location(),
		Color: isTerminal(os.Stdout),
	}

	rootCmd := cli.NewRootCmd(app)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// configFlag pulls --config out of args before the command tree exists,
// since the tree is built from the loaded configuration.
func configFlag(args []string) string {
	fs := pflag.NewFlagSet("cadence", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	path := fs.String("config", "", "")
	_ = fs.Parse(args)
	return *path
}

// openStore returns the unit of work for the configured backend and a func
// releasing it.
func openStore(cfg config.StoreConfig) (repository.TaskUnitOfWork, func() error, error) {
	switch cfg.Backend {
	case "file":
		var format filestore.Format
		if cfg.Format != "" {
			f, err := filestore.ParseFormat(cfg.Format)
			if err != nil {
				return nil, nil, err
			}
			format = f
		}
		return filestore.NewOs(cfg.Path, format), func() error { return nil }, nil
	case "sqlite", "":
		database, err := db.OpenDB(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		uow := repository.NewSQLiteTaskUnitOfWork(db.NewSQLiteUnitOfWork(database))
		return uow, database.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func isTerminal(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
