package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/handbook/internal/api"
	"github.com/alexanderramin/handbook/internal/config"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Catalog is the store surface used by CLI commands. *catalog.Store
// satisfies it.
type Catalog interface {
	api.Catalog
	Snapshot() (domain.Aggregate, error)
	RestoreRevision(ctx context.Context, revision int64) error
}

// App holds everything CLI commands depend on.
type App struct {
	Catalog Catalog

	// Interactive reports whether stdin is a terminal. Destructive commands
	// ask through Confirm when it is, and require --yes otherwise.
	Interactive bool
	Confirm     func(title, description string) (bool, error)

	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
	Addr     string

	// Config is the effective configuration; ConfigPath is where
	// "config init" writes it.
	Config     config.Config
	ConfigPath string

	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}

// NewRootCmd creates the top-level "handbook" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "handbook",
		Short:         "Browse and maintain the work-process handbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newDeptCmd(app),
		newCategoryCmd(app),
		newProcessCmd(app),
		newTreeCmd(app),
		newSearchCmd(app),
		newStatsCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newHistoryCmd(app),
		newBrowseCmd(app),
		newServeCmd(app),
		newConfigCmd(app),
	)

	return root
}

var errCancelled = errors.New("cancelled")

// confirm gates destructive commands. It returns errCancelled when the user
// declines.
func confirm(app *App, yes bool, title, description string) error {
	if yes {
		return nil
	}
	if !app.Interactive || app.Confirm == nil {
		return fmt.Errorf("%s: rerun with --yes to confirm", title)
	}
	ok, err := app.Confirm(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

// HuhConfirm asks a yes/no question on the terminal.
func HuhConfirm(title, description string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithShowHelp(false).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// runConfirmed runs fn after confirmation. A declined prompt prints a notice
// and is not an error.
func runConfirmed(cmd *cobra.Command, app *App, yes bool, title, description string, fn func() error) error {
	if err := confirm(app, yes, title, description); err != nil {
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		return err
	}
	return fn()
}
