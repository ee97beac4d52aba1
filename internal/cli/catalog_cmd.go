package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/alexanderramin/handbook/internal/api"
	"github.com/alexanderramin/handbook/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	var categoriesOnly bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the department > category > process hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := app.Catalog.Tree()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCatalogTree(tree, !categoriesOnly))
			return nil
		},
	}

	cmd.Flags().BoolVar(&categoriesOnly, "categories", false, "Stop at categories")

	return cmd
}

func newSearchCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search processes and categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.Catalog.Search(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSearchResults(args[0], results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count departments, categories and processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Catalog.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStats(st))
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the catalog as JSON to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Catalog.Export()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding export: %w", err)
			}
			data = append(data, '\n')

			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", formatter.FormatStats(doc.Stats()), args[0])
			return nil
		},
	}
}

func newImportCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the catalog with an exported or tabular JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			return runConfirmed(cmd, app, yes, "Replace the whole catalog?", "Every department, category and process is replaced by "+args[0]+".", func() error {
				if err := app.Catalog.ImportJSON(cmd.Context(), data); err != nil {
					return err
				}
				st, err := app.Catalog.Stats()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", formatter.FormatStats(st))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored catalog revisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			revs, err := app.Catalog.History(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(revs, app.now()))
			return nil
		},
	}

	cmd.AddCommand(newHistoryRestoreCmd(app))

	return cmd
}

func newHistoryRestoreCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore REVISION",
		Short: "Replace the catalog with a stored revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || rev <= 0 {
				return fmt.Errorf("invalid revision %q", args[0])
			}
			title := fmt.Sprintf("Restore revision %d?", rev)
			return runConfirmed(cmd, app, yes, title, "The current catalog is kept as an older revision.", func() error {
				if err := app.Catalog.RestoreRevision(cmd.Context(), rev); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored revision %d\n", rev)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Addr
			}
			server := api.NewApp(app.Catalog, api.Options{
				Logger:   app.logger(),
				Gatherer: app.Gatherer,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "Serving handbook API on %s\n", addr)
			return api.Serve(cmd.Context(), server, addr, app.logger())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
