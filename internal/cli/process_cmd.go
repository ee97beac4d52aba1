package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/handbook/internal/cli/formatter"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const stepSeparator = "::"

// stepList collects repeated "title::description" flags into numbered steps.
type stepList []domain.Step

var _ pflag.Value = (*stepList)(nil)

func (l *stepList) Set(v string) error {
	title, desc, _ := strings.Cut(v, stepSeparator)
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("step %d: title is required (use \"title%sdescription\")", len(*l)+1, stepSeparator)
	}
	*l = append(*l, domain.Step{
		StepNumber:  len(*l) + 1,
		Title:       title,
		Description: strings.TrimSpace(desc),
	})
	return nil
}

func (l *stepList) String() string {
	titles := make([]string, len(*l))
	for i, st := range *l {
		titles[i] = st.Title
	}
	return "[" + strings.Join(titles, ", ") + "]"
}

func (l *stepList) Type() string { return "title::description" }

// Steps returns the collected steps, never nil.
func (l stepList) Steps() []domain.Step {
	return append([]domain.Step{}, l...)
}

// processPath returns "Department > Category" for p, or "" when either
// parent cannot be read.
func processPath(app *App, p domain.Process) string {
	c, err := app.Catalog.CategoryByID(p.CategoryID)
	if err != nil || c == nil {
		return ""
	}
	d, err := app.Catalog.DepartmentByID(c.DepartmentID)
	if err != nil || d == nil {
		return c.Name
	}
	return d.Name + " > " + c.Name
}

func newProcessCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "process",
		Aliases: []string{"proc"},
		Short:   "Manage work processes",
	}

	cmd.AddCommand(
		newProcessListCmd(app),
		newProcessShowCmd(app),
		newProcessAddCmd(app),
		newProcessUpdateCmd(app),
		newProcessRemoveCmd(app),
	)

	return cmd
}

func newProcessListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list CATEGORY_ID",
		Short: "List the processes of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catID, err := resolveCategoryID(app, args[0])
			if err != nil {
				return err
			}
			procs, err := app.Catalog.ProcessesByCategory(catID)
			if err != nil {
				return err
			}
			if len(procs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No processes.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProcessList(procs))
			return nil
		},
	}
}

func newProcessShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a process with its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProcessID(app, args[0])
			if err != nil {
				return err
			}
			p, err := app.Catalog.ProcessByID(id)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.NotFoundError("process", id)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProcessDetail(*p, processPath(app, *p)))
			return nil
		},
	}
}

// processFlags are the list-valued flags shared by add and update.
type processFlags struct {
	steps      stepList
	legal      []string
	outputs    []string
	references []string
	tags       []string
}

func (f *processFlags) register(cmd *cobra.Command) {
	cmd.Flags().Var(&f.steps, "step", "Step (repeatable, in order)")
	cmd.Flags().StringArrayVar(&f.legal, "legal", nil, "Legal basis (repeatable)")
	cmd.Flags().StringArrayVar(&f.outputs, "output", nil, "Output document (repeatable)")
	cmd.Flags().StringArrayVar(&f.references, "reference", nil, "Reference (repeatable)")
	cmd.Flags().StringArrayVar(&f.tags, "tag", nil, "Search tag (repeatable)")
}

func newProcessAddCmd(app *App) *cobra.Command {
	var in domain.ProcessInput
	var cat string
	var order int
	var lists processFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catID, err := resolveCategoryID(app, cat)
			if err != nil {
				return err
			}
			in.CategoryID = catID
			in.Steps = lists.steps.Steps()
			in.LegalBasis = lists.legal
			in.Outputs = lists.outputs
			in.References = lists.references
			in.Tags = lists.tags
			if cmd.Flags().Changed("order") {
				in.Order = &order
			}

			p, err := app.Catalog.AddProcess(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created process %s [%s]\n", p.Title, formatter.ShortID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&cat, "category", "", "Owning category ID")
	cmd.Flags().StringVar(&in.Title, "title", "", "Process title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Content, "content", "", "Free-form content")
	cmd.Flags().IntVar(&order, "order", 0, "Display position (default: after existing processes)")
	lists.register(cmd)
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newProcessUpdateCmd(app *App) *cobra.Command {
	var title, cat, description, content string
	var order int
	var lists processFlags
	var clearLists []string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a process",
		Long: `Update a process. List flags replace the whole list when given;
--clear empties a list (step, legal, output, reference or tag).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProcessID(app, args[0])
			if err != nil {
				return err
			}

			var patch domain.ProcessPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("category") {
				catID, err := resolveCategoryID(app, cat)
				if err != nil {
					return err
				}
				patch.CategoryID = &catID
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("order") {
				patch.Order = &order
			}
			if flags.Changed("step") {
				patch.Steps = lists.steps.Steps()
			}
			if flags.Changed("legal") {
				patch.LegalBasis = lists.legal
			}
			if flags.Changed("output") {
				patch.Outputs = lists.outputs
			}
			if flags.Changed("reference") {
				patch.References = lists.references
			}
			if flags.Changed("tag") {
				patch.Tags = lists.tags
			}
			for _, field := range clearLists {
				switch field {
				case "step", "steps":
					patch.Steps = []domain.Step{}
				case "legal":
					patch.LegalBasis = []string{}
				case "output", "outputs":
					patch.Outputs = []string{}
				case "reference", "references":
					patch.References = []string{}
				case "tag", "tags":
					patch.Tags = []string{}
				default:
					return fmt.Errorf("--clear: unknown list %q", field)
				}
			}

			p, err := app.Catalog.UpdateProcess(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated process %s [%s]\n", p.Title, formatter.ShortID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Process title")
	cmd.Flags().StringVar(&cat, "category", "", "Move to this category")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&content, "content", "", "Free-form content")
	cmd.Flags().IntVar(&order, "order", 0, "Display position")
	cmd.Flags().StringSliceVar(&clearLists, "clear", nil, "Lists to empty")
	lists.register(cmd)

	return cmd
}

func newProcessRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProcessID(app, args[0])
			if err != nil {
				return err
			}
			p, err := app.Catalog.ProcessByID(id)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.NotFoundError("process", id)
			}
			title := fmt.Sprintf("Delete process %s?", p.Title)
			return runConfirmed(cmd, app, yes, title, "", func() error {
				res, err := app.Catalog.DeleteProcess(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDeleteResult(res))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")

	return cmd
}
