package cli

import (
	"fmt"

	"github.com/alexanderramin/handbook/internal/cli/formatter"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/spf13/cobra"
)

func newCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories within a department",
	}

	cmd.AddCommand(
		newCategoryListCmd(app),
		newCategoryAddCmd(app),
		newCategoryUpdateCmd(app),
		newCategoryRemoveCmd(app),
	)

	return cmd
}

func newCategoryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list DEPARTMENT_ID",
		Short: "List the categories of a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deptID, err := resolveDepartmentID(app, args[0])
			if err != nil {
				return err
			}
			cats, err := app.Catalog.CategoriesByDepartment(deptID)
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCategoryList(cats))
			return nil
		},
	}
}

func newCategoryAddCmd(app *App) *cobra.Command {
	var in domain.CategoryInput
	var dept string
	var order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deptID, err := resolveDepartmentID(app, dept)
			if err != nil {
				return err
			}
			in.DepartmentID = deptID
			if cmd.Flags().Changed("order") {
				in.Order = &order
			}
			c, err := app.Catalog.AddCategory(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s [%s]\n", c.Name, formatter.ShortID(c.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&dept, "department", "", "Owning department ID")
	cmd.Flags().StringVar(&in.Name, "name", "", "Category name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.BusinessDefinition, "definition", "", "Business definition")
	cmd.Flags().StringVar(&in.LegalBasis, "legal", "", "Legal basis")
	cmd.Flags().IntVar(&order, "order", 0, "Display position (default: after existing categories)")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newCategoryUpdateCmd(app *App) *cobra.Command {
	var name, dept, description, definition, legal string
	var order int

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveCategoryID(app, args[0])
			if err != nil {
				return err
			}

			var patch domain.CategoryPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("department") {
				deptID, err := resolveDepartmentID(app, dept)
				if err != nil {
					return err
				}
				patch.DepartmentID = &deptID
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("definition") {
				patch.BusinessDefinition = &definition
			}
			if flags.Changed("legal") {
				patch.LegalBasis = &legal
			}
			if flags.Changed("order") {
				patch.Order = &order
			}

			c, err := app.Catalog.UpdateCategory(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated category %s [%s]\n", c.Name, formatter.ShortID(c.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Category name")
	cmd.Flags().StringVar(&dept, "department", "", "Move to this department")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&definition, "definition", "", "Business definition")
	cmd.Flags().StringVar(&legal, "legal", "", "Legal basis")
	cmd.Flags().IntVar(&order, "order", 0, "Display position")

	return cmd
}

func newCategoryRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a category with its processes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveCategoryID(app, args[0])
			if err != nil {
				return err
			}
			c, err := app.Catalog.CategoryByID(id)
			if err != nil {
				return err
			}
			if c == nil {
				return domain.NotFoundError("category", id)
			}
			title := fmt.Sprintf("Delete category %s?", c.Name)
			return runConfirmed(cmd, app, yes, title, "Its processes are deleted too.", func() error {
				res, err := app.Catalog.DeleteCategory(cmd.Context(), id)
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
