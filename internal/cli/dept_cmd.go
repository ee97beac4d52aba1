package cli

import (
	"fmt"

	"github.com/alexanderramin/handbook/internal/cli/formatter"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/spf13/cobra"
)

func newDeptCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dept",
		Aliases: []string{"department"},
		Short:   "Manage departments",
	}

	cmd.AddCommand(
		newDeptListCmd(app),
		newDeptAddCmd(app),
		newDeptUpdateCmd(app),
		newDeptRemoveCmd(app),
	)

	return cmd
}

func newDeptListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List departments in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			depts, err := app.Catalog.Departments()
			if err != nil {
				return err
			}
			if len(depts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No departments.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDepartmentList(depts))
			return nil
		},
	}
}

func newDeptAddCmd(app *App) *cobra.Command {
	var in domain.DepartmentInput
	var order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("order") {
				in.Order = &order
			}
			d, err := app.Catalog.AddDepartment(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created department %s [%s]\n", d.Name, formatter.ShortID(d.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Department name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Manager, "manager", "", "Responsible manager")
	cmd.Flags().StringVar(&in.Contact, "contact", "", "Contact details")
	cmd.Flags().IntVar(&order, "order", 0, "Display position (default: after existing departments)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newDeptUpdateCmd(app *App) *cobra.Command {
	var name, description, manager, contact string
	var order int

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveDepartmentID(app, args[0])
			if err != nil {
				return err
			}

			var patch domain.DepartmentPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("manager") {
				patch.Manager = &manager
			}
			if flags.Changed("contact") {
				patch.Contact = &contact
			}
			if flags.Changed("order") {
				patch.Order = &order
			}

			d, err := app.Catalog.UpdateDepartment(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated department %s [%s]\n", d.Name, formatter.ShortID(d.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Department name")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&manager, "manager", "", "Responsible manager")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact details")
	cmd.Flags().IntVar(&order, "order", 0, "Display position")

	return cmd
}

func newDeptRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a department with its categories and processes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveDepartmentID(app, args[0])
			if err != nil {
				return err
			}
			d, err := app.Catalog.DepartmentByID(id)
			if err != nil {
				return err
			}
			if d == nil {
				return domain.NotFoundError("department", id)
			}
			title := fmt.Sprintf("Delete department %s?", d.Name)
			return runConfirmed(cmd, app, yes, title, "Its categories and processes are deleted too.", func() error {
				res, err := app.Catalog.DeleteDepartment(cmd.Context(), id)
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
