package cli

import (
	"fmt"
	"strconv"

	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
	"github.com/spf13/cobra"
)

func newCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories",
	}

	cmd.AddCommand(
		newCategoryListCmd(app),
		newCategoryAddCmd(app),
		newCategoryRenameCmd(app),
		newCategoryDeleteCmd(app),
	)

	return cmd
}

func newCategoryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their logged time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			usage := stats.ByCategory(app.Store.Logs(ctx))
			cats := app.Store.Categories(ctx)
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				name := c.Name
				if c.Protected() {
					name += styleDim.Render(" (protected)")
				}
				b := usage[c.Name]
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10),
					name,
					strconv.Itoa(b.Sessions),
					stats.FormatDuration(b.Duration),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"ID", "NAME", "SESSIONS", "TIME"}, rows))
			return nil
		},
	}
}

func newCategoryAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.AddCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %q\n", args[0])
			return nil
		},
	}
}

func newCategoryRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|name> <new-name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCategory(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Store.UpdateCategory(ctx, c.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", c.Name, args[1])
			return nil
		},
	}
}

func newCategoryDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a category; its logs move to " + store.ProtectedCategory,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveCategory(ctx, app, args[0])
			if err != nil {
				return err
			}
			if c.Protected() {
				return store.ErrProtectedCategory
			}
			if !app.Store.DeleteCategory(ctx, c.ID) {
				return fmt.Errorf("category %q was not deleted", c.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q; its logs now belong to %s\n", c.Name, store.ProtectedCategory)
			return nil
		},
	}
}
