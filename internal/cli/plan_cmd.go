package cli

import (
	"fmt"
	"strconv"

	"github.com/sadopc/tomato/internal/plan"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage and run pomodoro plans",
	}

	cmd.AddCommand(
		newPlanListCmd(app),
		newPlanDefaultCmd(app),
		newPlanShowCmd(app),
		newPlanRunCmd(app),
		newPlanDeleteCmd(app),
	)

	return cmd
}

func newPlanListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plans := app.Store.Plans(cmd.Context())
			out := cmd.OutOrStdout()
			if len(plans) == 0 {
				fmt.Fprintln(out, "No plans yet. Create one with `tomato plan default`.")
				return nil
			}
			rows := make([][]string, 0, len(plans))
			for _, p := range plans {
				rows = append(rows, []string{
					shortID(p.ID),
					p.Name,
					strconv.Itoa(len(p.Steps)),
					stats.FormatDuration(p.TotalDuration()),
				})
			}
			fmt.Fprint(out, renderTable([]string{"ID", "NAME", "STEPS", "TOTAL"}, rows))
			return nil
		},
	}
}

func newPlanDefaultCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "default",
		Short: "Save the classic four-pomodoro plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := plan.Default()
			if err := app.Store.SavePlan(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved plan %q (%s)\n", p.Name, shortID(p.ID))
			return nil
		},
	}
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the steps of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlan(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n\n", styleHeader.Render(p.Name), styleDim.Render(stats.FormatDuration(p.TotalDuration())))
			rows := make([][]string, 0, len(p.Steps))
			for i, s := range p.Steps {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					s.Label,
					string(s.Type),
					stats.FormatDuration(s.Duration),
				})
			}
			fmt.Fprint(out, renderTable([]string{"#", "LABEL", "TYPE", "DURATION"}, rows))
			return nil
		},
	}
}

func newPlanRunCmd(app *App) *cobra.Command {
	var task, category string

	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Run every step of a plan; Ctrl-C stops and logs the current step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlan(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			m, err := newHeadlessMachine(cmd, app, task, category)
			if err != nil {
				return err
			}
			if err := m.StartPlan(cmd.Context(), p); err != nil {
				return err
			}
			return runSession(cmd, app, m)
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Task description")
	cmd.Flags().StringVar(&category, "category", "", "Category name (default prefers Implementation)")

	return cmd
}

func newPlanDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlan(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			app.Store.DeletePlan(cmd.Context(), p.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted plan %q\n", p.Name)
			return nil
		},
	}
}
