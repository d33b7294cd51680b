package cli

import (
	"fmt"

	"github.com/sadopc/tomato/internal/stats"
	"github.com/spf13/cobra"
)

func newLogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect and delete work logs",
	}

	cmd.AddCommand(
		newLogListCmd(app),
		newLogDeleteCmd(app),
	)

	return cmd
}

func newLogListCmd(app *App) *cobra.Command {
	var periodFlag, category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work logs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := stats.ParsePeriod(periodFlag)
			if err != nil {
				return err
			}
			logs := stats.Filter(app.Store.Logs(cmd.Context()), p, app.Now())
			if category != "" {
				logs = stats.FilterCategory(logs, category)
			}

			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No sessions logged.")
				return nil
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "DATE/TIME", "MODE", "CATEGORY", "TASK", "DURATION", ""},
				logRows(logs),
			))
			fmt.Fprintf(out, "\n%d sessions, %s total\n", len(logs), stats.FormatDuration(stats.TotalTime(logs)))
			return nil
		},
	}

	cmd.Flags().StringVar(&periodFlag, "period", "all", "today, week, month or all")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")

	return cmd
}

func newLogDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a work log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logs := app.Store.Logs(ctx)
			ids := make([]string, len(logs))
			for i, l := range logs {
				ids[i] = l.ID
			}
			id, err := resolveByPrefix("log", args[0], ids)
			if err != nil {
				return err
			}
			app.Store.DeleteLog(ctx, id)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted log %s\n", shortID(id))
			return nil
		},
	}
}
