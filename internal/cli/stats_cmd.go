package cli

import (
	"fmt"
	"strconv"

	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	var periodFlag, category string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize logged time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := stats.ParsePeriod(periodFlag)
			if err != nil {
				return err
			}
			s := stats.Summarize(app.Store.Logs(cmd.Context()), p, category, app.Now())
			renderSummary(cmd, s)
			return nil
		},
	}

	cmd.Flags().StringVar(&periodFlag, "period", "week", "today, week, month or all")
	cmd.Flags().StringVar(&category, "category", "", "Only this category")

	return cmd
}

func renderSummary(cmd *cobra.Command, s stats.Summary) {
	out := cmd.OutOrStdout()
	scope := "all categories"
	if s.Category != "" {
		scope = s.Category
	}
	fmt.Fprintf(out, "%s  %s\n\n", styleHeader.Render("Stats: "+s.Period.String()), styleDim.Render(scope))
	fmt.Fprintf(out, "Total:      %s\n", stats.FormatDuration(s.Total))
	fmt.Fprintf(out, "Sessions:   %d (%d completed)\n", s.Sessions, s.Completed)
	fmt.Fprintf(out, "Completion: %.0f%%\n", s.CompletionRate)
	if s.Sessions == 0 {
		return
	}

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(s.ByCategory))
	for _, name := range stats.SortedKeys(s.ByCategory) {
		b := s.ByCategory[name]
		rows = append(rows, []string{name, strconv.Itoa(b.Sessions), stats.FormatDuration(b.Duration)})
	}
	fmt.Fprint(out, renderTable([]string{"CATEGORY", "SESSIONS", "TIME"}, rows))

	fmt.Fprintln(out)
	rows = rows[:0]
	for _, mode := range stats.SortedKeys(s.ByMode) {
		b := s.ByMode[mode]
		rows = append(rows, []string{session.Label(mode), strconv.Itoa(b.Sessions), stats.FormatDuration(b.Duration)})
	}
	fmt.Fprint(out, renderTable([]string{"MODE", "SESSIONS", "TIME"}, rows))
}
