package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/export"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
	"github.com/spf13/cobra"
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#fe8019")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#928374"))
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8ec07c"))
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb4934"))
)

// renderTable aligns rows under a header and a separator line. Widths are
// measured visibly so styled cells line up.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const colGap = 2
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
			}
		}
		b.WriteString("\n")
	}
	writeRow(headers, func(s string) string { return styleHeader.Render(s) })
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	writeRow(sep, func(s string) string { return styleDim.Render(s) })
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

func completedMark(completed bool) string {
	if completed {
		return styleGreen.Render("✓")
	}
	return styleRed.Render("✗")
}

// shortID trims ids for display; any unique prefix is accepted back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveByPrefix finds the single id starting with prefix.
func resolveByPrefix(kind, prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%s id is required", kind)
	}
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous", kind, prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s %q: %w", kind, prefix, store.ErrNotFound)
	}
	return match, nil
}

func resolvePlan(ctx context.Context, app *App, prefix string) (store.Plan, error) {
	plans := app.Store.Plans(ctx)
	ids := make([]string, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
	}
	id, err := resolveByPrefix("plan", prefix, ids)
	if err != nil {
		return store.Plan{}, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return store.Plan{}, fmt.Errorf("plan %q: %w", prefix, store.ErrNotFound)
}

// resolveCategory accepts a numeric id or an exact name.
func resolveCategory(ctx context.Context, app *App, input string) (store.Category, error) {
	cats := app.Store.Categories(ctx)
	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		for _, c := range cats {
			if c.ID == id {
				return c, nil
			}
		}
	}
	for _, c := range cats {
		if c.Name == input {
			return c, nil
		}
	}
	return store.Category{}, fmt.Errorf("category %q: %w", input, store.ErrNotFound)
}

// printStatus is what the bare command prints when stdin is not a terminal.
func printStatus(cmd *cobra.Command, app *App) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logs := app.Store.Logs(ctx)
	today := stats.Summarize(logs, stats.PeriodToday, "", app.Now())

	fmt.Fprintf(out, "Storage:  %s\n", app.Store.Status())
	fmt.Fprintf(out, "Focus:    %s\n", stats.FormatDuration(int64(app.Config.FocusMinutes)*60))
	fmt.Fprintf(out, "Break:    %s\n", stats.FormatDuration(int64(app.Config.ShortBreakMinutes)*60))
	fmt.Fprintf(out, "Today:    %s in %d sessions\n", stats.FormatDuration(today.Total), today.Sessions)
	fmt.Fprintf(out, "All time: %s in %d sessions\n", stats.FormatDuration(stats.TotalTime(logs)), len(logs))
	return nil
}

func logRows(logs []store.WorkLog) [][]string {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []string{
			shortID(l.ID),
			l.Timestamp.Local().Format(export.TimeLayout),
			session.Label(l.Mode),
			l.Category,
			l.Task,
			stats.FormatDuration(l.Duration),
			completedMark(l.Completed),
		})
	}
	return rows
}

// logPrinter reports each finished session as the machine logs it.
type logPrinter struct {
	next session.LogSink
	out  io.Writer
}

func (p logPrinter) AppendLog(ctx context.Context, l store.WorkLog) {
	p.next.AppendLog(ctx, l)
	fmt.Fprintf(p.out, "\n%s %s  %s  %s · %s\n",
		completedMark(l.Completed), session.Label(l.Mode), stats.FormatDuration(l.Duration), l.Task, l.Category)
}
