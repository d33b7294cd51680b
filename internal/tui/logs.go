package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

type logsModel struct {
	env    *env
	width  int
	height int

	logs   []store.WorkLog
	cursor int
}

func newLogsModel(e *env) logsModel {
	return logsModel{env: e}
}

func (l *logsModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l logsModel) refresh() tea.Cmd { return loadLogs(l.env) }

func (l logsModel) update(msg tea.Msg) (logsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case logsDataMsg:
		l.logs = msg.logs
		if l.cursor >= len(l.logs) {
			l.cursor = max(0, len(l.logs)-1)
		}
		return l, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if l.cursor > 0 {
				l.cursor--
			}
		case key.Matches(msg, keys.Down):
			if l.cursor < len(l.logs)-1 {
				l.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if len(l.logs) > 0 {
				l.env.store.DeleteLog(l.env.ctx, l.logs[l.cursor].ID)
				return l, tea.Batch(logsChanged, statusCmd("Log deleted"))
			}
		}
	}
	return l, nil
}

func (l logsModel) view() string {
	w := l.width - 4
	title := titleStyle.Render("Work Logs")
	total := highlightStyle.Render(stats.FormatDuration(stats.TotalTime(l.logs)))
	header := fmt.Sprintf("%s  %s  %s", title, total, mutedStyle.Render(fmt.Sprintf("%d sessions", len(l.logs))))

	if len(l.logs) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			mutedStyle.Render("No sessions yet. Start a timer on the Timer tab."),
		))
	}

	rows := []string{header, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-16s %-16s %-24s %-10s %10s", "When", "Category", "Task", "Mode", "Duration")))

	start, end := window(len(l.logs), l.cursor, l.height-8)
	for i := start; i < end; i++ {
		e := l.logs[i]
		status := successStyle.Render("✓")
		if !e.Completed {
			status = warningStyle.Render("✗")
		}
		cursor := "  "
		style := normalItemStyle
		if i == l.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := style.Render(fmt.Sprintf("%s%-16s %-16s %-24s %-10s %10s",
			cursor,
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			truncate(e.Category, 16),
			truncate(e.Task, 24),
			session.Label(e.Mode),
			stats.FormatDuration(e.Duration),
		))
		rows = append(rows, status+" "+row)
	}

	rows = append(rows, "", mutedStyle.Render("  x: delete  e: export"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
