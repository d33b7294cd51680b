package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

type reportsModel struct {
	env    *env
	width  int
	height int

	period     stats.Period
	category   string // empty = all
	categories []string
	logs       []store.WorkLog
	summary    stats.Summary

	chart barchart.Model
}

func newReportsModel(e *env) reportsModel {
	return reportsModel{
		env:    e,
		period: stats.PeriodWeek,
		chart:  barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.rebuild()
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case logsDataMsg:
		r.logs = msg.logs
		r.rebuild()
		return r, nil

	case categoriesDataMsg:
		names := make([]string, 0, len(msg.categories))
		for _, c := range msg.categories {
			names = append(names, c.Name)
		}
		r.categories = names
		if r.category != "" && !slices.Contains(r.categories, r.category) {
			r.category = ""
		}
		r.rebuild()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.period = stats.Periods[(int(r.period)+len(stats.Periods)-1)%len(stats.Periods)]
		case key.Matches(msg, keys.Right):
			r.period = stats.Periods[(int(r.period)+1)%len(stats.Periods)]
		case key.Matches(msg, keys.Category):
			r.category = r.nextCategory()
		default:
			return r, nil
		}
		r.rebuild()
	}
	return r, nil
}

// nextCategory cycles all → first → … → last → all.
func (r reportsModel) nextCategory() string {
	if len(r.categories) == 0 {
		return ""
	}
	if r.category == "" {
		return r.categories[0]
	}
	i := slices.Index(r.categories, r.category)
	if i < 0 || i == len(r.categories)-1 {
		return ""
	}
	return r.categories[i+1]
}

// chartDays is how many calendar days the chart spans for a period.
func chartDays(p stats.Period) int {
	switch p {
	case stats.PeriodToday:
		return 1
	case stats.PeriodWeek:
		return 7
	}
	return 30
}

func (r *reportsModel) rebuild() {
	now := r.env.now()
	r.summary = stats.Summarize(r.logs, r.period, r.category, now)

	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 36 {
		chartHeight = 16
	}
	r.chart = barchart.New(chartWidth, chartHeight)

	logs := stats.Filter(r.logs, r.period, now)
	if r.category != "" {
		logs = stats.FilterCategory(logs, r.category)
	}
	perDay := make(map[string][]store.WorkLog)
	for _, l := range logs {
		d := l.Timestamp.Local().Format(stats.DayLayout)
		perDay[d] = append(perDay[d], l)
	}

	days := chartDays(r.period)
	today := now.Local()
	var bars []barchart.BarData
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		label := d.Format("Mon 02")
		if days > 7 {
			label = d.Format("02")
		}

		var values []barchart.BarValue
		byCat := stats.ByCategory(perDay[d.Format(stats.DayLayout)])
		for _, name := range stats.SortedKeys(byCat) {
			values = append(values, barchart.BarValue{
				Name:  name,
				Value: float64(byCat[name].Duration) / 3600,
				Style: lipgloss.NewStyle().Foreground(r.categoryColor(name)),
			})
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{Label: label, Values: values})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) categoryColor(name string) lipgloss.Color {
	i := slices.Index(r.categories, name)
	if i < 0 {
		i = len(r.categories)
	}
	return categoryColors[i%len(categoryColors)]
}

func (r reportsModel) view() string {
	w := r.width - 4

	var tabs []string
	for _, p := range stats.Periods {
		name := strings.ToUpper(p.String()[:1]) + p.String()[1:]
		if p == r.period {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	filter := "all categories"
	if r.category != "" {
		filter = r.category
	}
	filter += " · " + periodStart(r.period, r.env.now())
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Stats"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ", mutedStyle.Render(filter),
	)

	s := r.summary
	overview := fmt.Sprintf("  %s %s   %s %d   %s %d   %s %.0f%%",
		mutedStyle.Render("total"), highlightStyle.Render(stats.FormatDuration(s.Total)),
		mutedStyle.Render("sessions"), s.Sessions,
		mutedStyle.Render("completed"), s.Completed,
		mutedStyle.Render("rate"), s.CompletionRate,
	)

	nav := mutedStyle.Render("  ←/→: period  c: category")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", overview, "", r.chart.View(), "", r.renderLegend(), "", r.renderTables(), "", nav,
		),
	)
}

func (r reportsModel) renderLegend() string {
	var items []string
	for _, name := range stats.SortedKeys(r.summary.ByCategory) {
		dot := lipgloss.NewStyle().Foreground(r.categoryColor(name)).Render("●")
		items = append(items, dot+" "+name)
	}
	if len(items) == 0 {
		return mutedStyle.Render("  No data for this period")
	}
	return "  " + strings.Join(items, "  ")
}

func (r reportsModel) renderTables() string {
	if r.summary.Sessions == 0 {
		return ""
	}
	rows := []string{mutedStyle.Render(fmt.Sprintf("  %-20s %10s %9s %9s", "Category", "Duration", "Sessions", "Done"))}
	for _, name := range stats.SortedKeys(r.summary.ByCategory) {
		b := r.summary.ByCategory[name]
		rows = append(rows, fmt.Sprintf("  %-20s %10s %9d %9d", truncate(name, 20), stats.FormatDuration(b.Duration), b.Sessions, b.Completed))
	}
	rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %-20s %10s %9s", "Mode", "Duration", "Sessions")))
	for _, mode := range store.AllModes {
		b, ok := r.summary.ByMode[mode]
		if !ok {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %-20s %10s %9d", session.Label(mode), stats.FormatDuration(b.Duration), b.Sessions))
	}
	return strings.Join(rows, "\n")
}

// periodStart describes the window a period covers.
func periodStart(p stats.Period, now time.Time) string {
	start, ok := p.Since(now)
	if !ok {
		return "all time"
	}
	return "since " + start.Format("Jan 02 15:04")
}
