package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/export"
	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

// Options are the collaborators the app drives. Inbox must be one of the
// machine's notifiers for completion messages to reach the status bar.
type Options struct {
	Store     *store.Persistence
	Machine   *session.Machine
	Bell      *notify.Bell
	Inbox     *Inbox
	ExportDir string
	Now       func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	env    *env
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer      timerModel
	plans      plansModel
	logs       logsModel
	reports    reportsModel
	categories categoriesModel
	settings   settingsModel

	help   help.Model
	status string
}

func NewApp(ctx context.Context, opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Inbox == nil {
		opts.Inbox = &Inbox{}
	}
	if opts.Bell == nil {
		opts.Bell = notify.NewBell(nil, false)
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	e := &env{
		ctx:       ctx,
		store:     opts.Store,
		machine:   opts.Machine,
		bell:      opts.Bell,
		inbox:     opts.Inbox,
		exportDir: opts.ExportDir,
		now:       opts.Now,
	}

	h := help.New()
	h.ShowAll = false

	return App{
		env:        e,
		activeView: viewTimer,
		timer:      newTimerModel(e),
		plans:      newPlansModel(e),
		logs:       newLogsModel(e),
		reports:    newReportsModel(e),
		categories: newCategoriesModel(e),
		settings:   newSettingsModel(e),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		loadCategories(a.env),
		loadLogs(a.env),
		loadPlans(a.env),
		a.settings.refresh(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func advanceCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return advanceMsg{} })
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.plans.setSize(a.width, contentHeight)
		a.logs.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.categories.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a.quit()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewPlans
			return a, a.plans.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewLogs
			return a, a.logs.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewStats
			return a, loadLogs(a.env)
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewCategories
			return a, a.categories.refresh()
		case key.Matches(msg, keys.Tab6):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}
		return a.updateActiveView(msg)

	case tickMsg:
		cmds = append(cmds, tickCmd())
		res := a.env.machine.Tick(a.env.ctx)
		if res.Completed {
			cmds = append(cmds, logsChanged)
		}
		if res.AdvanceAfter > 0 {
			cmds = append(cmds, advanceCmd(res.AdvanceAfter))
		}
		a.drainInbox()
		cmds = append(cmds, tea.SetWindowTitle(session.Title(a.env.machine.Snapshot())))
		return a, tea.Batch(cmds...)

	case advanceMsg:
		a.env.machine.AdvanceStep(a.env.ctx)
		a.drainInbox()
		return a, nil

	case planChosenMsg:
		if err := a.env.machine.StartPlan(a.env.ctx, msg.plan); err != nil {
			return a, errorCmd(err)
		}
		a.activeView = viewTimer
		a.status = "Plan " + msg.plan.Name + " loaded, press s to start"
		return a, logsChanged

	case logsChangedMsg:
		return a, loadLogs(a.env)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.exportPicking = false
		if msg.path == "" {
			a.status = "Nothing to export"
		} else {
			a.status = "Exported to " + msg.path
		}
		return a, nil
	}

	return a.broadcast(msg)
}

// broadcast hands data messages to every tab; each ignores what it does not
// use.
func (a App) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.timer, cmd = a.timer.update(msg)
	cmds = append(cmds, cmd)
	a.plans, cmd = a.plans.update(msg)
	cmds = append(cmds, cmd)
	a.logs, cmd = a.logs.update(msg)
	cmds = append(cmds, cmd)
	a.reports, cmd = a.reports.update(msg)
	cmds = append(cmds, cmd)
	a.categories, cmd = a.categories.update(msg)
	cmds = append(cmds, cmd)
	a.settings, cmd = a.settings.update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewPlans:
		a.plans, cmd = a.plans.update(msg)
	case viewLogs:
		a.logs, cmd = a.logs.update(msg)
	case viewStats:
		a.reports, cmd = a.reports.update(msg)
	case viewCategories:
		a.categories, cmd = a.categories.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.formActive
	case viewPlans:
		return a.plans.capturing()
	case viewCategories:
		return a.categories.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewPlans:
		return a.plans.refresh()
	case viewLogs, viewStats:
		return loadLogs(a.env)
	case viewCategories:
		return a.categories.refresh()
	}
	return nil
}

// quit stops and logs a running session before leaving.
func (a App) quit() (tea.Model, tea.Cmd) {
	a.env.machine.Stop(a.env.ctx)
	return a, tea.Quit
}

func (a *App) drainInbox() {
	if msgs := a.env.inbox.Drain(); len(msgs) > 0 {
		a.status = strings.Join(msgs, " · ")
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewPlans:
		content = a.plans.view()
	case viewLogs:
		content = a.logs.view()
	case viewStats:
		content = a.reports.view()
	case viewCategories:
		content = a.categories.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("tomato")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	if s := a.env.machine.Snapshot(); s.Running {
		timerInfo = successStyle.Render(" " + session.Title(s))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Logs")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("  to "+a.env.exportDir))
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	e := a.env
	return func() tea.Msg {
		logs := e.store.Logs(e.ctx)
		write := export.ToCSV
		if format == 1 {
			write = export.ToJSON
		}
		path, err := write(logs, e.exportDir, e.now())
		if err != nil {
			return statusMsg{text: "Export error: " + err.Error(), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
