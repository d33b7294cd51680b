package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

type timerModel struct {
	env    *env
	width  int
	height int

	categories []store.Category

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formTask     *string
	formCategory *string
}

func newTimerModel(e *env) timerModel {
	task, cat := "", ""
	return timerModel{
		env:          e,
		formTask:     &task,
		formCategory: &cat,
	}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	if msg, ok := msg.(categoriesDataMsg); ok {
		t.categories = msg.categories
		if !t.hasCategory(t.env.machine.Snapshot().Category) {
			t.env.machine.SetCategory(session.PreferredCategory(t.categories))
		}
		return t, nil
	}

	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	m := t.env.machine
	switch {
	case key.Matches(km, keys.Focus):
		return t, t.selectMode(store.ModeFocus)
	case key.Matches(km, keys.Break):
		return t, t.selectMode(store.ModeShortBreak)
	case key.Matches(km, keys.Stopwatch):
		return t, t.selectMode(store.ModeStopwatch)
	case key.Matches(km, keys.PlanMode):
		return t, t.selectMode(store.ModePomodoroPlan)
	case key.Matches(km, keys.Start):
		if m.Start() {
			return t, statusCmd("Timer started")
		}
		if s := m.Snapshot(); s.Mode == store.ModePomodoroPlan && s.Plan == nil {
			return t, statusCmd("Choose a plan on the Plans tab first")
		}
	case key.Matches(km, keys.Stop):
		if m.Stop(t.env.ctx) {
			return t, tea.Batch(logsChanged, statusCmd("Session stopped"))
		}
	case key.Matches(km, keys.Reset):
		m.Reset()
	case key.Matches(km, keys.New):
		return t.showTaskForm()
	}
	return t, nil
}

func (t timerModel) selectMode(mode store.WorkMode) tea.Cmd {
	wasRunning := t.env.machine.Snapshot().Running
	t.env.machine.SelectMode(t.env.ctx, mode)
	if wasRunning {
		return logsChanged
	}
	return nil
}

func (t timerModel) hasCategory(name string) bool {
	for _, c := range t.categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (t timerModel) showTaskForm() (timerModel, tea.Cmd) {
	s := t.env.machine.Snapshot()
	*t.formTask = s.Task
	*t.formCategory = s.Category

	options := make([]huh.Option[string], len(t.categories))
	for i, c := range t.categories {
		options[i] = huh.NewOption(c.Name, c.Name)
	}
	if len(options) == 0 {
		options = append(options, huh.NewOption(store.ProtectedCategory, store.ProtectedCategory))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Placeholder(session.UntitledTask).Value(t.formTask),
			huh.NewSelect[string]().Title("Category").Options(options...).Value(t.formCategory),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timerModel) updateForm(msg tea.Msg) (timerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.env.machine.SetTask(strings.TrimSpace(*t.formTask))
		t.env.machine.SetCategory(*t.formCategory)
		return t, nil
	}
	return t, cmd
}

func (t timerModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("Task")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()),
		)
	}

	s := t.env.machine.Snapshot()

	var tabs []string
	for _, mode := range store.AllModes {
		label := session.Label(mode)
		if mode == s.Mode {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	modeRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	clockStyle := timerStyle
	switch {
	case s.Running && isBreak(s):
		clockStyle = timerBreakStyle
	case s.Running:
		clockStyle = timerRunningStyle
	}
	clock := clockStyle.Width(w - 6).Render(session.Clock(s.Seconds))

	var indicator string
	switch {
	case s.Running:
		indicator = successStyle.Render(session.Glyph(s.Mode) + "  RUNNING")
	case s.AdvancePending:
		indicator = warningStyle.Render("…  NEXT STEP")
	default:
		indicator = mutedStyle.Render("■  IDLE")
	}

	task := s.Task
	if task == "" {
		task = session.UntitledTask
	}
	taskLine := highlightStyle.Render(task) + mutedStyle.Render(" · "+s.Category)

	rows := []string{modeRow, "", clock, indicator, "", taskLine}
	if s.Plan != nil {
		rows = append(rows, "", renderPlanProgress(s))
	}

	var controls string
	if s.Running {
		controls = mutedStyle.Render("x: stop")
	} else {
		controls = mutedStyle.Render("s: start  r: reset  n: task  f/b/w/p: mode")
	}
	rows = append(rows, "", controls)

	style := panelStyle
	if s.Running {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func isBreak(s session.State) bool {
	if s.Mode == store.ModeShortBreak {
		return true
	}
	step, ok := s.Step()
	return ok && step.Type != store.StepFocus
}

// renderPlanProgress shows one dot per step: done, current, upcoming.
func renderPlanProgress(s session.State) string {
	var parts []string
	for i := range s.Plan.Steps {
		switch {
		case i < s.StepIndex:
			parts = append(parts, successStyle.Render("●"))
		case i == s.StepIndex:
			parts = append(parts, accentStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	step, _ := s.Step()
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d  %s · %s", s.StepIndex+1, len(s.Plan.Steps), s.Plan.Name, step.Label))
	return strings.Join(parts, " ") + counter
}
