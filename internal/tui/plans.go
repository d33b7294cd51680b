package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/plan"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

type plansModel struct {
	env    *env
	width  int
	height int

	plans  []store.Plan
	cursor int

	// editing is true while the step editor is open.
	editing    bool
	builder    *plan.Builder
	stepCursor int

	formActive bool
	form       *huh.Form
	formType   string // "label", "name"
	formValue  *string
}

func newPlansModel(e *env) plansModel {
	v := ""
	return plansModel{
		env:       e,
		builder:   plan.NewBuilder(),
		formValue: &v,
	}
}

func (p *plansModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p plansModel) refresh() tea.Cmd { return loadPlans(p.env) }

// capturing reports whether the tab wants every key, including the global
// ones.
func (p plansModel) capturing() bool { return p.editing || p.formActive }

func (p plansModel) update(msg tea.Msg) (plansModel, tea.Cmd) {
	if msg, ok := msg.(plansDataMsg); ok {
		p.plans = msg.plans
		if p.cursor >= len(p.plans) {
			p.cursor = max(0, len(p.plans)-1)
		}
		return p, nil
	}

	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	if p.editing {
		return p.updateEditor(km)
	}

	switch {
	case key.Matches(km, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(km, keys.Down):
		if p.cursor < len(p.plans)-1 {
			p.cursor++
		}
	case key.Matches(km, keys.Enter):
		if len(p.plans) > 0 {
			chosen := p.plans[p.cursor]
			return p, func() tea.Msg { return planChosenMsg{plan: chosen} }
		}
	case key.Matches(km, keys.Default):
		def := plan.Default()
		return p, func() tea.Msg { return planChosenMsg{plan: def} }
	case key.Matches(km, keys.New):
		p.builder.Reset()
		p.stepCursor = 0
		p.editing = true
	case key.Matches(km, keys.Delete):
		if len(p.plans) > 0 {
			target := p.plans[p.cursor]
			p.env.store.DeletePlan(p.env.ctx, target.ID)
			return p, tea.Batch(p.refresh(), statusCmd("Deleted plan %q", target.Name))
		}
	}
	return p, nil
}

func (p plansModel) updateEditor(msg tea.KeyMsg) (plansModel, tea.Cmd) {
	steps := p.builder.Steps()
	cur := steps[min(p.stepCursor, len(steps)-1)]

	switch {
	case key.Matches(msg, keys.Back):
		p.editing = false
		p.builder.Reset()
	case key.Matches(msg, keys.Up):
		if p.stepCursor > 0 {
			p.stepCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.stepCursor < len(steps)-1 {
			p.stepCursor++
		}
	case key.Matches(msg, keys.Left):
		if cur.Duration > 60 {
			p.builder.SetDuration(cur.ID, cur.Duration-60)
		}
	case key.Matches(msg, keys.Right):
		p.builder.SetDuration(cur.ID, cur.Duration+60)
	case key.Matches(msg, editorKeys.Append):
		p.builder.Append()
		p.stepCursor = len(steps)
	case key.Matches(msg, editorKeys.Remove):
		if !p.builder.Remove(cur.ID) {
			return p, statusCmd("A plan needs at least one step")
		}
		p.stepCursor = min(p.stepCursor, len(steps)-2)
	case key.Matches(msg, editorKeys.Type):
		i := slices.Index(store.StepTypes, cur.Type)
		p.builder.SetType(cur.ID, store.StepTypes[(i+1)%len(store.StepTypes)])
	case key.Matches(msg, editorKeys.Label):
		return p.showForm("label", "Step label", cur.Label)
	case key.Matches(msg, editorKeys.Save):
		return p.showForm("name", "Plan name", p.builder.Name())
	}
	return p, nil
}

func (p plansModel) showForm(formType, title, value string) (plansModel, tea.Cmd) {
	*p.formValue = value
	p.formType = formType

	input := huh.NewInput().Title(title).Value(p.formValue)
	if formType == "name" {
		input = input.Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return store.ErrBlankName
			}
			return nil
		})
	}
	p.form = huh.NewForm(huh.NewGroup(input)).WithShowHelp(true).WithShowErrors(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p plansModel) updateForm(msg tea.Msg) (plansModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		switch p.formType {
		case "label":
			steps := p.builder.Steps()
			p.builder.SetLabel(steps[min(p.stepCursor, len(steps)-1)].ID, *p.formValue)
			return p, nil
		case "name":
			p.builder.SetName(*p.formValue)
			saved, err := p.builder.Save(p.env.ctx, p.env.store)
			if err != nil {
				return p, errorCmd(err)
			}
			p.editing = false
			p.stepCursor = 0
			return p, tea.Batch(p.refresh(), statusCmd("Saved plan %q", saved.Name))
		}
	}
	return p, cmd
}

func (p plansModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("Edit Plan")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}
	if p.editing {
		return p.renderEditor(w)
	}
	return p.renderList(w)
}

func (p plansModel) renderList(w int) string {
	title := titleStyle.Render("Plans")
	hint := mutedStyle.Render("  enter: start  d: default plan  n: new  x: delete")

	if len(p.plans) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No saved plans. Press d to run the classic plan or n to build one."),
			"",
			hint,
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %6s %10s", "Name", "Steps", "Total")))
	for i, pl := range p.plans {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-28s %6d %10s",
			cursor, truncate(pl.Name, 28), len(pl.Steps), stats.FormatDuration(pl.TotalDuration()))))
	}
	rows = append(rows, "", hint)
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p plansModel) renderEditor(w int) string {
	name := p.builder.Name()
	if name == "" {
		name = "untitled"
	}
	title := titleStyle.Render("New Plan") + mutedStyle.Render("  "+name)

	steps := p.builder.Steps()
	var total int64
	rows := []string{title, ""}
	for i, s := range steps {
		total += s.Duration
		cursor := "  "
		style := normalItemStyle
		if i == p.stepCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%2d. %-12s %-20s %s",
			cursor, i+1, s.Type, truncate(s.Label, 20), stats.FormatDuration(s.Duration))))
	}
	rows = append(rows,
		"",
		mutedStyle.Render("  total "+stats.FormatDuration(total)),
		"",
		mutedStyle.Render("  a: add  x: remove  t: type  ←/→: -/+ 1 min  enter: label  s: save  esc: cancel"),
	)
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
