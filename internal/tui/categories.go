package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

type categoriesModel struct {
	env    *env
	width  int
	height int

	categories []store.Category
	usage      map[string]stats.Bucket
	cursor     int

	formActive bool
	form       *huh.Form
	formType   string // "new", "rename"
	formName   *string
	editingID  int64
}

func newCategoriesModel(e *env) categoriesModel {
	name := ""
	return categoriesModel{env: e, formName: &name}
}

func (c *categoriesModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

func (c categoriesModel) refresh() tea.Cmd { return loadCategories(c.env) }

func (c categoriesModel) update(msg tea.Msg) (categoriesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case categoriesDataMsg:
		c.categories = msg.categories
		if c.cursor >= len(c.categories) {
			c.cursor = max(0, len(c.categories)-1)
		}
		return c, nil
	case logsDataMsg:
		c.usage = stats.ByCategory(msg.logs)
		return c, nil
	}

	if c.formActive && c.form != nil {
		return c.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	switch {
	case key.Matches(km, keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(km, keys.Down):
		if c.cursor < len(c.categories)-1 {
			c.cursor++
		}
	case key.Matches(km, keys.New):
		return c.showForm("new", "", 0)
	case key.Matches(km, keys.Enter):
		if len(c.categories) > 0 {
			cat := c.categories[c.cursor]
			if cat.Protected() {
				return c, statusCmd("%q can't be renamed", cat.Name)
			}
			return c.showForm("rename", cat.Name, cat.ID)
		}
	case key.Matches(km, keys.Delete):
		if len(c.categories) > 0 {
			cat := c.categories[c.cursor]
			if !c.env.store.DeleteCategory(c.env.ctx, cat.ID) {
				return c, statusCmd("%q can't be deleted", cat.Name)
			}
			return c, tea.Batch(c.refresh(), logsChanged,
				statusCmd("Deleted %q; its logs moved to %q", cat.Name, store.ProtectedCategory))
		}
	}
	return c, nil
}

func (c categoriesModel) showForm(formType, name string, id int64) (categoriesModel, tea.Cmd) {
	*c.formName = name
	c.formType = formType
	c.editingID = id

	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(c.formName).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name can't be blank")
				}
				return nil
			}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	c.formActive = true
	return c, c.form.Init()
}

func (c categoriesModel) updateForm(msg tea.Msg) (categoriesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			c.formActive = false
			c.form = nil
			return c, nil
		}
	}

	form, cmd := c.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		c.form = f
	}

	if c.form.State == huh.StateCompleted {
		c.formActive = false
		var err error
		switch c.formType {
		case "new":
			err = c.env.store.AddCategory(c.env.ctx, *c.formName)
		case "rename":
			err = c.env.store.UpdateCategory(c.env.ctx, c.editingID, *c.formName)
		}
		if err != nil {
			return c, errorCmd(err)
		}
		return c, tea.Batch(c.refresh(), logsChanged)
	}
	return c, cmd
}

func (c categoriesModel) view() string {
	w := c.width - 4

	if c.formActive && c.form != nil {
		title := titleStyle.Render("New Category")
		if c.formType == "rename" {
			title = titleStyle.Render("Rename Category")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", c.form.View()),
		)
	}

	title := titleStyle.Render("Categories")
	if len(c.categories) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No categories. Press n to add one."),
		))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-24s %10s %9s", "Name", "Tracked", "Sessions")))
	for i, cat := range c.categories {
		dot := lipgloss.NewStyle().Foreground(categoryColors[i%len(categoryColors)]).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == c.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		name := truncate(cat.Name, 24)
		if cat.Protected() {
			name += " 🔒"
		}
		u := c.usage[cat.Name]
		rows = append(rows, style.Render(cursor)+dot+style.Render(fmt.Sprintf(" %-24s %10s %9d", name, stats.FormatDuration(u.Duration), u.Sessions)))
	}
	rows = append(rows, "", mutedStyle.Render("  n: new  enter: rename  x: delete"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
