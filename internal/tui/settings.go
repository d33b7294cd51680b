package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tomato/internal/config"
	"github.com/sadopc/tomato/internal/store"
)

type settingsModel struct {
	env    *env
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focusMinutes *string
	breakMinutes *string
	sound        *bool
	theme        *string
}

func newSettingsModel(e *env) settingsModel {
	fm, bm, th := "", "", ""
	snd := false
	return settingsModel{
		env:          e,
		focusMinutes: &fm,
		breakMinutes: &bm,
		sound:        &snd,
		theme:        &th,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	theme string
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		theme, _ := s.env.store.Setting(s.env.ctx, store.SettingTheme)
		return settingsDataMsg{theme: theme}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(settingsDataMsg); ok {
		if msg.theme != "" {
			applyTheme(msg.theme)
		}
		return s, nil
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func validMinutes(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > config.MaxMinutes {
		return fmt.Errorf("enter whole minutes between 1 and %d", config.MaxMinutes)
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cfg := s.env.machine.Config()
	*s.focusMinutes = strconv.FormatInt(cfg.FocusSeconds/60, 10)
	*s.breakMinutes = strconv.FormatInt(cfg.ShortBreakSeconds/60, 10)
	*s.sound = s.env.bell.Enabled()
	*s.theme = currentTheme

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.focusMinutes).Validate(validMinutes),
			huh.NewInput().Title("Short break (min)").Value(s.breakMinutes).Validate(validMinutes),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Sound on completion").Value(s.sound),
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Dark", themeDark),
					huh.NewOption("Light", themeLight),
				).Value(s.theme),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, errorCmd(err)
		}
		return s, statusCmd("Settings saved")
	}
	return s, cmd
}

func (s settingsModel) saveSettings() error {
	ctx, st, m := s.env.ctx, s.env.store, s.env.machine

	focus, _ := strconv.Atoi(strings.TrimSpace(*s.focusMinutes))
	if err := m.ChangeDuration(store.ModeFocus, focus); err != nil {
		return err
	}
	brk, _ := strconv.Atoi(strings.TrimSpace(*s.breakMinutes))
	if err := m.ChangeDuration(store.ModeShortBreak, brk); err != nil {
		return err
	}
	st.SetSetting(ctx, store.SettingFocusMinutes, strconv.Itoa(focus))
	st.SetSetting(ctx, store.SettingBreakMinutes, strconv.Itoa(brk))

	s.env.bell.SetEnabled(*s.sound)
	st.SetSetting(ctx, store.SettingSoundEnabled, strconv.FormatBool(*s.sound))

	applyTheme(*s.theme)
	st.SetSetting(ctx, store.SettingTheme, currentTheme)
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	cfg := s.env.machine.Config()
	sound := "off"
	if s.env.bell.Enabled() {
		sound = "on"
	}
	storage := successStyle.Render(s.env.store.Status().String())
	if s.env.store.Status() != store.Ready {
		storage = warningStyle.Render(s.env.store.Status().String() + " (using fallback file)")
	}

	settings := [][2]string{
		{"Focus", fmt.Sprintf("%d min", cfg.FocusSeconds/60)},
		{"Short break", fmt.Sprintf("%d min", cfg.ShortBreakSeconds/60)},
		{"Auto-start plan steps", strconv.FormatBool(cfg.AutoStartSteps)},
		{"Sound", sound},
		{"Theme", currentTheme},
		{"Export folder", s.env.exportDir},
	}

	rows := []string{title, ""}
	for _, kv := range settings {
		label := lipgloss.NewStyle().Width(24).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}
	rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Storage"), storage))
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
