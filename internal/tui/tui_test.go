package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/plan"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/stats"
	"github.com/sadopc/tomato/internal/store"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.Local)

func newTestStore(t *testing.T) *store.Persistence {
	t.Helper()
	p, status := store.Open(context.Background(), store.Options{DBPath: ":memory:"}, nil)
	if status != store.Ready {
		t.Fatalf("open memory store: %v", status)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func newTestApp(t *testing.T, cfg session.Config) (App, *store.Persistence) {
	t.Helper()
	ctx := context.Background()
	p := newTestStore(t)
	inbox := &Inbox{}
	m := session.New(cfg, p, inbox, notify.Silent{}, session.WithClock(func() time.Time { return testNow }))
	app := NewApp(ctx, Options{
		Store:     p,
		Machine:   m,
		Inbox:     inbox,
		ExportDir: t.TempDir(),
		Now:       func() time.Time { return testNow },
	})
	app = update(t, app, tea.WindowSizeMsg{Width: 120, Height: 40})
	app = update(t, app, categoriesDataMsg{categories: p.Categories(ctx)})
	return app, p
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	out, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T", m)
	}
	return out
}

func press(t *testing.T, a App, keys string) App {
	t.Helper()
	return update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())

	if app.activeView != viewTimer {
		t.Fatal("default view should be timer")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppPicksPreferredCategory(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	if got := app.env.machine.Snapshot().Category; got != "Implementation" {
		t.Fatalf("category = %q, want Implementation", got)
	}
}

func TestAppViewStates(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())

	for v := range viewNames {
		app.activeView = viewState(v)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabKeys(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())

	for i := range viewNames {
		app = press(t, app, string(rune('1'+i)))
		if app.activeView != viewState(i) {
			t.Fatalf("key %d: active view = %d", i+1, app.activeView)
		}
	}
	app = update(t, app, tea.KeyMsg{Type: tea.KeyTab})
	if app.activeView != viewTimer {
		t.Fatalf("tab should wrap to timer, got %d", app.activeView)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app := NewApp(context.Background(), Options{Store: newTestStore(t), Machine: session.New(session.DefaultConfig(), nil, nil, nil)})
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	app = update(t, app, statusMsg{text: "test status"})

	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

// ============================================================
// Timer
// ============================================================

func TestTimerKeysStartStop(t *testing.T) {
	app, p := newTestApp(t, session.DefaultConfig())
	ctx := context.Background()

	app = press(t, app, "b")
	if s := app.env.machine.Snapshot(); s.Mode != store.ModeShortBreak || s.Seconds != 300 {
		t.Fatalf("after b: mode %v, seconds %d", s.Mode, s.Seconds)
	}

	app = press(t, app, "s")
	if !app.env.machine.Snapshot().Running {
		t.Fatal("s should start the timer")
	}
	if !strings.Contains(app.renderFooter(), "▶") {
		t.Fatal("footer should show the running title")
	}

	app = update(t, app, tickMsg(testNow))
	app = press(t, app, "x")
	if app.env.machine.Snapshot().Running {
		t.Fatal("x should stop the timer")
	}

	logs := p.Logs(ctx)
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	if logs[0].Completed || logs[0].Duration != 1 || logs[0].Category != "Implementation" {
		t.Fatalf("unexpected log %+v", logs[0])
	}
}

func TestTimerCompletionShowsNotification(t *testing.T) {
	app, p := newTestApp(t, session.Config{FocusSeconds: 2, ShortBreakSeconds: 60, AdvanceDelay: time.Second})

	app = press(t, app, "s")
	app = update(t, app, tickMsg(testNow))
	app = update(t, app, tickMsg(testNow))

	if app.status != "Focus time is over!" {
		t.Fatalf("status = %q", app.status)
	}
	logs := p.Logs(context.Background())
	if len(logs) != 1 || !logs[0].Completed {
		t.Fatalf("expected one completed log, got %+v", logs)
	}
}

func TestPlanModeWithoutPlanRefusesStart(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	app = press(t, app, "p")
	app = press(t, app, "s")
	if app.env.machine.Snapshot().Running {
		t.Fatal("plan mode without a plan must not start")
	}
}

func TestPlanChosenAndAdvanced(t *testing.T) {
	cfg := session.Config{FocusSeconds: 60, ShortBreakSeconds: 60, AdvanceDelay: time.Millisecond}
	app, _ := newTestApp(t, cfg)
	app.activeView = viewPlans

	tiny := store.Plan{ID: "tiny", Name: "Tiny", Steps: []store.PlanStep{
		{ID: "1", Type: store.StepFocus, Duration: 1, Label: "Work"},
		{ID: "2", Type: store.StepShortBreak, Duration: 1, Label: "Rest"},
	}}
	app = update(t, app, planChosenMsg{plan: tiny})
	if app.activeView != viewTimer {
		t.Fatal("choosing a plan should switch to the timer")
	}

	app = press(t, app, "s")
	app = update(t, app, tickMsg(testNow))
	if app.status != "Work finished!" {
		t.Fatalf("status = %q", app.status)
	}
	if !app.env.machine.Snapshot().AdvancePending {
		t.Fatal("advance should be pending")
	}

	app = update(t, app, advanceMsg{})
	s := app.env.machine.Snapshot()
	if s.StepIndex != 1 || s.Running {
		t.Fatalf("expected idle on step 2, got %+v", s)
	}
	if !strings.Contains(app.timer.view(), "2/2") {
		t.Fatal("timer view should show plan progress")
	}
}

func TestLateAdvanceDoesNotMoveNewPlan(t *testing.T) {
	cfg := session.Config{FocusSeconds: 60, ShortBreakSeconds: 60, AdvanceDelay: time.Second}
	app, _ := newTestApp(t, cfg)

	first := store.Plan{ID: "a", Name: "A", Steps: []store.PlanStep{
		{ID: "a1", Type: store.StepFocus, Duration: 1, Label: "Work"},
		{ID: "a2", Type: store.StepShortBreak, Duration: 1, Label: "Rest"},
	}}
	second := store.Plan{ID: "b", Name: "B", Steps: []store.PlanStep{
		{ID: "b1", Type: store.StepFocus, Duration: 600, Label: "Deep work"},
		{ID: "b2", Type: store.StepShortBreak, Duration: 900, Label: "Walk"},
	}}

	app = update(t, app, planChosenMsg{plan: first})
	app = press(t, app, "s")
	app = update(t, app, tickMsg(testNow))
	if !app.env.machine.Snapshot().AdvancePending {
		t.Fatal("advance should be pending")
	}

	app = update(t, app, planChosenMsg{plan: second})
	app = update(t, app, advanceMsg{})

	s := app.env.machine.Snapshot()
	if s.Plan == nil || s.Plan.Name != "B" {
		t.Fatalf("plan = %+v, want B", s.Plan)
	}
	if s.StepIndex != 0 || s.Seconds != 600 {
		t.Fatalf("plan B should stay on its first step, got step=%d seconds=%d", s.StepIndex, s.Seconds)
	}
}

func TestLateAdvanceIgnoredAfterManualSession(t *testing.T) {
	cfg := session.Config{FocusSeconds: 60, ShortBreakSeconds: 60, AdvanceDelay: time.Second}
	app, _ := newTestApp(t, cfg)

	tiny := store.Plan{ID: "tiny", Name: "Tiny", Steps: []store.PlanStep{
		{ID: "1", Type: store.StepFocus, Duration: 1, Label: "Work"},
		{ID: "2", Type: store.StepShortBreak, Duration: 1, Label: "Rest"},
	}}
	app = update(t, app, planChosenMsg{plan: tiny})
	app = press(t, app, "s")
	app = update(t, app, tickMsg(testNow))

	app = press(t, app, "r")
	app = press(t, app, "s")
	app = press(t, app, "x")
	app = update(t, app, advanceMsg{})

	if s := app.env.machine.Snapshot(); s.StepIndex != 0 {
		t.Fatalf("a stopped step must not advance, got step=%d", s.StepIndex)
	}
}

func TestTaskForm(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	app = press(t, app, "n")
	if !app.isFormActive() {
		t.Fatal("n should open the task form")
	}
	app = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.isFormActive() {
		t.Fatal("esc should close the task form")
	}
}

// ============================================================
// Plans
// ============================================================

func TestPlansDefaultKey(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	app.activeView = viewPlans

	_, cmd := app.plans.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	if cmd == nil {
		t.Fatal("d should emit a plan")
	}
	msg, ok := cmd().(planChosenMsg)
	if !ok {
		t.Fatal("expected planChosenMsg")
	}
	if len(msg.plan.Steps) != 8 || msg.plan.Name != plan.DefaultName {
		t.Fatalf("unexpected plan %+v", msg.plan)
	}
}

func TestPlansEditor(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	app.activeView = viewPlans

	app = press(t, app, "n")
	if !app.isFormActive() {
		t.Fatal("editor should capture keys")
	}
	app = press(t, app, "a")
	app = press(t, app, "t")
	app = update(t, app, tea.KeyMsg{Type: tea.KeyRight})

	steps := app.plans.builder.Steps()
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[1].Type != store.StepShortBreak || steps[1].Duration != 1560 {
		t.Fatalf("unexpected step %+v", steps[1])
	}

	app = press(t, app, "x")
	app = press(t, app, "x")
	if n := len(app.plans.builder.Steps()); n != 1 {
		t.Fatalf("the last step must stay, got %d", n)
	}

	// q is captured by the editor, not treated as quit.
	app = press(t, app, "q")
	app = update(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if app.isFormActive() {
		t.Fatal("esc should close the editor")
	}
}

func TestPlansDelete(t *testing.T) {
	app, p := newTestApp(t, session.DefaultConfig())
	ctx := context.Background()
	if err := p.SavePlan(ctx, plan.Default()); err != nil {
		t.Fatal(err)
	}
	app.activeView = viewPlans
	app = update(t, app, plansDataMsg{plans: p.Plans(ctx)})

	app = press(t, app, "x")
	if n := len(p.Plans(ctx)); n != 0 {
		t.Fatalf("expected plan deleted, %d left", n)
	}
}

// ============================================================
// Logs and categories
// ============================================================

func TestLogsDelete(t *testing.T) {
	app, p := newTestApp(t, session.DefaultConfig())
	ctx := context.Background()
	p.AppendLog(ctx, store.WorkLog{ID: "a", Category: "Design", Task: "t", Duration: 60, Timestamp: testNow})

	app.activeView = viewLogs
	app = update(t, app, logsDataMsg{logs: p.Logs(ctx)})
	if !strings.Contains(app.logs.view(), "Design") {
		t.Fatal("log row missing from view")
	}
	app = press(t, app, "x")
	if n := len(p.Logs(ctx)); n != 0 {
		t.Fatalf("expected log deleted, %d left", n)
	}
}

func TestCategoriesProtectedNotDeleted(t *testing.T) {
	app, p := newTestApp(t, session.DefaultConfig())
	ctx := context.Background()
	app.activeView = viewCategories

	cats := p.Categories(ctx)
	app.categories.cursor = len(cats) - 1 // "Other" is seeded last
	app = press(t, app, "x")
	if n := len(p.Categories(ctx)); n != len(cats) {
		t.Fatalf("protected category removed: %d -> %d", len(cats), n)
	}

	app.categories.cursor = 0
	app = press(t, app, "x")
	if n := len(p.Categories(ctx)); n != len(cats)-1 {
		t.Fatalf("expected one category removed, got %d", n)
	}
}

// ============================================================
// Stats
// ============================================================

func TestReportsPeriodAndCategory(t *testing.T) {
	app, p := newTestApp(t, session.DefaultConfig())
	ctx := context.Background()
	p.AppendLog(ctx, store.WorkLog{ID: "a", Category: "Design", Mode: store.ModeFocus, Duration: 1500, Completed: true, Timestamp: testNow.Add(-time.Hour)})
	p.AppendLog(ctx, store.WorkLog{ID: "b", Category: "Review", Mode: store.ModeFocus, Duration: 600, Timestamp: testNow.AddDate(0, 0, -3)})

	app.activeView = viewStats
	app = update(t, app, logsDataMsg{logs: p.Logs(ctx)})
	if app.reports.summary.Total != 2100 {
		t.Fatalf("week total = %d", app.reports.summary.Total)
	}

	app = update(t, app, tea.KeyMsg{Type: tea.KeyLeft})
	if app.reports.period != stats.PeriodToday || app.reports.summary.Total != 1500 {
		t.Fatalf("today: period %v total %d", app.reports.period, app.reports.summary.Total)
	}

	app = press(t, app, "c")
	if app.reports.category != "Implementation" {
		t.Fatalf("first category = %q", app.reports.category)
	}
	if app.reports.summary.Total != 0 {
		t.Fatalf("filtered total = %d", app.reports.summary.Total)
	}
	if app.View() == "" {
		t.Fatal("stats view rendered empty")
	}
}

func TestNextCategoryCycles(t *testing.T) {
	r := reportsModel{categories: []string{"A", "B"}}
	var got []string
	for range 3 {
		r.category = r.nextCategory()
		got = append(got, r.category)
	}
	if strings.Join(got, ",") != "A,B," {
		t.Fatalf("cycle = %q", got)
	}
}

func TestChartDays(t *testing.T) {
	if chartDays(stats.PeriodToday) != 1 || chartDays(stats.PeriodWeek) != 7 || chartDays(stats.PeriodAll) != 30 {
		t.Fatal("unexpected chart spans")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportWithoutLogs(t *testing.T) {
	app, _ := newTestApp(t, session.DefaultConfig())
	msg := app.doExport(0)()
	done, ok := msg.(exportDoneMsg)
	if !ok || done.path != "" {
		t.Fatalf("expected empty export, got %#v", msg)
	}
	app = update(t, app, done)
	if app.status != "Nothing to export" {
		t.Fatalf("status = %q", app.status)
	}
}

func TestExportCSV(t *testing.T) {
	app, p := newTestApp(t, session.DefaultConfig())
	p.AppendLog(context.Background(), store.WorkLog{ID: "a", Category: "Design", Task: "t", Duration: 60, Timestamp: testNow})

	done, ok := app.doExport(0)().(exportDoneMsg)
	if !ok {
		t.Fatal("expected exportDoneMsg")
	}
	if filepath.Dir(done.path) != app.env.exportDir {
		t.Fatalf("export written to %q", done.path)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatal(err)
	}
}

// ============================================================
// Settings and themes
// ============================================================

func TestSettingsThemeApplied(t *testing.T) {
	t.Cleanup(func() { applyTheme(themeDark) })
	app, _ := newTestApp(t, session.DefaultConfig())

	update(t, app, settingsDataMsg{theme: themeLight})
	if currentTheme != themeLight {
		t.Fatalf("theme = %q", currentTheme)
	}
	applyTheme("neon")
	if currentTheme != themeDark {
		t.Fatal("unknown theme should fall back to dark")
	}
}

func TestValidMinutes(t *testing.T) {
	for _, ok := range []string{"1", "25", " 180 "} {
		if err := validMinutes(ok); err != nil {
			t.Fatalf("%q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "181", "ten"} {
		if validMinutes(bad) == nil {
			t.Fatalf("%q accepted", bad)
		}
	}
}

// ============================================================
// Helpers
// ============================================================

func TestInboxDrain(t *testing.T) {
	var in Inbox
	in.Notify("Tomato", "one")
	in.Notify("Tomato", "two")
	if got := in.Drain(); len(got) != 2 || got[1] != "two" {
		t.Fatalf("drain = %q", got)
	}
	if got := in.Drain(); len(got) != 0 {
		t.Fatal("drain should clear")
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		n, cursor, height int
		start, end        int
	}{
		{5, 0, 10, 0, 5},
		{20, 0, 5, 0, 5},
		{20, 10, 5, 8, 13},
		{20, 19, 5, 15, 20},
	}
	for _, tt := range tests {
		s, e := window(tt.n, tt.cursor, tt.height)
		if s != tt.start || e != tt.end {
			t.Errorf("window(%d, %d, %d) = %d, %d; want %d, %d", tt.n, tt.cursor, tt.height, s, e, tt.start, tt.end)
		}
	}
}

func TestTruncate(t *testing.T) {
	if truncate("short", 10) != "short" {
		t.Fatal("short strings are kept")
	}
	if got := truncate("categorical", 6); got != "categ…" {
		t.Fatalf("truncate = %q", got)
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapFullHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}
