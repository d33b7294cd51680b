package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tomato/internal/config"
	"github.com/sadopc/tomato/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir     string
	cfgPath string
	db      string
	kv      string
}

// newTestEnv writes a config that keeps every file inside a temp dir, with
// one-minute countdowns and the bell off.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	t.Setenv(config.EnvDB, "")
	t.Setenv(config.EnvKV, "")
	t.Setenv(config.EnvConfig, "")

	dir := t.TempDir()
	e := testEnv{
		dir:     dir,
		cfgPath: filepath.Join(dir, "config.yaml"),
		db:      filepath.Join(dir, "tomato.db"),
		kv:      filepath.Join(dir, "fallback.json"),
	}
	body := "db_path: " + e.db + "\n" +
		"kv_path: " + e.kv + "\n" +
		"focus_minutes: 1\n" +
		"short_break_minutes: 1\n" +
		"sound_enabled: false\n" +
		"advance_delay: 1ms\n"
	require.NoError(t, os.WriteFile(e.cfgPath, []byte(body), 0o644))
	return e
}

// executeCmd runs a cobra command against a fresh App and captures
// stdout/stderr.
func executeCmd(t *testing.T, e testEnv, args ...string) (string, error) {
	t.Helper()
	return executeCmdContext(t, context.Background(), e, args...)
}

func executeCmdContext(t *testing.T, ctx context.Context, e testEnv, args ...string) (string, error) {
	t.Helper()
	return executeApp(t, ctx, &App{}, e, args...)
}

func executeApp(t *testing.T, ctx context.Context, app *App, e testEnv, args ...string) (string, error) {
	t.Helper()
	app.TickInterval = time.Millisecond
	t.Cleanup(func() { app.Close() })

	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config=" + e.cfgPath}, args...))
	err := root.ExecuteContext(ctx)
	return buf.String(), err
}

func openStore(t *testing.T, e testEnv) *store.Persistence {
	t.Helper()
	st, status := store.Open(context.Background(), store.Options{DBPath: e.db, KVPath: e.kv}, nil)
	require.Equal(t, store.Ready, status)
	return st
}

var savedIDPattern = regexp.MustCompile(`\(([0-9a-f-]+)\)`)

func TestRootPrintsStatusWhenNotInteractive(t *testing.T) {
	e := newTestEnv(t)
	out, err := executeCmd(t, e)
	require.NoError(t, err)
	assert.Contains(t, out, "Storage:  ready")
	assert.Contains(t, out, "Focus:    1m 0s")
	assert.Contains(t, out, "All time: 0s in 0 sessions")
}

func TestStartFocusRunsToCompletion(t *testing.T) {
	e := newTestEnv(t)
	out, err := executeCmd(t, e, "start", "focus", "--task", "Write docs")
	require.NoError(t, err)
	assert.Contains(t, out, "Focus time is over!")
	assert.Contains(t, out, "Write docs · Implementation")

	st := openStore(t, e)
	defer st.Close()
	logs := st.Logs(context.Background())
	require.Len(t, logs, 1)
	assert.Equal(t, store.ModeFocus, logs[0].Mode)
	assert.Equal(t, int64(60), logs[0].Duration)
	assert.True(t, logs[0].Completed)
	assert.Equal(t, "Implementation", logs[0].Category)
}

func TestStartWithNotificationsOff(t *testing.T) {
	e := newTestEnv(t)
	f, err := os.OpenFile(e.cfgPath, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("notifications: false\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	out, err := executeCmd(t, e, "start")
	require.NoError(t, err)
	assert.NotContains(t, out, "time is over")
	assert.Contains(t, out, "Untitled task · Implementation")
}

func TestStartMinutesOverride(t *testing.T) {
	e := newTestEnv(t)
	_, err := executeCmd(t, e, "start", "short-break", "--minutes", "2", "--category", "Design")
	require.NoError(t, err)

	st := openStore(t, e)
	defer st.Close()
	logs := st.Logs(context.Background())
	require.Len(t, logs, 1)
	assert.Equal(t, store.ModeShortBreak, logs[0].Mode)
	assert.Equal(t, int64(120), logs[0].Duration)
	assert.Equal(t, "Design", logs[0].Category)
}

func TestStartRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)

	_, err := executeCmd(t, e, "start", "pomodoro-plan")
	assert.ErrorContains(t, err, "plan run")

	_, err = executeCmd(t, e, "start", "nap")
	assert.ErrorContains(t, err, "unknown work mode")

	_, err = executeCmd(t, e, "start", "--category", "Nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = executeCmd(t, e, "start", "stopwatch", "--minutes", "5")
	assert.Error(t, err)
}

func TestStartStopwatchStopsOnCancel(t *testing.T) {
	e := newTestEnv(t)
	// Opened up front so the deadline only bounds the session itself.
	app := &App{Store: openStore(t, e)}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out, err := executeApp(t, ctx, app, e, "start", "stopwatch")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped.")

	st := openStore(t, e)
	defer st.Close()
	logs := st.Logs(context.Background())
	require.Len(t, logs, 1)
	assert.Equal(t, store.ModeStopwatch, logs[0].Mode)
	assert.False(t, logs[0].Completed)
}

func TestPlanDefaultListShowDelete(t *testing.T) {
	e := newTestEnv(t)

	out, err := executeCmd(t, e, "plan", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No plans yet")

	out, err = executeCmd(t, e, "plan", "default")
	require.NoError(t, err)
	m := savedIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = executeCmd(t, e, "plan", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Classic pomodoro")
	assert.Contains(t, out, "2h 10m")

	out, err = executeCmd(t, e, "plan", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Long break")
	assert.Contains(t, out, "Focus 4")

	_, err = executeCmd(t, e, "plan", "show", "zzz")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = executeCmd(t, e, "plan", "delete", id)
	require.NoError(t, err)
	out, err = executeCmd(t, e, "plan", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No plans yet")
}

func TestPlanRunCompletesEveryStep(t *testing.T) {
	e := newTestEnv(t)
	st := openStore(t, e)
	require.NoError(t, st.SavePlan(context.Background(), store.Plan{
		ID:   "tiny-plan",
		Name: "Tiny",
		Steps: []store.PlanStep{
			{ID: "s1", Type: store.StepFocus, Duration: 3, Label: "Work"},
			{ID: "s2", Type: store.StepShortBreak, Duration: 2, Label: "Rest"},
		},
	}))
	require.NoError(t, st.Close())

	out, err := executeCmd(t, e, "plan", "run", "tiny", "--task", "Sprint")
	require.NoError(t, err)
	assert.Contains(t, out, "Work finished!")
	assert.Contains(t, out, "Rest finished!")
	assert.Contains(t, out, "Pomodoro plan complete!")

	st = openStore(t, e)
	defer st.Close()
	logs := st.Logs(context.Background())
	require.Len(t, logs, 2)
	var total int64
	for _, l := range logs {
		assert.Equal(t, store.ModePomodoroPlan, l.Mode)
		assert.True(t, l.Completed)
		assert.Equal(t, "Sprint", l.Task)
		total += l.Duration
	}
	assert.Equal(t, int64(5), total)
}

func TestLogListAndDelete(t *testing.T) {
	e := newTestEnv(t)

	out, err := executeCmd(t, e, "log", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions logged.")

	st := openStore(t, e)
	ctx := context.Background()
	st.AppendLog(ctx, store.WorkLog{ID: "abc12345-log", Category: "Design", Task: "Mockups",
		Mode: store.ModeFocus, Duration: 1500, Completed: true, Timestamp: time.Now().Add(-time.Hour)})
	st.AppendLog(ctx, store.WorkLog{ID: "def67890-log", Category: "Meeting", Task: "Standup",
		Mode: store.ModeStopwatch, Duration: 600, Timestamp: time.Now().AddDate(0, 0, -20)})
	require.NoError(t, st.Close())

	out, err = executeCmd(t, e, "log", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Mockups")
	assert.Contains(t, out, "Standup")
	assert.Contains(t, out, "2 sessions, 35m 0s total")

	out, err = executeCmd(t, e, "log", "list", "--period", "week")
	require.NoError(t, err)
	assert.Contains(t, out, "Mockups")
	assert.NotContains(t, out, "Standup")

	out, err = executeCmd(t, e, "log", "list", "--category", "Meeting")
	require.NoError(t, err)
	assert.NotContains(t, out, "Mockups")

	_, err = executeCmd(t, e, "log", "list", "--period", "decade")
	assert.ErrorContains(t, err, "unknown period")

	out, err = executeCmd(t, e, "log", "delete", "abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted log abc12345")

	out, err = executeCmd(t, e, "log", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Mockups")
	assert.Contains(t, out, "1 sessions")
}

func TestCategoryCommands(t *testing.T) {
	e := newTestEnv(t)

	out, err := executeCmd(t, e, "category", "list")
	require.NoError(t, err)
	for _, name := range store.DefaultCategories {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "(protected)")

	_, err = executeCmd(t, e, "category", "add", "Research")
	require.NoError(t, err)
	_, err = executeCmd(t, e, "category", "add", "   ")
	assert.ErrorIs(t, err, store.ErrBlankName)

	out, err = executeCmd(t, e, "category", "rename", "Research", "Reading")
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed "Research" to "Reading"`)

	_, err = executeCmd(t, e, "category", "rename", store.ProtectedCategory, "Misc")
	assert.ErrorIs(t, err, store.ErrProtectedCategory)

	out, err = executeCmd(t, e, "category", "delete", "Reading")
	require.NoError(t, err)
	assert.Contains(t, out, "now belong to "+store.ProtectedCategory)

	_, err = executeCmd(t, e, "category", "delete", store.ProtectedCategory)
	assert.ErrorIs(t, err, store.ErrProtectedCategory)

	out, err = executeCmd(t, e, "cat", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Reading")
}

func TestStatsCommand(t *testing.T) {
	e := newTestEnv(t)

	out, err := executeCmd(t, e, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Stats: week")
	assert.Contains(t, out, "Sessions:   0 (0 completed)")

	st := openStore(t, e)
	ctx := context.Background()
	st.AppendLog(ctx, store.WorkLog{ID: "a", Category: "Design", Task: "x",
		Mode: store.ModeFocus, Duration: 1500, Completed: true, Timestamp: time.Now().Add(-time.Hour)})
	st.AppendLog(ctx, store.WorkLog{ID: "b", Category: "Review", Task: "y",
		Mode: store.ModeShortBreak, Duration: 300, Timestamp: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, st.Close())

	out, err = executeCmd(t, e, "stats", "--period", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:      30m 0s")
	assert.Contains(t, out, "Sessions:   2 (1 completed)")
	assert.Contains(t, out, "Completion: 50%")
	assert.Contains(t, out, "Design")
	assert.Contains(t, out, "Break")

	out, err = executeCmd(t, e, "stats", "--category", "Design")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:      25m 0s")
	assert.NotContains(t, out, "Review")

	_, err = executeCmd(t, e, "stats", "--period", "year")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	e := newTestEnv(t)
	outDir := filepath.Join(e.dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	out, err := executeCmd(t, e, "export", "--dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to export.")

	st := openStore(t, e)
	st.AppendLog(context.Background(), store.WorkLog{ID: "a", Category: "Design", Task: "x",
		Mode: store.ModeFocus, Duration: 1500, Completed: true, Timestamp: time.Now()})
	require.NoError(t, st.Close())

	for _, format := range []string{"csv", "json"} {
		out, err = executeCmd(t, e, "export", "--format", format, "--dir", outDir)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported to ")

		path := strings.TrimSpace(strings.TrimPrefix(out, "Exported to "))
		assert.Equal(t, "."+format, filepath.Ext(path))
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr)
	}

	_, err = executeCmd(t, e, "export", "--format", "xml")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestConfigCommands(t *testing.T) {
	e := newTestEnv(t)

	out, err := executeCmd(t, e, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, e.cfgPath, strings.TrimSpace(out))

	out, err = executeCmd(t, e, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "focus_minutes: 1")
	assert.Contains(t, out, "db_path: "+e.db)
}

func TestSavedSettingsOverrideConfig(t *testing.T) {
	e := newTestEnv(t)
	st := openStore(t, e)
	ctx := context.Background()
	st.SetSetting(ctx, store.SettingFocusMinutes, "7")
	st.SetSetting(ctx, store.SettingBreakMinutes, "999")
	st.SetSetting(ctx, store.SettingSoundEnabled, "true")
	require.NoError(t, st.Close())

	out, err := executeCmd(t, e, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "focus_minutes: 7")
	assert.Contains(t, out, "short_break_minutes: 1")
	assert.Contains(t, out, "sound_enabled: true")
}

func TestResolveByPrefix(t *testing.T) {
	ids := []string{"abc-1", "abd-2", "xyz"}

	id, err := resolveByPrefix("plan", "abc", ids)
	require.NoError(t, err)
	assert.Equal(t, "abc-1", id)

	id, err = resolveByPrefix("plan", "xyz", ids)
	require.NoError(t, err)
	assert.Equal(t, "xyz", id)

	_, err = resolveByPrefix("plan", "ab", ids)
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveByPrefix("plan", "q", ids)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = resolveByPrefix("plan", " ", ids)
	assert.ErrorContains(t, err, "required")
}

func TestRenderTableAligns(t *testing.T) {
	out := renderTable([]string{"ID", "NAME"}, [][]string{{"1", "Design"}, {"22", "Review"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Index(lines[2], "Design"), strings.Index(lines[3], "Review"))
	assert.Equal(t, "", renderTable(nil, nil))
}
