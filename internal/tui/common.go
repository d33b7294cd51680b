package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewPlans
	viewLogs
	viewStats
	viewCategories
	viewSettings
)

var viewNames = []string{"Timer", "Plans", "Logs", "Stats", "Categories", "Settings"}

// env is shared by every tab. Bubble Tea copies models by value; the
// pointers inside env keep all copies looking at the same state.
type env struct {
	ctx       context.Context
	store     *store.Persistence
	machine   *session.Machine
	bell      *notify.Bell
	inbox     *Inbox
	exportDir string
	now       func() time.Time
}

// Inbox collects notifications raised by the session machine so the app can
// show them in the status bar.
type Inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (i *Inbox) Notify(_, message string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, message)
}

// Drain returns and clears the pending messages.
func (i *Inbox) Drain() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.msgs
	i.msgs = nil
	return out
}

// --- Messages ---

type tickMsg time.Time

// advanceMsg fires after a plan step's advance delay.
type advanceMsg struct{}

// logsChangedMsg is sent whenever a session log was written or removed.
type logsChangedMsg struct{}

type planChosenMsg struct {
	plan store.Plan
}

type logsDataMsg struct {
	logs []store.WorkLog
}

type categoriesDataMsg struct {
	categories []store.Category
}

type plansDataMsg struct {
	plans []store.Plan
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Commands ---

func statusCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(err error) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: "Error: " + err.Error(), isError: true} }
}

func logsChanged() tea.Msg { return logsChangedMsg{} }

func loadLogs(e *env) tea.Cmd {
	return func() tea.Msg { return logsDataMsg{logs: e.store.Logs(e.ctx)} }
}

func loadCategories(e *env) tea.Cmd {
	return func() tea.Msg { return categoriesDataMsg{categories: e.store.Categories(e.ctx)} }
}

func loadPlans(e *env) tea.Cmd {
	return func() tea.Msg { return plansDataMsg{plans: e.store.Plans(e.ctx)} }
}

// --- Helpers ---

// window returns the [start, end) slice of n rows that keeps cursor visible
// within height rows.
func window(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
