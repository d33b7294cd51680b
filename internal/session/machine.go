// Package session implements the timer state machine: mode selection,
// countdown and stopwatch ticking, session logging and plan stepping.
package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/store"
)

// UntitledTask is logged when no task was entered.
const UntitledTask = "Untitled task"

// LogSink receives one log per finished session. *store.Persistence
// satisfies it.
type LogSink interface {
	AppendLog(ctx context.Context, l store.WorkLog)
}

type Config struct {
	FocusSeconds      int64
	ShortBreakSeconds int64
	// AdvanceDelay separates a plan step's completion from the move to the
	// next step, so the notification lands before the clock changes.
	AdvanceDelay time.Duration
	// AutoStartSteps starts each following plan step right after advancing.
	AutoStartSteps bool
}

func DefaultConfig() Config {
	return Config{
		FocusSeconds:      25 * 60,
		ShortBreakSeconds: 5 * 60,
		AdvanceDelay:      time.Second,
	}
}

// State is an immutable snapshot of the machine.
type State struct {
	Mode      store.WorkMode
	Seconds   int64 // remaining for countdown modes, elapsed for the stopwatch
	Running   bool
	StartedAt *time.Time
	Plan      *store.Plan
	StepIndex int
	Task      string
	Category  string
	// AdvancePending is set between a plan step's completion and AdvanceStep.
	AdvancePending bool
}

// Step returns the active plan step, if any.
func (s State) Step() (store.PlanStep, bool) {
	if s.Plan == nil || s.StepIndex < 0 || s.StepIndex >= len(s.Plan.Steps) {
		return store.PlanStep{}, false
	}
	return s.Plan.Steps[s.StepIndex], true
}

// TickResult tells the driver what a tick caused.
type TickResult struct {
	Completed bool
	// AdvanceAfter is non-zero when the driver must call AdvanceStep after
	// waiting this long.
	AdvanceAfter time.Duration
}

type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithIDs replaces the log id generator.
func WithIDs(newID func() string) Option {
	return func(m *Machine) { m.newID = newID }
}

// Machine is the session state machine. It is not safe for concurrent use;
// drivers call it from a single goroutine.
type Machine struct {
	cfg      Config
	sink     LogSink
	notifier notify.Notifier
	sound    notify.SoundPlayer
	now      func() time.Time
	newID    func() string

	mode      store.WorkMode
	seconds   int64
	running   bool
	startedAt time.Time
	// startSeconds is the clock value when the current session started.
	startSeconds int64

	plan    *store.Plan
	step    int
	pending bool

	task     string
	category string
}

func New(cfg Config, sink LogSink, notifier notify.Notifier, sound notify.SoundPlayer, opts ...Option) *Machine {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	if sound == nil {
		sound = notify.Silent{}
	}
	m := &Machine{
		cfg:      cfg,
		sink:     sink,
		notifier: notifier,
		sound:    sound,
		now:      time.Now,
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		mode:     store.ModeFocus,
		seconds:  cfg.FocusSeconds,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Machine) Snapshot() State {
	s := State{
		Mode:           m.mode,
		Seconds:        m.seconds,
		Running:        m.running,
		StepIndex:      m.step,
		Task:           m.task,
		Category:       m.category,
		AdvancePending: m.pending,
	}
	if m.running {
		t := m.startedAt
		s.StartedAt = &t
	}
	if m.plan != nil {
		p := *m.plan
		p.Steps = slices.Clone(p.Steps)
		s.Plan = &p
	}
	return s
}

func (m *Machine) Config() Config { return m.cfg }

func (m *Machine) SetTask(task string)         { m.task = task }
func (m *Machine) SetCategory(category string) { m.category = category }

// configured returns the full duration of the current mode or plan step.
func (m *Machine) configured() int64 {
	switch m.mode {
	case store.ModeFocus:
		return m.cfg.FocusSeconds
	case store.ModeShortBreak:
		return m.cfg.ShortBreakSeconds
	case store.ModePomodoroPlan:
		if m.plan != nil {
			return m.plan.Steps[m.step].Duration
		}
	}
	return 0
}

// SelectMode switches modes. A running session is stopped and logged first.
// Leaving plan mode clears the active plan; selecting plan mode again keeps
// it and reloads the current step.
func (m *Machine) SelectMode(ctx context.Context, mode store.WorkMode) {
	behaviorOf(mode) // reject unknown modes early
	m.Stop(ctx)
	if mode != store.ModePomodoroPlan {
		m.plan = nil
		m.step = 0
		m.pending = false
	}
	m.mode = mode
	m.seconds = m.configured()
}

// Start begins a session. It reports false when already running or when plan
// mode has no plan. A countdown that has reached zero is reloaded first.
func (m *Machine) Start() bool {
	if m.running {
		return false
	}
	if m.mode == store.ModePomodoroPlan && m.plan == nil {
		return false
	}
	if IsCountdown(m.mode) && m.seconds <= 0 {
		m.seconds = m.configured()
		if m.seconds <= 0 {
			return false
		}
	}
	m.running = true
	m.pending = false
	m.startedAt = m.now()
	m.startSeconds = m.seconds
	return true
}

// consumed is how much of the clock the current session used.
func (m *Machine) consumed() int64 {
	if IsCountdown(m.mode) {
		return max(m.startSeconds-m.seconds, 0)
	}
	return max(m.seconds-m.startSeconds, 0)
}

// Stop ends a running session early and logs it as not completed. An active
// plan stays on the same step; the next Start resumes it.
func (m *Machine) Stop(ctx context.Context) bool {
	if !m.running {
		return false
	}
	m.running = false
	m.appendLog(ctx, m.consumed(), false)
	return true
}

// Tick advances the clock by one second.
func (m *Machine) Tick(ctx context.Context) TickResult {
	if !m.running {
		return TickResult{}
	}
	if !IsCountdown(m.mode) {
		m.seconds++
		return TickResult{}
	}
	m.seconds--
	if m.seconds > 0 {
		return TickResult{}
	}
	m.seconds = 0
	return m.complete(ctx)
}

func (m *Machine) complete(ctx context.Context) TickResult {
	// Leave Running before logging so nothing else can end this session.
	m.running = false
	m.appendLog(ctx, m.consumed(), true)

	if m.mode == store.ModePomodoroPlan && m.plan != nil {
		step := m.plan.Steps[m.step]
		m.notifier.Notify(notify.Title, fmt.Sprintf("%s finished!", step.Label))
		m.sound.Play(stepSound(step.Type))
		m.pending = true
		return TickResult{Completed: true, AdvanceAfter: max(m.cfg.AdvanceDelay, time.Nanosecond)}
	}
	b := behaviorOf(m.mode)
	m.notifier.Notify(notify.Title, fmt.Sprintf("%s time is over!", b.label))
	m.sound.Play(b.sound)
	return TickResult{Completed: true}
}

func (m *Machine) appendLog(ctx context.Context, duration int64, completed bool) {
	task := strings.TrimSpace(m.task)
	if task == "" {
		task = UntitledTask
	}
	category := m.category
	if category == "" {
		category = store.ProtectedCategory
	}
	l := store.WorkLog{
		ID:        m.newID(),
		Category:  category,
		Task:      task,
		Mode:      m.mode,
		Duration:  duration,
		Completed: completed,
		Timestamp: m.startedAt,
	}
	m.startedAt = time.Time{}
	if m.sink != nil {
		m.sink.AppendLog(ctx, l)
	}
}

// Reset restores the clock to the full duration of the current mode or plan
// step. It does nothing while running and never logs.
func (m *Machine) Reset() bool {
	if m.running {
		return false
	}
	m.pending = false
	m.seconds = m.configured()
	return true
}

// ChangeDuration sets the configured minutes for focus or short-break and
// retimes the clock when that mode is selected and idle.
func (m *Machine) ChangeDuration(mode store.WorkMode, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("duration must be positive, got %d minutes", minutes)
	}
	secs := int64(minutes) * 60
	switch mode {
	case store.ModeFocus:
		m.cfg.FocusSeconds = secs
	case store.ModeShortBreak:
		m.cfg.ShortBreakSeconds = secs
	default:
		return fmt.Errorf("duration of %s is not configurable", mode)
	}
	if m.mode == mode && !m.running {
		m.seconds = secs
	}
	return nil
}

// StartPlan activates plan at its first step in plan mode. A running session
// is stopped and logged first. The clock is loaded but not started.
func (m *Machine) StartPlan(ctx context.Context, plan store.Plan) error {
	if len(plan.Steps) == 0 {
		return fmt.Errorf("start plan %q: %w", plan.Name, store.ErrInvalidPlan)
	}
	m.Stop(ctx)
	p := plan
	p.Steps = slices.Clone(plan.Steps)
	m.mode = store.ModePomodoroPlan
	m.plan = &p
	m.step = 0
	m.pending = false
	m.seconds = p.Steps[0].Duration
	return nil
}

// AdvanceStep moves an idle plan to its next step, or ends the plan and
// returns to focus mode after the last one. It only acts after a step has
// completed; a late call after StartPlan, Start or Reset is ignored. It
// reports whether the plan moved.
func (m *Machine) AdvanceStep(ctx context.Context) bool {
	if m.plan == nil || m.running || !m.pending {
		return false
	}
	m.pending = false
	next := m.step + 1
	if next < len(m.plan.Steps) {
		m.step = next
		m.seconds = m.plan.Steps[next].Duration
		if m.cfg.AutoStartSteps {
			m.Start()
		}
		return true
	}
	m.plan = nil
	m.step = 0
	m.mode = store.ModeFocus
	m.seconds = m.cfg.FocusSeconds
	m.notifier.Notify(notify.Title, "Pomodoro plan complete!")
	return true
}
