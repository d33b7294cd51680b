package store

import (
	"fmt"
	"time"
)

// ProtectedCategory is the catalog entry that can never be deleted. Logs of
// deleted categories are reassigned to it.
const ProtectedCategory = "Other"

// DefaultCategories are seeded on first run. The last one is protected.
var DefaultCategories = []string{"Implementation", "Design", "Meeting", "Review", "Documentation", ProtectedCategory}

// WorkMode identifies what kind of timer produced a session.
type WorkMode int

const (
	ModeFocus WorkMode = iota
	ModeShortBreak
	ModeStopwatch
	ModePomodoroPlan
)

// AllModes lists every mode in display order.
var AllModes = []WorkMode{ModeFocus, ModeShortBreak, ModeStopwatch, ModePomodoroPlan}

func (m WorkMode) String() string {
	switch m {
	case ModeFocus:
		return "focus"
	case ModeShortBreak:
		return "short-break"
	case ModeStopwatch:
		return "stopwatch"
	case ModePomodoroPlan:
		return "pomodoro-plan"
	}
	return fmt.Sprintf("WorkMode(%d)", int(m))
}

// ParseWorkMode is the inverse of WorkMode.String.
func ParseWorkMode(s string) (WorkMode, error) {
	for _, m := range AllModes {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown work mode %q", s)
}

func (m WorkMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *WorkMode) UnmarshalText(b []byte) error {
	parsed, err := ParseWorkMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// StepType is the kind of interval a plan step represents.
type StepType string

const (
	StepFocus      StepType = "focus"
	StepShortBreak StepType = "short-break"
	StepLongBreak  StepType = "long-break"
)

var StepTypes = []StepType{StepFocus, StepShortBreak, StepLongBreak}

func (t StepType) Valid() bool {
	switch t {
	case StepFocus, StepShortBreak, StepLongBreak:
		return true
	}
	return false
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Protected reports whether the category can be deleted.
func (c Category) Protected() bool {
	return c.Name == ProtectedCategory
}

// WorkLog is one finished session, either completed or stopped early.
type WorkLog struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Task      string    `json:"task"`
	Mode      WorkMode  `json:"mode"`
	Duration  int64     `json:"duration"` // seconds
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

type PlanStep struct {
	ID       string   `json:"id"`
	Type     StepType `json:"type"`
	Duration int64    `json:"duration"` // seconds
	Label    string   `json:"label"`
}

type Plan struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Steps []PlanStep `json:"steps"`
}

// TotalDuration is the sum of all step durations in seconds.
func (p Plan) TotalDuration() int64 {
	var total int64
	for _, s := range p.Steps {
		total += s.Duration
	}
	return total
}

// Well-known setting keys.
const (
	SettingTheme        = "theme"
	SettingSoundEnabled = "sound_enabled"
	SettingFocusMinutes = "focus_minutes"
	SettingBreakMinutes = "short_break_minutes"
)
