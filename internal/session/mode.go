package session

import (
	"fmt"

	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/store"
)

// behavior is everything the machine needs to know about a mode. Every mode
// must have a case in behaviorOf.
type behavior struct {
	countdown bool
	label     string
	glyph     string
	sound     notify.Sound
}

func behaviorOf(m store.WorkMode) behavior {
	switch m {
	case store.ModeFocus:
		return behavior{countdown: true, label: "Focus", glyph: "●", sound: notify.SoundFocus}
	case store.ModeShortBreak:
		return behavior{countdown: true, label: "Break", glyph: "⏸", sound: notify.SoundBreak}
	case store.ModeStopwatch:
		return behavior{countdown: false, label: "Stopwatch", glyph: "⏱", sound: notify.SoundFocus}
	case store.ModePomodoroPlan:
		return behavior{countdown: true, label: "Plan", glyph: "📋", sound: notify.SoundFocus}
	}
	panic(fmt.Sprintf("session: no behavior for %v", m))
}

// IsCountdown reports whether the mode counts down to zero.
func IsCountdown(m store.WorkMode) bool { return behaviorOf(m).countdown }

// Label is the human-readable name of a mode.
func Label(m store.WorkMode) string { return behaviorOf(m).label }

// Glyph is the one-character mode marker used in titles.
func Glyph(m store.WorkMode) string { return behaviorOf(m).glyph }

func stepSound(t store.StepType) notify.Sound {
	switch t {
	case store.StepShortBreak, store.StepLongBreak:
		return notify.SoundBreak
	}
	return notify.SoundFocus
}

// PreferredCategory picks the initial category: "Implementation" when present,
// else the first entry, else ProtectedCategory.
func PreferredCategory(cats []store.Category) string {
	for _, c := range cats {
		if c.Name == store.DefaultCategories[0] {
			return c.Name
		}
	}
	if len(cats) > 0 {
		return cats[0].Name
	}
	return store.ProtectedCategory
}
