package session

import (
	"fmt"

	"github.com/sadopc/tomato/internal/store"
)

// Clock formats seconds as MM:SS. Minutes are not wrapped at an hour.
func Clock(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Title is the short status line for a window title or tray:
// "▶ ● 24:59" while running, and "📋 05:00 2/8" for an idle plan step.
func Title(s State) string {
	out := fmt.Sprintf("%s %s", Glyph(s.Mode), Clock(s.Seconds))
	if s.Running {
		out = "▶ " + out
	}
	if s.Mode == store.ModePomodoroPlan && s.Plan != nil {
		out += fmt.Sprintf(" %d/%d", s.StepIndex+1, len(s.Plan.Steps))
	}
	return out
}
