// Package notify delivers session-end notifications and completion sounds.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Title heads every notification.
const Title = "Tomato"

// Sound selects which completion sound to play.
type Sound int

const (
	SoundFocus Sound = iota // a work interval ended
	SoundBreak              // a break ended
)

func (s Sound) String() string {
	switch s {
	case SoundFocus:
		return "timer-complete"
	case SoundBreak:
		return "break-complete"
	}
	return fmt.Sprintf("Sound(%d)", int(s))
}

// Notifier shows a short human-readable message.
type Notifier interface {
	Notify(title, message string)
}

// Func adapts a plain function to Notifier.
type Func func(title, message string)

func (f Func) Notify(title, message string) { f(title, message) }

// LogNotifier records notifications in the diagnostics log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(title, message string) {
	if n.Logger == nil {
		return
	}
	n.Logger.InfoContext(context.Background(), "notification", "title", title, "message", message)
}

// Gate drops notifications when permission was denied.
type Gate struct {
	Allowed bool
	Next    Notifier
}

func (g Gate) Notify(title, message string) {
	if !g.Allowed || g.Next == nil {
		return
	}
	g.Next.Notify(title, message)
}

// Multi fans a notification out to every non-nil notifier.
type Multi []Notifier

func (m Multi) Notify(title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, message)
		}
	}
}

// SoundPlayer plays a completion sound.
type SoundPlayer interface {
	Play(s Sound)
}

// Bell rings the terminal bell: once for focus endings, twice for breaks.
type Bell struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
}

func NewBell(w io.Writer, enabled bool) *Bell {
	return &Bell{w: w, enabled: enabled}
}

func (b *Bell) Play(s Sound) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.enabled || b.w == nil {
		return
	}
	rings := "\a"
	if s == SoundBreak {
		rings = "\a\a"
	}
	_, _ = io.WriteString(b.w, rings)
}

func (b *Bell) SetEnabled(enabled bool) {
	b.mu.Lock()
	b.enabled = enabled
	b.mu.Unlock()
}

func (b *Bell) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

// Silent discards every sound.
type Silent struct{}

func (Silent) Play(Sound) {}
