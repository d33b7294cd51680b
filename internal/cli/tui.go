package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/tui"
)

// runTUI owns the terminal until the user quits. Diagnostics go to the log
// file opened by the root command.
func runTUI(ctx context.Context, app *App) error {
	inbox := &tui.Inbox{}
	bell := notify.NewBell(os.Stderr, app.Config.SoundEnabled)
	notifier := notify.Multi{
		notify.LogNotifier{Logger: app.Logger},
		notify.Gate{Allowed: app.Config.Notifications, Next: inbox},
	}

	m := session.New(app.Config.Session(), app.Store, notifier, bell, session.WithClock(app.Now))

	model := tui.NewApp(ctx, tui.Options{
		Store:     app.Store,
		Machine:   m,
		Bell:      bell,
		Inbox:     inbox,
		ExportDir: app.Config.DataDir(),
		Now:       app.Now,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
