package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sadopc/tomato/internal/notify"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
	"github.com/spf13/cobra"
)

func newStartCmd(app *App) *cobra.Command {
	var task, category string
	var minutes int

	cmd := &cobra.Command{
		Use:       "start [focus|short-break|stopwatch]",
		Short:     "Run a session in the terminal; Ctrl-C stops and logs it",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"focus", "short-break", "stopwatch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := store.ModeFocus
			if len(args) == 1 {
				m, err := store.ParseWorkMode(args[0])
				if err != nil {
					return err
				}
				if m == store.ModePomodoroPlan {
					return errors.New("use `tomato plan run <id>` to run a plan")
				}
				mode = m
			}

			m, err := newHeadlessMachine(cmd, app, task, category)
			if err != nil {
				return err
			}
			if minutes != 0 {
				if err := m.ChangeDuration(mode, minutes); err != nil {
					return err
				}
			}
			m.SelectMode(cmd.Context(), mode)
			return runSession(cmd, app, m)
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Task description")
	cmd.Flags().StringVar(&category, "category", "", "Category name (default prefers Implementation)")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "Override the countdown length in minutes")

	return cmd
}

// newHeadlessMachine wires a machine that logs to the store, prints each
// logged session and notification, and rings the terminal bell.
func newHeadlessMachine(cmd *cobra.Command, app *App, task, category string) (*session.Machine, error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cats := app.Store.Categories(ctx)
	if category == "" {
		category = session.PreferredCategory(cats)
	} else if _, err := resolveCategory(ctx, app, category); err != nil {
		return nil, err
	}

	notifier := notify.Multi{
		notify.LogNotifier{Logger: app.Logger},
		notify.Gate{Allowed: app.Config.Notifications, Next: notify.Func(func(title, message string) {
			fmt.Fprintf(out, "\n%s: %s\n", title, message)
		})},
	}
	bell := notify.NewBell(cmd.ErrOrStderr(), app.Config.SoundEnabled)

	m := session.New(app.Config.Session(), logPrinter{next: app.Store, out: out}, notifier, bell,
		session.WithClock(app.Now))
	m.SetTask(task)
	m.SetCategory(category)
	return m, nil
}

// runSession ticks m until it finishes or the process is interrupted.
func runSession(cmd *cobra.Command, app *App, m *session.Machine) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	r := &session.Runner{
		Machine:  m,
		Interval: app.TickInterval,
		OnTick:   progressPrinter(out),
	}
	err := r.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(out, "\nStopped.")
		return nil
	}
	return err
}

func progressPrinter(out io.Writer) func(session.State) {
	return func(s session.State) {
		fmt.Fprintf(out, "\r%-32s", session.Title(s))
	}
}
