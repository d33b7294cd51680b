// Package cli is tomato's cobra command tree. The bare command opens the
// TUI; subcommands drive the same store and session machine headlessly.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sadopc/tomato/internal/config"
	"github.com/sadopc/tomato/internal/store"
	"github.com/spf13/cobra"
)

const logFileName = "tomato.log"

// App holds what every command needs. Config, Store and Logger are filled
// in by the root command before any subcommand runs.
type App struct {
	// IsInteractive reports whether stdin is a terminal. The bare command
	// only launches the TUI when it returns true.
	IsInteractive func() bool
	Now           func() time.Time
	TickInterval  time.Duration

	ConfigPath string
	Config     config.Config
	Store      *store.Persistence
	Logger     *slog.Logger

	logFile io.Closer
}

// NewRootCmd creates the top-level "tomato" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}
	if app.TickInterval <= 0 {
		app.TickInterval = time.Second
	}
	if app.IsInteractive == nil {
		app.IsInteractive = func() bool { return false }
	}

	var configFlag string
	root := &cobra.Command{
		Use:           "tomato",
		Short:         "Pomodoro timer with plans, work logs and stats",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			tui := cmd == cmd.Root() && app.IsInteractive()
			return app.open(cmd, configFlag, tui)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive() {
				return runTUI(cmd.Context(), app)
			}
			return printStatus(cmd, app)
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default $TOMATO_CONFIG or ~/.config/tomato/config.yaml)")

	root.AddCommand(
		newStartCmd(app),
		newPlanCmd(app),
		newLogCmd(app),
		newCategoryCmd(app),
		newStatsCmd(app),
		newExportCmd(app),
		newConfigCmd(app),
	)

	return root
}

// open loads the config, builds the logger and resolves the storage tiers.
// Config problems are logged and the corrected config is used.
func (a *App) open(cmd *cobra.Command, configFlag string, tui bool) error {
	path, err := config.ResolvePath(configFlag)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	a.ConfigPath = path
	cfg, cfgErr := config.Load(path)
	a.Config = cfg

	var w io.Writer = cmd.ErrOrStderr()
	if tui {
		f, err := openLogFile(cfg.DataDir())
		if err != nil {
			return err
		}
		a.logFile = f
		w = f
	}
	a.Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
	if cfgErr != nil {
		a.Logger.Warn("config problems, using defaults for invalid fields", "path", path, "error", cfgErr)
	}

	if a.Store == nil {
		st, status := store.Open(cmd.Context(), store.Options{DBPath: cfg.DBPath, KVPath: cfg.KVPath}, a.Logger)
		a.Store = st
		a.Logger.Debug("storage resolved", "status", status, "db", cfg.DBPath)
	}
	a.Config = applySettings(cmd.Context(), a.Config, a.Store)
	return nil
}

// Close releases the store and the log file. It is safe to call twice.
func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
		a.Store = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return err
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// applySettings lets values saved from the Settings tab win over the config
// file. Unparseable or out-of-range values are ignored.
func applySettings(ctx context.Context, cfg config.Config, st *store.Persistence) config.Config {
	minutes := func(key string, into *int) {
		v, ok := st.Setting(ctx, key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > config.MaxMinutes {
			return
		}
		*into = n
	}
	minutes(store.SettingFocusMinutes, &cfg.FocusMinutes)
	minutes(store.SettingBreakMinutes, &cfg.ShortBreakMinutes)
	if v, ok := st.Setting(ctx, store.SettingSoundEnabled); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SoundEnabled = b
		}
	}
	return cfg
}
