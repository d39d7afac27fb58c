// Command taskflow-tui is a terminal client for a running taskflow server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s1natex/taskflow/internal/client"
	"github.com/s1natex/taskflow/internal/ui"
	"github.com/s1natex/taskflow/internal/view"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskflow-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("taskflow-tui", flag.ContinueOnError)
	server := fs.String("server", envOr("TASKFLOW_URL", "http://localhost:8080"), "base URL of the taskflow server")
	prefsPath := fs.String("prefs", "", "path to the UI prefs file (default: user config dir)")
	logPath := fs.String("log", "", "write JSON logs to this file")
	timeout := fs.Duration("timeout", 10*time.Second, "per-request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, closeLog, err := openLog(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	if *prefsPath == "" {
		if *prefsPath, err = ui.DefaultPrefsPath(); err != nil {
			return err
		}
	}
	prefs, err := ui.LoadPrefs(*prefsPath)
	if err != nil {
		// bad prefs fall back to defaults and get rewritten on the next theme change
		logger.Warn("prefs_load_error", slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("tui_start", slog.String("server", *server))
	err = ui.Run(ctx, view.NewSyncer(client.New(*server)), ui.Options{
		PrefsPath: *prefsPath,
		Prefs:     prefs,
		Timeout:   *timeout,
		Logger:    logger,
	}, tea.WithAltScreen())
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func openLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(slog.NewJSONHandler(f, nil)), func() { _ = f.Close() }, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
