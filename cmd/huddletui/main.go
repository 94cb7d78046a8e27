package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/coder/quartz"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/invite"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/notify"
	"github.com/matheus3301/huddle/internal/session"
	intsync "github.com/matheus3301/huddle/internal/sync"
	"github.com/matheus3301/huddle/internal/tui"
	"github.com/matheus3301/huddle/internal/tui/client"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	noStart := flag.Bool("no-start", false, "fail instead of starting huddled")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	profile := session.Resolve(*profileFlag)
	if err := session.ValidateName(profile); err != nil {
		fatal(err)
	}
	if err := session.EnsureDir(profile); err != nil {
		fatal(err)
	}

	cfg, err := config.LoadProfile(session.ProfileConfigPath(profile), session.EnvPath(profile))
	if err != nil {
		fatal(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		fatal(err)
	}

	level := zapcore.InfoLevel
	if *debug {
		level = zapcore.DebugLevel
	}
	// The terminal belongs to tview; log to the file only.
	logger, err := logging.New(session.LogPath(profile, "huddletui"), profile, logging.Options{Level: level})
	if err != nil {
		fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := client.Connect(ctx, profile, !*noStart, logger)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = store.Close() }()

	b := bus.New()
	dispatcher, err := notify.FromConfig(cfg.Notifications, b, logger)
	if err != nil {
		fatal(err)
	}

	c := chat.New(chat.Config{
		Store:         store,
		Dispatcher:    dispatcher,
		Bus:           b,
		Logger:        logger,
		Strategy:      intsync.Strategy(cfg.Sync.Notify),
		NotifyInitial: cfg.Sync.NotifyInitial,
		SubmitMode:    cfg.Submit.Mode,
		Clock:         quartz.NewReal(),
		Location:      loc,
	})
	if err := c.Start(ctx); err != nil {
		// The composer still works; the status bar shows DEGRADED.
		logger.Warn("subscribe failed", zap.Error(err))
	}
	defer c.Close()

	app := tui.NewApp(tui.Config{
		Client:  c,
		Bus:     b,
		Logger:  logger,
		Profile: profile,
		Invite:  func() (string, error) { return invite.Link(cfg.Store) },
	})
	if err := app.Run(); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
