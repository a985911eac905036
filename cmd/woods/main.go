// Package main provides the local Whispering Woods console client. It runs
// the same session as the Telnet server over stdin and stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gookit/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/config"
	"github.com/whisperingwoods/woods/internal/frontend/handlers"
	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/observability"
	"github.com/whisperingwoods/woods/internal/storage/backend"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults and WOODS_ env when empty)")
	verbose := flag.Bool("verbose", false, "log at the configured level instead of warn")
	noColor := flag.Bool("no-color", false, "disable colored output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if !*verbose {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Format = "console"

	logger, err := observability.NewLoggerTo(cfg.Logging, zapcore.Lock(os.Stderr))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	if *noColor {
		color.Disable()
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("session ended with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	base, err := world.LoadContentFromFile(cfg.Game.ContentPath)
	if err != nil {
		return err
	}
	mgr, err := world.NewManager(base.WithRules(cfg.Game.ConfrontationRoom, cfg.Game.RequiredItems))
	if err != nil {
		return fmt.Errorf("building world: %w", err)
	}

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if ov := admin.NewEditor(store.Open(cfg.Game.Namespace), logger).Load(ctx); ov != nil {
		mgr.SetOverlay(ov)
	}

	console := handlers.NewStreamTerminal(os.Stdin, os.Stdout)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		console.ReadSecret = func() (string, error) {
			pw, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stdout)
			return string(pw), err
		}
	}

	handler := handlers.NewHandler(mgr, store.Open, cfg.Game.Namespace, observability.Component(logger, "session"))
	return handler.Run(ctx, console)
}
