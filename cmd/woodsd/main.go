// Package main provides the Whispering Woods Telnet server. Every
// connection plays its own game in a save slot chosen at login.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gookit/color"
	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/config"
	"github.com/whisperingwoods/woods/internal/frontend/handlers"
	"github.com/whisperingwoods/woods/internal/frontend/telnet"
	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/observability"
	"github.com/whisperingwoods/woods/internal/server"
	"github.com/whisperingwoods/woods/internal/storage/backend"
)

const healthInterval = 30 * time.Second

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting Whispering Woods server",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("namespace", cfg.Game.Namespace),
	)

	base, err := world.LoadContentFromFile(cfg.Game.ContentPath)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	base = base.WithRules(cfg.Game.ConfrontationRoom, cfg.Game.RequiredItems)
	mgr, err := world.NewManager(base)
	if err != nil {
		logger.Fatal("building world", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("path", cfg.Game.ContentPath),
		zap.Int("rooms", mgr.RoomCount()),
		zap.String("start", base.StartingRoom),
		zap.String("confrontation", base.ConfrontationRoom),
		zap.Int("required_items", base.RequiredItems),
	)

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}

	if ov := admin.NewEditor(store.Open(cfg.Game.Namespace), logger).Load(ctx); ov != nil {
		mgr.SetOverlay(ov)
		logger.Info("overlay applied", zap.Int("patches", len(ov.Rooms)))
	}

	// Telnet clients get color even though stdout may not be a terminal.
	color.ForceOpenColor()

	handler := handlers.NewHandler(mgr, store.Open, cfg.Game.Namespace, observability.Component(logger, "session"))
	acceptor := telnet.NewAcceptor(cfg.Telnet, handler, observability.Component(logger, "telnet"))

	lifecycle := server.NewLifecycle(logger)

	done := make(chan struct{})
	lifecycle.Add("storage", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(healthInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					if err := store.Health(ctx, 5*time.Second); err != nil {
						logger.Warn("storage health check failed", zap.String("backend", store.Name), zap.Error(err))
					}
				}
			}
		},
		StopFn: func() {
			close(done)
			store.Close()
		},
	})

	lifecycle.Add("telnet", acceptor)

	logger.Info("server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
