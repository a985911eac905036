// Package main provides the overlay editor CLI: it lists, patches, imports
// and exports the admin room overlay stored alongside the save slots.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/config"
	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/observability"
	"github.com/whisperingwoods/woods/internal/storage/backend"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	password := flag.String("password", "", "editor password (prompted for when empty)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "\nflags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	cfg.Logging.Format = "console"
	logger, err := observability.NewLoggerTo(cfg.Logging, zapcore.Lock(os.Stderr))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	base, err := world.LoadContentFromFile(cfg.Game.ContentPath)
	if err != nil {
		log.Fatalf("loading content: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("opening storage: %v", err)
	}
	defer store.Close()

	root := store.Open(cfg.Game.Namespace)
	t := &tool{
		base:   base,
		editor: admin.NewEditor(root, logger),
		gate:   admin.NewGate(root),
		out:    os.Stdout,
		secret: passwordReader(*password),
	}
	if err := t.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "%v\n\n%s\n", err, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "overlay: %v\n", err)
		os.Exit(1)
	}
}

// passwordReader returns fixed when set; otherwise it prompts on stderr and
// reads without echo from a terminal, or a line from piped stdin.
func passwordReader(fixed string) func(prompt string) (string, error) {
	stdin := bufio.NewReader(os.Stdin)
	return func(prompt string) (string, error) {
		if fixed != "" {
			return fixed, nil
		}
		fmt.Fprint(os.Stderr, prompt)
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			pw, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			return string(pw), err
		}
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
