// Package main manages the kv_entries schema behind the postgres storage backend.
//
// Usage:
//
//	migrate [-config path] [-source url] up [steps]
//	migrate [-config path] [-source url] down [steps]
//	migrate [-config path] [-source url] status
//	migrate [-config path] [-source url] force <version>
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/whisperingwoods/woods/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "configs/dev.yaml", "path to configuration file")
	source := fs.String("source", "file://migrations", "migration source URL")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	p, err := parsePlan(fs.Args())
	if err != nil {
		return err
	}

	dbCfg, err := loadDatabase(*configPath)
	if err != nil {
		return err
	}

	m, err := migrate.New(*source, dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("opening %s on %s/%s: %w", *source, dbCfg.Host, dbCfg.Name, err)
	}
	defer m.Close()

	start := time.Now()
	msg, err := apply(m, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "kv_entries: %s [%s]\n", msg, time.Since(start).Round(time.Millisecond))
	return nil
}

// loadDatabase reads only the database section, so a config naming another
// storage backend still works for schema management.
func loadDatabase(path string) (config.DatabaseConfig, error) {
	v := config.NewViper()
	v.SetConfigFile(path)
	var dbCfg config.DatabaseConfig
	if err := v.ReadInConfig(); err != nil {
		return dbCfg, fmt.Errorf("reading config: %w", err)
	}
	if err := v.UnmarshalKey("database", &dbCfg); err != nil {
		return dbCfg, fmt.Errorf("parsing database config: %w", err)
	}
	return dbCfg, nil
}
