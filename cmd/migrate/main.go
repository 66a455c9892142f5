package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/MikeMC777/agromarket/internal/config"
	"github.com/MikeMC777/agromarket/internal/logger"
	"github.com/MikeMC777/agromarket/internal/storage"
)

func main() {
	var dsn, logLevel string
	flag.StringVar(&dsn, "dsn", "", "Postgres DSN (default: POSTGRES_DSN)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	defer func() { _ = log.Sync() }()

	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("load config", zap.Error(err))
		}
		dsn = cfg.Storage.PostgresDSN
	}

	switch args[0] {
	case "up":
		if err := storage.Migrate(dsn, log); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				log.Fatal("invalid step count", zap.String("value", args[1]))
			}
			steps = n
		}
		if err := storage.Rollback(dsn, steps, log); err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}

	case "version":
		version, dirty, err := storage.Version(dsn)
		if err != nil {
			log.Fatal("read version", zap.Error(err))
		}
		if version == 0 {
			log.Info("no migrations applied")
			return
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		log.Error("unknown command", zap.String("command", args[0]))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`agromarket schema migrations

Usage:
  migrate [flags] <command>

Commands:
  up          Apply all pending migrations
  down [n]    Roll back n migrations (default 1)
  version     Show the current migration version

Flags:
  -dsn string         Postgres DSN (default: POSTGRES_DSN)
  -log-level string   debug, info, warn, error (default: info)`)
}
