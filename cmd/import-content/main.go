// Package main provides the sheet import tool: it validates a directory of
// character sheets against loaded content and stores them in the campaign
// database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/importer"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty = defaults and SKIRMISH_ environment")
	sheetsDir := flag.String("sheets", "", "path to the character sheet directory")
	flag.Parse()

	if *sheetsDir == "" {
		fmt.Fprintln(os.Stderr, "usage: import-content -sheets <dir> [-config <file.yaml>]")
		os.Exit(1)
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if !cfg.Database.Enabled {
		log.Fatal("import-content requires database.enabled")
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	registry, err := content.Load(cfg.Data.Dir, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	imp := importer.New(registry, postgres.NewCharacterRepository(pool.DB()))
	if err := imp.Run(ctx, *sheetsDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
