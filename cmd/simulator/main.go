// Package main provides the encounter simulator binary: it loads content,
// runs one scenario to completion, and renders the encounter transcript.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/effect"
	"github.com/cory-johannsen/skirmish/internal/game/scenario"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = defaults and SKIRMISH_ environment")
	scenarioPath := flag.String("scenario", "", "path to the scenario YAML to run")
	reportPath := flag.String("report", "", "write the full JSON report to this file")
	flag.Parse()

	if *scenarioPath == "" {
		log.Fatal("usage: simulator -scenario <file.yaml> [-config <file.yaml>] [-report <file.json>]")
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
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

	// Stored character sheets join the registry so scenarios can field them
	// by name alongside file-loaded monsters.
	var encounterRepo *postgres.EncounterRepository
	if cfg.Database.Enabled {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)))

		charRepo := postgres.NewCharacterRepository(pool.DB())
		records, err := charRepo.List(ctx)
		if err != nil {
			logger.Fatal("loading stored characters", zap.Error(err))
		}
		registered := 0
		for _, rec := range records {
			if err := registry.RegisterMonster(&rec.Sheet); err != nil {
				logger.Warn("skipping stored character",
					zap.String("name", rec.Name), zap.Error(err))
				continue
			}
			registered++
		}
		if registered > 0 {
			if err := registry.Finalize(); err != nil {
				logger.Fatal("resolving stored characters", zap.Error(err))
			}
			logger.Info("stored characters registered", zap.Int("count", registered))
		}
		encounterRepo = postgres.NewEncounterRepository(pool.DB())
	}

	var scripts *scripting.Manager
	if cfg.Scripting.Enabled {
		scripts = scripting.NewManager(dice.NewLoggedRoller(dice.NewCryptoSource(), logger), logger)
		defer scripts.Close()
		if info, err := os.Stat(cfg.Scripting.Dir); err == nil && info.IsDir() {
			if err := scripts.LoadGlobal(cfg.Scripting.Dir, scripting.DefaultInstructionLimit); err != nil {
				logger.Fatal("loading global scripts",
					zap.String("dir", cfg.Scripting.Dir), zap.Error(err))
			}
			logger.Info("global scripts loaded", zap.String("dir", cfg.Scripting.Dir))
		}
	}

	scn, err := scenario.Load(*scenarioPath)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}

	limits := effect.Limits{
		MaxModifiers:            cfg.Rules.MaxModifierEffects,
		MaxDamageOverTime:       cfg.Rules.MaxDotEffects,
		MaxHealingOverTime:      cfg.Rules.MaxHotEffects,
		MaxTriggers:             cfg.Rules.MaxTriggerEffects,
		IncapacitationExclusive: cfg.Rules.IncapacitationExclusive,
	}
	runner := scenario.NewRunner(registry, limits, combat.Config{AutoHitOnCrit: cfg.Rules.AutoHitOnCrit}, logger)
	runner.Scripts = scripts

	res, err := runner.Run(scn)
	if err != nil {
		logger.Fatal("running scenario", zap.Error(err))
	}

	render(os.Stdout, scn.Name, res)

	if *reportPath != "" {
		data, err := json.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			logger.Fatal("encoding report", zap.Error(err))
		}
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			logger.Fatal("writing report", zap.Error(err))
		}
		logger.Info("report written", zap.String("path", *reportPath))
	}

	if encounterRepo != nil {
		rec, err := encounterRepo.Save(ctx, scn.Name, res.Seed, res.Report)
		if err != nil {
			logger.Fatal("storing encounter", zap.Error(err))
		}
		logger.Info("encounter stored", zap.Int64("id", rec.ID))
	}

	logger.Info("simulation complete",
		zap.String("victor", string(res.Report.Victor)),
		zap.Int("rounds", res.Report.Rounds),
		zap.Duration("elapsed", time.Since(start)))
}

// render prints the transcript: a header with the replay seed, one line per
// event, and the closing tally.
func render(w io.Writer, name string, res *scenario.Result) {
	fmt.Fprintf(w, "=== %s (seed %d) ===\n", name, res.Seed)
	for _, ev := range res.Report.Events {
		fmt.Fprintf(w, "[%2d] %s\n", ev.Round, ev.Narrative)
	}
	fmt.Fprintf(w, "\nVictor: %s after %d rounds\n", res.Report.Victor, res.Report.Rounds)
	if len(res.Report.Survivors) > 0 {
		fmt.Fprintf(w, "Survivors: %s\n", strings.Join(res.Report.Survivors, ", "))
	}
}
