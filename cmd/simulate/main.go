// Package main runs a headless enemy AI and progression simulation.
// It wires configuration, content, Lua hooks, the world, and save storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arpgcore/internal/config"
	"github.com/cory-johannsen/arpgcore/internal/content"
	"github.com/cory-johannsen/arpgcore/internal/game/dice"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/game/sim"
	"github.com/cory-johannsen/arpgcore/internal/observability"
	"github.com/cory-johannsen/arpgcore/internal/save"
	"github.com/cory-johannsen/arpgcore/internal/scripting"
	"github.com/cory-johannsen/arpgcore/internal/server"
	"github.com/cory-johannsen/arpgcore/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	realtime := flag.Bool("realtime", false, "pace ticks on the wall clock until interrupted")
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

	sc := cfg.Simulation
	lib, err := content.Load(sc.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Strings("enemies", lib.EnemyIDs()),
		zap.Strings("classes", lib.ClassIDs()),
	)

	deps := sim.Deps{Logger: observability.Component(logger, "world")}
	if sc.Seed != 0 {
		deps.Random = dice.NewSeededSource(sc.Seed)
	}
	var scripts *scripting.Manager
	if sc.ScriptDir != "" {
		scripts = scripting.NewManager(observability.Component(logger, "scripts"))
		defer scripts.Close()
		if err := scripts.LoadTree(sc.ScriptDir, sc.InstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		logger.Info("scripts loaded", zap.Strings("scopes", scripts.Scopes()))
		deps.Hooks = scripts
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("opening save store", zap.Error(err))
	}
	defer closeStore()

	world := sim.NewWorld(deps)
	hero, err := spawnHero(ctx, world, lib, store, sc.Hero)
	if err != nil {
		logger.Fatal("spawning hero", zap.Error(err))
	}
	if err := spawnAll(world, lib, sc.Spawns); err != nil {
		logger.Fatal("spawning enemies", zap.Error(err))
	}
	logger.Info("simulation initialized",
		zap.Bool("realtime", *realtime),
		zap.Int("enemies", len(world.Enemies())),
		zap.Duration("startup", time.Since(start)),
	)

	if *realtime {
		err = runRealtime(ctx, cfg, world, &lib, scripts, logger)
	} else {
		ticks := sim.RunFixed(ctx, sc.Ticks, sc.FixedStep, world.Tick, func() bool {
			return !hero.Valid() || len(world.Enemies()) == 0
		})
		logger.Info("fixed-step run complete", zap.Int("ticks", ticks))
	}
	if err != nil {
		logger.Error("simulation stopped with error", zap.Error(err))
	}

	if err := store.Save(ctx, hero.Capture(time.Now())); err != nil {
		logger.Fatal("saving hero", zap.Error(err))
	}
	logger.Info("simulation finished",
		zap.String("hero", hero.Name),
		zap.String("character_id", hero.ID.String()),
		zap.Int("level", hero.Progression.Level()),
		zap.String("xp", hero.Progression.XP().String()),
		zap.Int("kills", hero.Kills()),
		zap.Float64("simulated_seconds", world.Elapsed()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// openStore selects the save backend named by cfg.Storage.Driver.
func openStore(ctx context.Context, cfg config.Config) (save.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSaveRepository(pool.DB()), pool.Close, nil
	default:
		fs, err := save.NewFileStore(cfg.Storage.SaveDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

// spawnHero creates the configured hero and restores its save when one exists.
func spawnHero(ctx context.Context, world *sim.World, lib *content.Library, store save.Store, hc config.HeroConfig) (*sim.Hero, error) {
	class, err := lib.Class(hc.Class)
	if err != nil {
		return nil, err
	}
	hero, err := world.SpawnHero(hc.Name, *class, lib.Progression(), enemy.Vec2{X: hc.X, Y: hc.Y})
	if err != nil {
		return nil, err
	}
	if hc.SaveID == "" {
		return hero, nil
	}

	id, err := uuid.Parse(hc.SaveID)
	if err != nil {
		return nil, fmt.Errorf("parsing hero save_id: %w", err)
	}
	rec, err := store.Load(ctx, id)
	if errors.Is(err, save.ErrSaveNotFound) {
		hero.ID = id
		return hero, nil
	}
	if err != nil {
		return nil, err
	}
	if err := hero.Apply(rec); err != nil {
		return nil, err
	}
	return hero, nil
}

func spawnAll(world *sim.World, lib *content.Library, spawns []config.SpawnConfig) error {
	for _, sp := range spawns {
		def, err := lib.Enemy(sp.Template)
		if err != nil {
			return err
		}
		if _, err := world.SpawnEnemy(def, enemy.Vec2{X: sp.X, Y: sp.Y}); err != nil {
			return err
		}
	}
	return nil
}

// runRealtime ticks the world on the wall clock until interrupted. Content
// reloads are applied on the tick goroutine, and a cleared wave respawns from
// the latest content.
func runRealtime(ctx context.Context, cfg config.Config, world *sim.World, lib **content.Library, scripts *scripting.Manager, logger *zap.Logger) error {
	sc := cfg.Simulation
	lifecycle := server.NewLifecycle(logger)
	runner := sim.NewRunner(sc.TickInterval)

	if sc.WatchContent {
		watcher, err := content.NewWatcher(sc.ContentDir, observability.Component(logger, "content"))
		if err != nil {
			return fmt.Errorf("watching content: %w", err)
		}
		lifecycle.Add("content-watcher", server.ServiceFunc(watcher.Run))
		runner.Register("reload", func(float64) {
			for {
				select {
				case r, ok := <-watcher.Reloads():
					if !ok {
						return
					}
					applyReload(r, lib, scripts, sc, logger)
				default:
					return
				}
			}
		})
	}

	runner.Register("world", world.Tick)
	runner.Register("waves", func(float64) {
		if len(world.Enemies()) > 0 || !world.Hero().Valid() {
			return
		}
		if err := spawnAll(world, *lib, sc.Spawns); err != nil {
			logger.Warn("respawning wave", zap.Error(err))
			return
		}
		logger.Info("wave respawned", zap.Int("enemies", len(world.Enemies())))
	})
	lifecycle.Add("simulation", server.ServiceFunc(runner.Run))

	return lifecycle.Run(ctx)
}

func applyReload(r content.Reload, lib **content.Library, scripts *scripting.Manager, sc config.SimulationConfig, logger *zap.Logger) {
	switch {
	case r.Script():
		if scripts == nil {
			return
		}
		if err := scripts.ReloadFile(sc.ScriptDir, r.Path, sc.InstructionLimit); err != nil {
			logger.Warn("script reload failed", zap.String("path", r.Path), zap.Error(err))
			return
		}
		logger.Info("script reloaded", zap.String("path", r.Path))
	case r.Err != nil:
		logger.Warn("content reload failed, keeping previous content", zap.String("path", r.Path), zap.Error(r.Err))
	default:
		*lib = r.Library
		logger.Info("content reloaded",
			zap.String("path", r.Path),
			zap.Strings("enemies", r.Library.EnemyIDs()),
		)
	}
}
