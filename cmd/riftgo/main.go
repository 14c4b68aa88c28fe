package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/riftgo/server/internal/config"
	coresys "github.com/riftgo/server/internal/core/system"
	"github.com/riftgo/server/internal/data"
	"github.com/riftgo/server/internal/persist"
	"github.com/riftgo/server/internal/scripting"
	"github.com/riftgo/server/internal/system"
	"github.com/riftgo/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("RIFTGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting server",
		zap.String("name", cfg.Server.Name),
		zap.Int("id", cfg.Server.ID))

	// 3. Connect to PostgreSQL and run migrations
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	schemaVersion, err := persist.RunMigrations(ctx, db.Pool)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database ready", zap.Int64("schema_version", schemaVersion))

	// 4. Load static data tables
	curves, err := data.LoadCurveTable(filepath.Join(cfg.Scene.DataDir, "curves.yaml"))
	if err != nil {
		return fmt.Errorf("load curves: %w", err)
	}
	templates, err := data.LoadTemplateTable(filepath.Join(cfg.Scene.DataDir, "entities.yaml"))
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	log.Info("static data loaded",
		zap.Int("curves", curves.Len()),
		zap.Int("templates", templates.Len()),
		zap.Int("spawns", len(templates.Spawns())))

	// 5. Scripting engine (stat curves + ability modifiers)
	engine, err := scripting.NewEngine(cfg.Scene.ScriptsDir, curves, log)
	if err != nil {
		return fmt.Errorf("init scripting: %w", err)
	}
	defer engine.Close()

	// 6. Build the scene, restore its spawn list, wire tick systems
	scene := world.NewScene(int32(cfg.Server.ID), log)
	repo := persist.NewEntityRepo(db)

	for _, sp := range templates.Spawns() {
		sc := system.SpawnConfig{
			Template: templates.Get(sp.ConfigID),
			GroupID:  sp.GroupID,
			BlockID:  sp.BlockID,
			Pos:      world.Vector{X: sp.X, Y: sp.Y, Z: sp.Z},
			Level:    sp.Level,
		}
		if _, err := system.Restore(ctx, scene, sc, repo, engine); err != nil {
			return fmt.Errorf("restore spawn config_id=%d: %w", sp.ConfigID, err)
		}
	}
	log.Info("scene populated", zap.Int("entities", scene.EntityCount()))

	runner := coresys.NewRunner()
	runner.Register(system.NewAuthoritySystem(scene))
	runner.Register(system.NewOutputSystem(scene, log))
	persistSys := system.NewPersistenceSystem(scene, repo, cfg.Scene.PersistInterval, log)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(scene))

	// 7. Tick loop until SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Scene.TickRate)
	defer ticker.Stop()

	log.Info("scene loop running", zap.Duration("tick", cfg.Scene.TickRate))
	last := time.Now()
	for {
		select {
		case <-stop:
			log.Info("shutting down")
			persistSys.Flush()
			return nil
		case now := <-ticker.C:
			runner.Tick(now.Sub(last))
			last = now
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}
	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
