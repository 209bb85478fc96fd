package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/spectators/internal/config"
	"github.com/l1jgo/spectators/internal/core/ecs"
	"github.com/l1jgo/spectators/internal/core/event"
	coresys "github.com/l1jgo/spectators/internal/core/system"
	"github.com/l1jgo/spectators/internal/data"
	"github.com/l1jgo/spectators/internal/metrics"
	"github.com/l1jgo/spectators/internal/persist"
	"github.com/l1jgo/spectators/internal/scripting"
	"github.com/l1jgo/spectators/internal/system"
	"github.com/l1jgo/spectators/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            spectators  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      grid visibility · cached queries     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(id: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("SPECTATORS_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worldData, err := loadWorldData(ctx, cfg, log)
	if err != nil {
		return err
	}

	bus := event.NewBus()
	ecsWorld := ecs.NewWorld()
	worldState := world.NewState(ecsWorld, bus, world.Options{
		FloorSize:           cfg.World.FloorSize,
		ImmediateInvalidate: cfg.World.ImmediateInvalidate,
	}, log)

	printSection("world")
	for _, r := range worldData.Regions {
		worldState.AllocateRegion(r.StartX, r.StartY, r.EndX, r.EndY)
	}
	printStat("regions", len(worldData.Regions))
	printStat("grid leaves", worldState.Grid().LeafCount())
	printStat("creatures", spawnCreatures(worldState, worldData.Spawns, log))
	fmt.Println()

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewWanderSystem(worldState, cfg.Loop.WanderEvery, nil))
	runner.Register(system.NewSpectatorCacheSystem(worldState, log))
	runner.Register(system.NewVisibilitySystem(worldState, bus, cfg.Loop.VisibilityEvery))
	runner.Register(system.NewCleanupSystem(ecsWorld, log))

	if cfg.Scripting.Enabled {
		luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, worldState, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		runner.Register(system.NewScriptSystem(luaEngine))
		printOK("lua scripts loaded")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		runner.Register(system.NewMetricsSystem(worldState, bus, m, 20))
	}

	g, gctx := errgroup.WithContext(ctx)

	if m != nil {
		srv := &http.Server{
			Addr:              cfg.Metrics.BindAddress,
			Handler:           metricsMux(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	printSection("ready")
	if m != nil {
		printReady(fmt.Sprintf("metrics on http://%s/metrics", cfg.Metrics.BindAddress))
	}
	printReady(fmt.Sprintf("game loop started (tick: %s, systems: %d)", cfg.Loop.TickRate, runner.Len()))
	fmt.Println()

	g.Go(func() error {
		return gameLoop(gctx, runner, cfg.Loop.TickRate, m)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped", zap.Uint64("ticks", runner.Ticks()), zap.Int("creatures", worldState.CreatureCount()))
	return nil
}

// gameLoop owns every world mutation; nothing else may touch State.
func gameLoop(ctx context.Context, runner *coresys.Runner, tickRate time.Duration, m *metrics.Metrics) error {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			runner.Tick(tickRate)
			if m != nil {
				m.ObserveTick(time.Since(start))
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

// loadWorldData reads regions and spawns from PostgreSQL when the database
// is enabled, otherwise from the YAML world file.
func loadWorldData(ctx context.Context, cfg *config.Config, log *zap.Logger) (*data.WorldData, error) {
	if !cfg.Database.Enabled {
		printSection("data")
		wd, err := data.LoadWorld(cfg.World.DataFile)
		if err != nil {
			return nil, fmt.Errorf("load world: %w", err)
		}
		printOK(fmt.Sprintf("world file %s", cfg.World.DataFile))
		fmt.Println()
		return wd, nil
	}

	printSection("database")
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(dbCtx, db.Pool)
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("migrations applied (version %d)", version))

	wd, err := persist.NewWorldRepo(db).Load(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	fmt.Println()
	return wd, nil
}

func spawnCreatures(ws *world.State, spawns []data.SpawnEntry, log *zap.Logger) int {
	n := 0
	for _, s := range spawns {
		kind, ok := world.ParseCategory(s.Kind)
		if !ok {
			log.Warn("skipping spawn with unknown kind", zap.String("name", s.Name), zap.String("kind", s.Kind))
			continue
		}
		c := ws.Spawn(s.Name, kind, world.Position{X: s.X, Y: s.Y, Z: s.Z})
		if c == nil {
			continue
		}
		c.WanderRange = s.WanderRange
		n++
	}
	return n
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
