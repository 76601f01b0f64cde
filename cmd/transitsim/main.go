package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/transitloop/sim/internal/config"
	"github.com/transitloop/sim/internal/core/event"
	coresys "github.com/transitloop/sim/internal/core/system"
	"github.com/transitloop/sim/internal/data"
	"github.com/transitloop/sim/internal/observability"
	"github.com/transitloop/sim/internal/persist"
	"github.com/transitloop/sim/internal/scripting"
	"github.com/transitloop/sim/internal/system"
	"github.com/transitloop/sim/internal/track"
	"github.com/transitloop/sim/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

var out = message.NewPrinter(language.English)

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            transitsim  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      closed-loop transit simulation       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := out.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Sim.Seed == 0 {
		cfg.Sim.Seed = time.Now().UnixNano()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
	tracer := observability.Tracer()

	// 3. Load track and stations
	printSection("data")
	layout, err := data.LoadTrackLayout(cfg.Data.TrackPath)
	if err != nil {
		return fmt.Errorf("track layout: %w", err)
	}
	loop, err := track.NewLoop(layout.Vecs())
	if err != nil {
		return fmt.Errorf("track %s: %w", layout.Name, err)
	}
	stations, err := data.LoadStationTable(cfg.Data.StationsPath)
	if err != nil {
		return fmt.Errorf("stations: %w", err)
	}
	printStat("track points", len(layout.Points))
	printStat("track length", int(loop.Length()))
	printStat("stations", stations.Count())

	// 4. Policy scripts
	policy, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer policy.Close()
	for _, fn := range scripting.PolicyFuncs {
		if policy.Has(fn) {
			printOK(fn + " scripted")
		} else {
			printOK(fn + " built-in")
		}
	}
	fmt.Println()

	// 5. Optional journey ledger
	var repo *persist.JourneyRepo
	if cfg.Ledger.Enabled {
		printSection("ledger")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Ledger, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		repo = persist.NewJourneyRepo(db)
		runID, err := repo.StartRun(ctx, cfg.Sim.Seed, stations.Count(), cfg.Train.NumTrains)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		printStat("run id", int(runID))
		fmt.Println()
	}

	// 6. Metrics
	metrics, err := observability.NewSimCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	var metricsSrv *http.Server
	if cfg.Metrics.BindAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.Metrics.BindAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// 7. World state and bootstrap
	ws := world.NewState(world.Options{
		Config: cfg,
		Source: loop,
		Logger: log,
		Policy: policy,
		Rand:   rand.New(rand.NewSource(cfg.Sim.Seed)),
	})
	_, bootSpan := tracer.Start(context.Background(), "sim.bootstrap")
	bootSpan.SetAttributes(
		attribute.Int("stations", stations.Count()),
		attribute.Int("trains", cfg.Train.NumTrains),
	)
	err = ws.Bootstrap(stations.All())
	bootSpan.End()
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	var journeys int
	event.Subscribe(ws.Bus, func(event.JourneyCompleted) { journeys++ })

	// 8. Register systems by phase
	runner := coresys.NewRunner()
	clock := system.NewClockSystem(ws)
	runner.Register(clock)
	runner.Register(system.NewHeadwaySystem(ws))
	runner.Register(system.NewTrainMovementSystem(ws))
	runner.Register(system.NewCarriageFollowSystem(ws))
	runner.Register(system.NewStationDetectSystem(ws))
	runner.Register(system.NewStationOpsSystem(ws))
	runner.Register(system.NewPassengerSystem(ws))
	runner.Register(system.NewPassengerLocomotionSystem(ws))
	runner.Register(system.NewPassengerSpawnSystem(ws))
	runner.Register(system.NewSpawnSystem(ws))
	runner.Register(system.NewMetricsSystem(ws, metrics, 20))
	var ledger *system.LedgerSystem
	if repo != nil {
		ledger = system.NewLedgerSystem(ws, repo, cfg.Ledger.FlushIntervalTicks)
		runner.Register(ledger)
	}
	runner.Register(system.NewCleanupSystem(ws))

	// 9. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("running")
	printStat("trains", cfg.Train.NumTrains)
	printStat("carriages per train", cfg.Train.CarriagesPerTrain)
	printStat("systems", runner.Len())
	if metricsSrv != nil {
		printOK("metrics on http://" + cfg.Metrics.BindAddress + "/metrics")
	}
	printReady(out.Sprintf("simulating at %v per tick (seed %d)", cfg.Sim.TickRate, cfg.Sim.Seed))
	fmt.Println()

	log.Info("simulation started",
		zap.Duration("tick_rate", cfg.Sim.TickRate),
		zap.Int64("seed", cfg.Sim.Seed),
		zap.Uint64("max_ticks", cfg.Sim.MaxTicks),
	)

tickLoop:
	for {
		select {
		case <-ticker.C:
			_, span := tracer.Start(context.Background(), "sim.tick")
			start := time.Now()
			runner.Tick(cfg.Sim.TickRate)
			metrics.ObserveTick(time.Since(start))
			span.SetAttributes(attribute.Int64("tick", int64(runner.Ticks())))
			span.End()
			if cfg.Sim.MaxTicks > 0 && runner.Ticks() >= cfg.Sim.MaxTicks {
				log.Info("tick limit reached", zap.Uint64("ticks", runner.Ticks()))
				break tickLoop
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			break tickLoop
		}
	}

	// 10. Shutdown
	clock.Drain()
	if ledger != nil {
		ledger.Flush()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.FinishRun(ctx, runner.Ticks()); err != nil {
			log.Warn("finish run", zap.Error(err))
		}
		if stats, err := repo.RouteStats(ctx); err == nil {
			for _, s := range stats {
				log.Info("route",
					zap.Int("origin", s.Origin),
					zap.Int("destination", s.Destination),
					zap.Int64("journeys", s.Count),
					zap.Float64("avg_seconds", s.AvgSeconds),
				)
			}
		}
	}
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}

	fmt.Println()
	printSection("summary")
	printStat("ticks", int(runner.Ticks()))
	printStat("journeys completed", journeys)
	printStat("passengers live", ws.Spawner.LiveCount(world.KindPassenger))
	printStat("passengers pooled", ws.Spawner.PoolCount(world.KindPassenger))
	log.Info("simulation stopped", zap.Float64("sim_seconds", ws.Now))
	return nil
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
