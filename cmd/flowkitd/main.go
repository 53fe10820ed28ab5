package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/flowkit/catalog"
	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/engine"
	"github.com/kbukum/flowkit/generation"
	"github.com/kbukum/flowkit/intake"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/repair"
	"github.com/kbukum/flowkit/saga"
	"github.com/kbukum/flowkit/store"
	"github.com/kbukum/flowkit/template"
	"github.com/kbukum/flowkit/validate"
	"github.com/kbukum/flowkit/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetFullVersion())
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "flowkitd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg config.Config
	var opts []config.LoaderOption
	if configPath != "" {
		opts = append(opts, config.WithConfigFile(configPath))
	}
	if err := config.Load(&cfg, opts...); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting", logger.Fields(
		"version", version.GetShortVersion(),
		"environment", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	engineClient := engine.NewClient(cfg.Engine)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	cat, err := catalog.New(engineClient, cfg.Catalog, log)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	providers := make([]generation.Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		providers = append(providers, generation.NewHTTPProvider(pc))
	}

	pipe := pipeline.New(cfg.Pipeline, pipeline.Deps{
		Catalog:    cat,
		Matcher:    template.NewMatcher(cfg.Template),
		Generator:  generation.NewOrchestrator(cfg.Generation, providers, log),
		Structural: validate.NewStructural(cat),
		DryRun:     validate.NewDryRunner(engineClient, log),
		Simulator:  validate.NewSimulator(engineClient, log),
		Fixer:      repair.NewFixer(cat, log),
		RepairCfg:  cfg.Repair,
		Deployer:   saga.NewCoordinator(cfg.Saga, engineClient, st, log),
		Store:      st,
		Log:        log,
	})
	pool := pipeline.NewPool(pipe, cfg.Pipeline.MaxConcurrent)

	server := intake.New(cfg.Server, pool, healthChecker(cfg, cat), log)
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("shutting down")
	return server.Stop(context.Background())
}

func openStore(ctx context.Context, cfg store.Config) (store.Store, error) {
	switch cfg.Driver {
	case "", store.DriverMemory:
		return store.NewMemory(), nil
	case store.DriverPostgres:
		return store.NewPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func healthChecker(cfg config.Config, cat *catalog.Catalog) intake.HealthChecker {
	return func(ctx context.Context) *observability.ServiceHealth {
		sh := observability.NewServiceHealth(cfg.Name, version.GetShortVersion())

		catHealth := observability.Health{Name: "catalog", Status: observability.HealthStatusUp}
		if cat.IsFallback() {
			catHealth.Status = observability.HealthStatusDegraded
			catHealth.Message = "serving bundled fallback catalog"
		}
		sh.AddComponent(catHealth)

		return sh
	}
}
