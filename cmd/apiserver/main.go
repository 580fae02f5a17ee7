// API server entry point for the reagent analysis service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/synthbench/reagent/internal/application/analysis"
	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/assistant"
	"github.com/synthbench/reagent/internal/infrastructure/cache"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
	"github.com/synthbench/reagent/internal/infrastructure/pubchem"
	"github.com/synthbench/reagent/internal/intelligence/resolve"
	httpserver "github.com/synthbench/reagent/internal/interfaces/http"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: using environment/default configuration: %v\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: initializing logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	logger.Info("starting reagent api server", logging.Int("port", cfg.Server.Port))

	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Compound cache: Redis when configured, in-process otherwise.
	var store cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		redisStore, rerr := cache.NewRedisStore(ctx, cfg.Redis)
		if rerr != nil {
			logger.Warn("redis unavailable, using in-process cache", logging.Err(rerr))
		} else {
			defer redisStore.Close()
			store = redisStore
		}
	}
	compoundCache := cache.NewCompoundCache(store, cfg.Resolver.CacheTTL, cfg.Redis.KeyPrefix, logger, m)

	pubchemClient := pubchem.NewClient(cfg.PubChem, logger, m)
	defer pubchemClient.Close()

	assistantClient, err := assistant.NewClient(cfg.Assistant, logger, m)
	if err != nil {
		logger.Warn("assistant unavailable", logging.Err(err))
		assistantClient = nil
	}

	source := resolve.NewCachedSource(compoundCache, pubchemClient)
	var suggester resolve.Suggester
	var extractor analysis.Extractor
	var narrator analysis.Narrator
	if assistantClient != nil && assistantClient.Enabled() {
		suggester = assistantClient
		extractor = assistantClient
		narrator = assistantClient
	}

	resolver := resolve.NewResolver(source, resolve.NewCatalog(), suggester, logger, m)
	orchestrator := resolve.NewOrchestrator(resolver, cfg.Resolver.Concurrency, logger, m)
	calculator := reaction.NewCalculator(cfg.Resolver.LimitingTolerance, cfg.Resolver.EquivalentsPrecision)
	service := analysis.NewService(extractor, resolver, orchestrator, calculator, narrator, logger)

	server := httpserver.NewServer(cfg.Server, service, logger, m)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", logging.Err(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", logging.Err(err))
			os.Exit(1)
		}
		logger.Info("shutdown complete")
	}
}
