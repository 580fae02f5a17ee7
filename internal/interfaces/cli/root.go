// Package cli implements the reagent command-line client.  Commands wire the
// analysis pipeline directly, so the CLI works without a running server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/synthbench/reagent/internal/application/analysis"
	"github.com/synthbench/reagent/internal/config"
	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/assistant"
	"github.com/synthbench/reagent/internal/infrastructure/cache"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/pubchem"
	"github.com/synthbench/reagent/internal/intelligence/resolve"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	Output     string // "json" | "text"
	Verbose    bool
}

// NewRootCommand builds the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "reagent",
		Short:         "Analyze chemical reactions: extraction, identity resolution, stoichiometry",
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to configuration file")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "text", "output format: json|text")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newAnalyzeCommand(opts),
		newLookupCommand(opts),
	)
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// buildService assembles the full pipeline from configuration.  The returned
// cleanup releases the clients.
func buildService(opts *RootOptions) (*analysis.Service, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(logging.LogConfig{Level: cfg.Log.Level, Format: "console"})
	if err != nil {
		return nil, nil, err
	}

	compoundCache := cache.NewCompoundCache(cache.NewMemoryStore(), cfg.Resolver.CacheTTL, cfg.Redis.KeyPrefix, logger, nil)
	pubchemClient := pubchem.NewClient(cfg.PubChem, logger, nil)

	var suggester resolve.Suggester
	var extractor analysis.Extractor
	var narrator analysis.Narrator
	assistantClient, err := assistant.NewClient(cfg.Assistant, logger, nil)
	if err == nil && assistantClient.Enabled() {
		suggester = assistantClient
		extractor = assistantClient
		narrator = assistantClient
	}

	resolver := resolve.NewResolver(resolve.NewCachedSource(compoundCache, pubchemClient), resolve.NewCatalog(), suggester, logger, nil)
	orchestrator := resolve.NewOrchestrator(resolver, cfg.Resolver.Concurrency, logger, nil)
	calculator := reaction.NewCalculator(cfg.Resolver.LimitingTolerance, cfg.Resolver.EquivalentsPrecision)
	service := analysis.NewService(extractor, resolver, orchestrator, calculator, narrator, logger)
	return service, pubchemClient.Close, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
