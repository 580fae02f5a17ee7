package resolve

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
)

// Orchestrator resolves whole batches with a fixed-size worker pool.  Result
// order always matches input order: each worker writes only its own
// index-addressed slot.
type Orchestrator struct {
	resolver    *Resolver
	concurrency int
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewOrchestrator builds the orchestrator.  Non-positive concurrency falls
// back to 2, the external source's polite parallelism.
func NewOrchestrator(resolver *Resolver, concurrency int, logger logging.Logger, m *metrics.Metrics) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 2
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Orchestrator{
		resolver:    resolver,
		concurrency: concurrency,
		logger:      logger.Named("orchestrator"),
		metrics:     m,
	}
}

// ResolveBatch settles every component concurrently and returns them in
// input order.  A panicking or canceled worker settles its component as
// unresolved; one bad component never poisons the batch.
func (o *Orchestrator) ResolveBatch(ctx context.Context, components []reaction.RawComponent, reactionContext string) []*reaction.ResolvedComponent {
	start := time.Now()
	results := make([]*reaction.ResolvedComponent, len(components))
	if len(components) == 0 {
		return results
	}

	prior := reaction.NewResolvedNames()
	sem := make(chan struct{}, o.concurrency)
	var wg sync.WaitGroup

	for i := range components {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if rec := recover(); rec != nil {
					o.logger.Error("resolution worker panicked",
						logging.Int("index", i),
						logging.String("component", components[i].Name),
						logging.Any("panic", rec))
					results[i] = reaction.NewUnresolved(components[i], nil,
						fmt.Sprintf("internal error during resolution: %v", rec))
				}
			}()
			results[i] = o.resolver.ResolveOne(ctx, components[i], prior, reactionContext)
		}(i)
	}
	wg.Wait()

	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.BatchDuration.Observe(elapsed.Seconds())
	}

	resolvedCount := 0
	for _, c := range results {
		if c != nil && c.Source != reaction.SourceUnresolved {
			resolvedCount++
		}
	}
	o.logger.Info("batch settled",
		logging.Int("components", len(components)),
		logging.Int("resolved", resolvedCount),
		logging.Int("unresolved", len(components)-resolvedCount),
		logging.Duration("elapsed", elapsed))
	return results
}

// StepLog flattens the per-component attempt records into an ordered,
// human-readable trace of the whole batch.
func StepLog(results []*reaction.ResolvedComponent) []string {
	var steps []string
	for _, c := range results {
		if c == nil {
			continue
		}
		for _, a := range c.Attempts {
			steps = append(steps, fmt.Sprintf("%s: tried %q: %s", c.Name, a.Candidate, a.Outcome))
		}
		switch {
		case c.Source == reaction.SourceUnresolved:
			steps = append(steps, fmt.Sprintf("%s: unresolved", c.Name))
		case c.Compound != nil:
			steps = append(steps, fmt.Sprintf("%s: settled via %s as %q", c.Name, c.Source, c.Compound.CanonicalName))
		default:
			// Client-submitted rows may carry a source without a compound record.
			steps = append(steps, fmt.Sprintf("%s: settled via %s", c.Name, c.Source))
		}
	}
	return steps
}
