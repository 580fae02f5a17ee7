package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/cache"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/metrics"
	"github.com/synthbench/reagent/pkg/errors"
)

// CompoundSource is the external compound database dependency.  A miss is
// reported as CodeCompoundNotFound; any other error is a source failure.
type CompoundSource interface {
	FindCompound(ctx context.Context, name string) (*reaction.Compound, error)
}

// Suggester proposes one alternative lookup name after all candidates for a
// component have missed.  An empty suggestion with a nil error means there is
// nothing new to try.
type Suggester interface {
	SuggestAlternativeName(ctx context.Context, name string, attempts []reaction.Attempt, reactionContext string) (string, error)
}

// cachedSource decorates a CompoundSource with the compound cache.
type cachedSource struct {
	cache *cache.CompoundCache
	inner CompoundSource
}

// NewCachedSource wraps src so repeated lookups for the same name are served
// from the cache and concurrent ones collapse into a single upstream call.
func NewCachedSource(c *cache.CompoundCache, src CompoundSource) CompoundSource {
	return &cachedSource{cache: c, inner: src}
}

func (s *cachedSource) FindCompound(ctx context.Context, name string) (*reaction.Compound, error) {
	return s.cache.GetOrLoad(ctx, name, func(ctx context.Context) (*reaction.Compound, error) {
		return s.inner.FindCompound(ctx, name)
	})
}

// Resolver settles a single component through the strategy chain: candidate
// lookups against the external source, one assisted retry, then the offline
// catalog.  It never returns an error; a component that defeats every
// strategy settles as unresolved with its attempt log attached.
type Resolver struct {
	source    CompoundSource
	catalog   *Catalog
	suggester Suggester
	logger    logging.Logger
	metrics   *metrics.Metrics
}

// NewResolver builds a resolver.  suggester, logger, and m may be nil;
// catalog falls back to the built-in one.
func NewResolver(source CompoundSource, catalog *Catalog, suggester Suggester, logger logging.Logger, m *metrics.Metrics) *Resolver {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Resolver{
		source:    source,
		catalog:   catalog,
		suggester: suggester,
		logger:    logger.Named("resolver"),
		metrics:   m,
	}
}

const (
	outcomeHit       = "hit"
	outcomeMiss      = "miss"
	outcomeFallback  = "fallback hit"
	outcomeSuggested = "suggested"
)

// ResolveOne runs the full strategy chain for one component.  prior carries
// the names already resolved elsewhere in the batch (nil outside batch
// context) and is updated on success so later components deprioritize them.
func (r *Resolver) ResolveOne(ctx context.Context, raw reaction.RawComponent, prior *reaction.ResolvedNames, reactionContext string) *reaction.ResolvedComponent {
	raw.Normalize()
	if err := raw.Validate(); err != nil {
		return reaction.NewUnresolved(raw, nil, err.Error())
	}

	candidates := reaction.Candidates(&raw, prior)
	var attempts []reaction.Attempt

	// External lookups, most specific candidate first.
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return r.settleUnresolved(raw, attempts, "resolution canceled")
		}
		compound, outcome := r.lookup(ctx, candidate)
		attempts = append(attempts, reaction.Attempt{Candidate: candidate, Outcome: outcome})
		if compound != nil {
			record(prior, candidate, compound)
			return r.settle(raw, compound, reaction.SourceExternal, attempts)
		}
	}

	// One assisted retry, and only with a name not already tried.
	suggestion := r.suggest(ctx, raw.Name, attempts, reactionContext)
	if alreadyTried(attempts, suggestion) {
		suggestion = ""
	}
	if suggestion != "" {
		compound, outcome := r.lookup(ctx, suggestion)
		attempts = append(attempts, reaction.Attempt{Candidate: suggestion, Outcome: outcomeSuggested + " " + outcome})
		if compound != nil {
			record(prior, suggestion, compound)
			return r.settle(raw, compound, reaction.SourceExternal, attempts)
		}
	}

	// Offline catalog over the original candidates, then the suggestion.
	for _, candidate := range append(candidates, suggestion) {
		if candidate == "" {
			continue
		}
		if compound, ok := r.catalog.Lookup(candidate); ok {
			attempts = append(attempts, reaction.Attempt{Candidate: candidate, Outcome: outcomeFallback})
			return r.settle(raw, compound, reaction.SourceFallback, attempts)
		}
	}

	return r.settleUnresolved(raw, attempts,
		fmt.Sprintf("no identity found for %q after %d attempts", raw.Name, len(attempts)))
}

// LookupCompound serves the single-name lookup endpoint: external source
// first, catalog second.  Unlike ResolveOne it returns the miss as an error
// so the API can answer 404 with the attempt trace.
func (r *Resolver) LookupCompound(ctx context.Context, name string) (*reaction.Compound, reaction.ResolutionSource, []reaction.Attempt, error) {
	var attempts []reaction.Attempt
	compound, outcome := r.lookup(ctx, name)
	attempts = append(attempts, reaction.Attempt{Candidate: name, Outcome: outcome})
	if compound != nil {
		return compound, reaction.SourceExternal, attempts, nil
	}
	if compound, ok := r.catalog.Lookup(name); ok {
		attempts = append(attempts, reaction.Attempt{Candidate: name, Outcome: outcomeFallback})
		return compound, reaction.SourceFallback, attempts, nil
	}
	return nil, "", attempts, errors.Newf(errors.CodeCompoundNotFound, "no identity found for %q", name)
}

// lookup performs one external call and folds the result into (compound,
// outcome).  Source failures are recorded in the outcome text and treated as
// a miss for this candidate; the next strategy still runs.
func (r *Resolver) lookup(ctx context.Context, candidate string) (*reaction.Compound, string) {
	compound, err := r.source.FindCompound(ctx, candidate)
	switch {
	case err == nil:
		return compound, outcomeHit
	case errors.IsNotFound(err):
		return nil, outcomeMiss
	default:
		r.logger.Warn("compound lookup failed",
			logging.String("candidate", candidate), logging.Err(err))
		return nil, "error: " + errors.GetCode(err).String()
	}
}

func (r *Resolver) suggest(ctx context.Context, name string, attempts []reaction.Attempt, reactionContext string) string {
	if r.suggester == nil || ctx.Err() != nil {
		return ""
	}
	suggestion, err := r.suggester.SuggestAlternativeName(ctx, name, attempts, reactionContext)
	if err != nil {
		if !errors.IsCode(err, errors.CodeAssistantUnavailable) {
			r.logger.Warn("retry suggestion failed", logging.String("name", name), logging.Err(err))
		}
		return ""
	}
	return suggestion
}

// record marks both the queried candidate and the resolved canonical name as
// settled, so later components in the batch deprioritize either spelling.
func record(prior *reaction.ResolvedNames, candidate string, compound *reaction.Compound) {
	if prior == nil {
		return
	}
	prior.Add(candidate)
	prior.Add(compound.CanonicalName)
}

func alreadyTried(attempts []reaction.Attempt, name string) bool {
	for _, a := range attempts {
		if strings.EqualFold(a.Candidate, name) {
			return true
		}
	}
	return false
}

func (r *Resolver) settle(raw reaction.RawComponent, compound *reaction.Compound, source reaction.ResolutionSource, attempts []reaction.Attempt) *reaction.ResolvedComponent {
	r.observe(source)
	r.logger.Debug("component resolved",
		logging.String("name", raw.Name),
		logging.String("source", string(source)),
		logging.Int("attempts", len(attempts)))
	return &reaction.ResolvedComponent{
		RawComponent: raw,
		Compound:     compound,
		Source:       source,
		Attempts:     attempts,
	}
}

func (r *Resolver) settleUnresolved(raw reaction.RawComponent, attempts []reaction.Attempt, msg string) *reaction.ResolvedComponent {
	r.observe(reaction.SourceUnresolved)
	r.logger.Info("component unresolved",
		logging.String("name", raw.Name),
		logging.Int("attempts", len(attempts)))
	return reaction.NewUnresolved(raw, attempts, msg)
}

func (r *Resolver) observe(source reaction.ResolutionSource) {
	if r.metrics != nil {
		r.metrics.Resolutions.WithLabelValues(string(source)).Inc()
	}
}
