// Package analysis is the application layer: it drives free-text extraction,
// batch identity resolution, and the stoichiometry pass, and shapes the
// result the interfaces layer returns.
package analysis

import (
	"context"
	"strings"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
	"github.com/synthbench/reagent/internal/intelligence/resolve"
	"github.com/synthbench/reagent/pkg/errors"
)

// Extractor turns free text into raw components.
type Extractor interface {
	ExtractComponents(ctx context.Context, text string) ([]reaction.RawComponent, error)
}

// Narrator writes the free-text reaction assessment.
type Narrator interface {
	Narrative(ctx context.Context, components []*reaction.ResolvedComponent, summary string) (string, error)
}

// Extraction method labels reported in the analysis result.
const (
	ExtractionAssistant  = "assistant"
	ExtractionHeuristic  = "heuristic"
	ExtractionStructured = "structured"
)

// Analysis is the complete result of one pipeline run.  Steps is the ordered
// trace of every identity lookup the run attempted.
type Analysis struct {
	Components       []*reaction.ResolvedComponent `json:"components"`
	Summary          string                        `json:"summary"`
	ExtractionMethod string                        `json:"extraction_method"`
	Steps            []string                      `json:"steps,omitempty"`
}

// Service wires the analysis pipeline.  It is stateless: clients carry the
// component set between calls, so edits are applied by resubmitting it.
type Service struct {
	extractor    Extractor
	resolver     *resolve.Resolver
	orchestrator *resolve.Orchestrator
	calculator   reaction.Calculator
	narrator     Narrator
	logger       logging.Logger
}

// NewService builds the service.  extractor, narrator, and logger may be
// nil; extraction then always uses the heuristic parser and narratives are
// generated locally.
func NewService(extractor Extractor, resolver *resolve.Resolver, orchestrator *resolve.Orchestrator,
	calculator reaction.Calculator, narrator Narrator, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{
		extractor:    extractor,
		resolver:     resolver,
		orchestrator: orchestrator,
		calculator:   calculator,
		narrator:     narrator,
		logger:       logger.Named("analysis"),
	}
}

// AnalyzeText runs the full pipeline on a free-text reaction description.
// Assistant extraction degrades to the heuristic parser on any assistant
// failure; only an input no strategy can read is an error.
func (s *Service) AnalyzeText(ctx context.Context, text string) (*Analysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.CodeInvalidParam, "empty reaction description")
	}

	method := ExtractionAssistant
	var components []reaction.RawComponent
	if s.extractor != nil {
		extracted, err := s.extractor.ExtractComponents(ctx, text)
		if err == nil {
			components = extracted
		} else {
			s.logger.Warn("assistant extraction failed, using heuristic parser", logging.Err(err))
		}
	}
	if components == nil {
		method = ExtractionHeuristic
		components = reaction.HeuristicParse(text)
	}
	if len(components) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "no components recognized in reaction description")
	}

	return s.analyze(ctx, components, text, method)
}

// AnalyzeComponents runs resolution and stoichiometry on already structured
// components, skipping extraction.
func (s *Service) AnalyzeComponents(ctx context.Context, components []reaction.RawComponent) (*Analysis, error) {
	if len(components) == 0 {
		return nil, errors.New(errors.CodeInvalidParam, "no components given")
	}
	for i := range components {
		components[i].Normalize()
		if err := components[i].Validate(); err != nil {
			return nil, err
		}
	}
	return s.analyze(ctx, components, "", ExtractionStructured)
}

func (s *Service) analyze(ctx context.Context, components []reaction.RawComponent, reactionContext, method string) (*Analysis, error) {
	resolved := s.orchestrator.ResolveBatch(ctx, components, reactionContext)
	s.calculator.Recompute(resolved)
	return &Analysis{
		Components:       resolved,
		Summary:          reaction.Summary(resolved),
		ExtractionMethod: method,
		Steps:            resolve.StepLog(resolved),
	}, nil
}

// ReResolve settles a single edited component against a corrected name and
// recomputes the whole set.  The edited component runs the same strategy
// chain as batch resolution (candidates, assisted retry, fallback catalog);
// on success its provenance transitions through the amendment rules, on a
// total miss it keeps its current identity and only gains the attempt trace.
func (s *Service) ReResolve(ctx context.Context, components []*reaction.ResolvedComponent, componentID, newName, reactionContext string) (*Analysis, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "empty replacement name")
	}

	var target *reaction.ResolvedComponent
	for _, c := range components {
		if c != nil && c.ID == componentID {
			target = c
			break
		}
	}
	if target == nil {
		return nil, errors.Newf(errors.CodeNotFound, "component %q not in submitted set", componentID)
	}

	edited := target.RawComponent
	edited.Name = newName
	result := s.resolver.ResolveOne(ctx, edited, nil, reactionContext)
	target.Attempts = append(target.Attempts, result.Attempts...)

	if result.Source != reaction.SourceUnresolved {
		prev := target.Source
		target.Name = newName
		target.Compound = result.Compound
		target.ResolutionError = ""
		target.MarkEdited()
		if prev == reaction.SourceUnresolved {
			// First successful identity for this component; record where it
			// came from instead of the manual transition.
			target.Source = result.Source
			target.OriginalSource = ""
		}
	}

	s.calculator.Recompute(components)
	return &Analysis{
		Components:       components,
		Summary:          reaction.Summary(components),
		ExtractionMethod: ExtractionStructured,
		Steps:            resolve.StepLog(components),
	}, nil
}

// Recompute reruns stoichiometry over a client-edited component set, for
// example after a quantity change.
func (s *Service) Recompute(components []*reaction.ResolvedComponent) *Analysis {
	s.calculator.Recompute(components)
	return &Analysis{
		Components:       components,
		Summary:          reaction.Summary(components),
		ExtractionMethod: ExtractionStructured,
	}
}

// LookupCompound serves single-name identity lookups.
func (s *Service) LookupCompound(ctx context.Context, name string) (*reaction.Compound, reaction.ResolutionSource, []reaction.Attempt, error) {
	return s.resolver.LookupCompound(ctx, name)
}
