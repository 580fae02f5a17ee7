package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/intelligence/resolve"
	"github.com/synthbench/reagent/pkg/errors"
)

// fakeSource serves a fixed compound table.
type fakeSource struct {
	compounds map[string]*reaction.Compound
}

func (s *fakeSource) FindCompound(_ context.Context, name string) (*reaction.Compound, error) {
	if c, ok := s.compounds[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, errors.Newf(errors.CodeCompoundNotFound, "no compound found for %q", name)
}

type fakeExtractor struct {
	components []reaction.RawComponent
	err        error
}

func (e *fakeExtractor) ExtractComponents(context.Context, string) ([]reaction.RawComponent, error) {
	return e.components, e.err
}

type fakeNarrator struct {
	text string
	err  error
}

func (n *fakeNarrator) Narrative(context.Context, []*reaction.ResolvedComponent, string) (string, error) {
	return n.text, n.err
}

func f(v float64) *float64 { return &v }

func chemTable() map[string]*reaction.Compound {
	return map[string]*reaction.Compound{
		"ethanol":     {CID: 702, CanonicalName: "ethanol", Formula: "C2H6O", MolarMass: 46.07, Density: f(0.789)},
		"acetic acid": {CID: 176, CanonicalName: "acetic acid", Formula: "C2H4O2", MolarMass: 60.05, Density: f(1.049)},
	}
}

func newTestService(extractor Extractor, narrator Narrator) *Service {
	resolver := resolve.NewResolver(&fakeSource{compounds: chemTable()}, nil, nil, nil, nil)
	orchestrator := resolve.NewOrchestrator(resolver, 2, nil, nil)
	return NewService(extractor, resolver, orchestrator, reaction.NewCalculator(0, 0), narrator, nil)
}

func rawComponents() []reaction.RawComponent {
	return []reaction.RawComponent{
		{Name: "acetic acid", Quantity: f(3.0025), Unit: "g", Coefficient: 1},
		{Name: "ethanol", Quantity: f(100), Unit: "mmol", Coefficient: 1},
	}
}

func TestAnalyzeText_AssistantPath(t *testing.T) {
	svc := newTestService(&fakeExtractor{components: rawComponents()}, nil)

	result, err := svc.AnalyzeText(context.Background(), "esterification of acetic acid with ethanol")
	require.NoError(t, err)

	assert.Equal(t, ExtractionAssistant, result.ExtractionMethod)
	assert.NotEmpty(t, result.Steps)
	require.Len(t, result.Components, 2)

	acid := result.Components[0]
	assert.Equal(t, reaction.SourceExternal, acid.Source)
	require.NotNil(t, acid.Equivalents)
	assert.InDelta(t, 1.0, *acid.Equivalents, 1e-9)
	assert.True(t, acid.IsLimiting)
	assert.Equal(t, "Limiting reagent: acetic acid", result.Summary)
}

func TestAnalyzeText_HeuristicFallback(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New(errors.CodeAssistantUnavailable, "no key")}
	svc := newTestService(extractor, nil)

	result, err := svc.AnalyzeText(context.Background(), "3.0025 g acetic acid + 4.607 g ethanol")
	require.NoError(t, err)

	assert.Equal(t, ExtractionHeuristic, result.ExtractionMethod)
	require.Len(t, result.Components, 2)
	assert.Equal(t, reaction.SourceExternal, result.Components[0].Source)
}

func TestAnalyzeText_EmptyInput(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.AnalyzeText(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestAnalyzeText_NothingRecognized(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.AnalyzeText(context.Background(), ";;;")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestAnalyzeComponents(t *testing.T) {
	svc := newTestService(nil, nil)

	result, err := svc.AnalyzeComponents(context.Background(), rawComponents())
	require.NoError(t, err)
	assert.Equal(t, ExtractionStructured, result.ExtractionMethod)
	assert.True(t, result.Components[0].IsLimiting)
}

func TestAnalyzeComponents_InvalidComponent(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.AnalyzeComponents(context.Background(), []reaction.RawComponent{{}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeComponentInvalid, errors.GetCode(err))
}

func TestReResolve_AmendsSourceAndRecomputes(t *testing.T) {
	svc := newTestService(nil, nil)
	result, err := svc.AnalyzeComponents(context.Background(), rawComponents())
	require.NoError(t, err)

	target := result.Components[1]
	updated, err := svc.ReResolve(context.Background(), result.Components, target.ID, "acetic acid", "")
	require.NoError(t, err)

	edited := updated.Components[1]
	assert.Equal(t, reaction.SourceAmended, edited.Source)
	assert.Equal(t, reaction.SourceExternal, edited.OriginalSource)
	assert.Equal(t, "acetic acid", edited.Compound.CanonicalName)
	// Moles recomputed with the new molar mass.
	require.NotNil(t, edited.Moles)
	assert.InDelta(t, 100, *edited.Moles, 1e-9)
}

func TestReResolve_UnresolvedGainsCleanSource(t *testing.T) {
	svc := newTestService(nil, nil)

	unresolved := []*reaction.ResolvedComponent{
		{
			RawComponent:    reaction.RawComponent{ID: "id-1", Name: "unobtainium", Quantity: f(10), Unit: "mmol", Coefficient: 1},
			Source:          reaction.SourceUnresolved,
			ResolutionError: "nope",
		},
	}
	updated, err := svc.ReResolve(context.Background(), unresolved, "id-1", "ethanol", "")
	require.NoError(t, err)

	edited := updated.Components[0]
	assert.Equal(t, reaction.SourceExternal, edited.Source)
	assert.Empty(t, string(edited.OriginalSource))
	assert.Empty(t, edited.ResolutionError)
	assert.Equal(t, "ethanol", edited.Name)
}

// fakeSuggester proposes one fixed alternative name.
type fakeSuggester struct {
	suggestion string
}

func (s *fakeSuggester) SuggestAlternativeName(context.Context, string, []reaction.Attempt, string) (string, error) {
	return s.suggestion, nil
}

func TestReResolve_RunsFullStrategyChain(t *testing.T) {
	// The external source only knows the English name; the correction is a
	// German trivial name that needs the assisted retry to land.
	source := &fakeSource{compounds: map[string]*reaction.Compound{
		"ethyl acetate": {CID: 8857, CanonicalName: "ethyl acetate", Formula: "C4H8O2", MolarMass: 88.11},
	}}
	resolver := resolve.NewResolver(source, nil, &fakeSuggester{suggestion: "ethyl acetate"}, nil, nil)
	orchestrator := resolve.NewOrchestrator(resolver, 2, nil, nil)
	svc := NewService(nil, resolver, orchestrator, reaction.NewCalculator(0, 0), nil, nil)

	components := []*reaction.ResolvedComponent{
		{
			RawComponent:    reaction.RawComponent{ID: "id-1", Name: "Essigester", Quantity: f(10), Unit: "mmol", Coefficient: 1},
			Source:          reaction.SourceUnresolved,
			ResolutionError: "nope",
		},
	}
	updated, err := svc.ReResolve(context.Background(), components, "id-1", "Essigester", "esterification")
	require.NoError(t, err)

	edited := updated.Components[0]
	assert.Equal(t, reaction.SourceExternal, edited.Source)
	require.NotNil(t, edited.Compound)
	assert.Equal(t, "ethyl acetate", edited.Compound.CanonicalName)
	last := edited.Attempts[len(edited.Attempts)-1]
	assert.Contains(t, last.Outcome, "suggested")
}

func TestReResolve_MissKeepsComponent(t *testing.T) {
	svc := newTestService(nil, nil)
	result, err := svc.AnalyzeComponents(context.Background(), rawComponents())
	require.NoError(t, err)

	target := result.Components[1]
	priorAttempts := len(target.Attempts)
	updated, err := svc.ReResolve(context.Background(), result.Components, target.ID, "unobtainium", "")
	require.NoError(t, err)

	// Identity and provenance survive a failed correction; only the attempt
	// trace grows.
	kept := updated.Components[1]
	assert.Equal(t, "ethanol", kept.Name)
	assert.Equal(t, reaction.SourceExternal, kept.Source)
	require.NotNil(t, kept.Compound)
	assert.Equal(t, 702, kept.Compound.CID)
	assert.Greater(t, len(kept.Attempts), priorAttempts)
}

func TestReResolve_Errors(t *testing.T) {
	svc := newTestService(nil, nil)
	components := []*reaction.ResolvedComponent{
		{RawComponent: reaction.RawComponent{ID: "id-1", Name: "ethanol"}},
	}

	_, err := svc.ReResolve(context.Background(), components, "missing-id", "ethanol", "")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = svc.ReResolve(context.Background(), components, "id-1", "  ", "")
	assert.Equal(t, errors.CodeInvalidParam, errors.GetCode(err))
}

func TestNarrative_PrefersNarrator(t *testing.T) {
	svc := newTestService(nil, &fakeNarrator{text: "Looks fine."})
	assert.Equal(t, "Looks fine.", svc.Narrative(context.Background(), nil))
}

func TestNarrative_LocalFallback(t *testing.T) {
	svc := newTestService(nil, &fakeNarrator{err: errors.New(errors.CodeAssistantUnavailable, "down")})

	components := []*reaction.ResolvedComponent{
		{
			RawComponent: reaction.RawComponent{Name: "ethanol"},
			Compound:     &reaction.Compound{CanonicalName: "ethanol"},
			Source:       reaction.SourceExternal,
		},
		{
			RawComponent: reaction.RawComponent{Name: "unobtainium"},
			Source:       reaction.SourceUnresolved,
		},
	}
	text := svc.Narrative(context.Background(), components)
	assert.Contains(t, text, "1 of 2 components identified")
	assert.Contains(t, text, "could not be identified")
}
