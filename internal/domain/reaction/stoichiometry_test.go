package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved(name string, quantity float64, unit string, coeff, molarMass float64) *ResolvedComponent {
	return &ResolvedComponent{
		RawComponent: RawComponent{
			Name:        name,
			Quantity:    f(quantity),
			Unit:        unit,
			Role:        RoleReactant,
			Coefficient: coeff,
		},
		Compound: &Compound{CanonicalName: name, MolarMass: molarMass},
		Source:   SourceExternal,
	}
}

func TestRecompute_LimitingReagent(t *testing.T) {
	calc := NewCalculator(0, 0)

	// 50 mmol acid vs 100 mmol alcohol, 1:1.
	acid := resolved("acetic acid", 3.0025, "g", 1, 60.05)
	alcohol := resolved("ethanol", 4.607, "g", 1, 46.07)
	components := []*ResolvedComponent{acid, alcohol}

	calc.Recompute(components)

	require.NotNil(t, acid.Equivalents)
	require.NotNil(t, alcohol.Equivalents)
	assert.InDelta(t, 1.0, *acid.Equivalents, 1e-9)
	assert.InDelta(t, 2.0, *alcohol.Equivalents, 1e-9)
	assert.True(t, acid.IsLimiting)
	assert.False(t, alcohol.IsLimiting)
	assert.Equal(t, "Limiting reagent: acetic acid", Summary(components))
}

func TestRecompute_MassInputs(t *testing.T) {
	calc := NewCalculator(0.05, 2)

	// 4 g ethanol against 8 g acetic acid, both 1:1.
	alcohol := resolved("ethanol", 4, "g", 1, 46.07)
	acid := resolved("acetic acid", 8, "g", 1, 60.05)
	components := []*ResolvedComponent{alcohol, acid}

	calc.Recompute(components)

	require.NotNil(t, alcohol.Moles)
	assert.InDelta(t, 86.83, *alcohol.Moles, 0.01)
	require.NotNil(t, alcohol.Equivalents)
	require.NotNil(t, acid.Equivalents)
	assert.InDelta(t, 1.0, *alcohol.Equivalents, 1e-9)
	assert.InDelta(t, 1.53, *acid.Equivalents, 1e-9)
	assert.True(t, alcohol.IsLimiting)
	assert.False(t, acid.IsLimiting)
	assert.Equal(t, "Limiting reagent: ethanol", Summary(components))
}

func TestRecompute_CoefficientsScaleRatio(t *testing.T) {
	calc := NewCalculator(0, 0)

	// 2 A + 1 B: 100 mmol A and 60 mmol B means A is limiting (ratio 50 vs 60).
	a := resolved("A", 100, "mmol", 2, 100)
	b := resolved("B", 60, "mmol", 1, 100)
	calc.Recompute([]*ResolvedComponent{a, b})

	require.NotNil(t, a.Equivalents)
	require.NotNil(t, b.Equivalents)
	assert.InDelta(t, 1.0, *a.Equivalents, 1e-9)
	assert.InDelta(t, 1.2, *b.Equivalents, 1e-9)
	assert.True(t, a.IsLimiting)
	assert.False(t, b.IsLimiting)
}

func TestRecompute_ToleranceBand(t *testing.T) {
	calc := NewCalculator(0.05, 2)

	// 100 vs 104 mmol: 1.04 equivalents is inside the band, both flagged.
	a := resolved("A", 100, "mmol", 1, 100)
	b := resolved("B", 104, "mmol", 1, 100)
	components := []*ResolvedComponent{a, b}
	calc.Recompute(components)

	assert.True(t, a.IsLimiting)
	assert.True(t, b.IsLimiting)
	assert.Equal(t, "No unique limiting reagent identified", Summary(components))
}

func TestRecompute_RoundingPrecision(t *testing.T) {
	calc := NewCalculator(0.05, 2)

	a := resolved("A", 30, "mmol", 1, 100)
	b := resolved("B", 100, "mmol", 1, 100)
	calc.Recompute([]*ResolvedComponent{a, b})

	require.NotNil(t, b.Equivalents)
	assert.InDelta(t, 3.33, *b.Equivalents, 1e-9)
}

func TestRecompute_SkipsUnmeasurable(t *testing.T) {
	calc := NewCalculator(0, 0)

	measured := resolved("A", 10, "mmol", 1, 100)
	noAmount := &ResolvedComponent{
		RawComponent: RawComponent{Name: "B", Coefficient: 1},
		Compound:     &Compound{CanonicalName: "B", MolarMass: 50},
		Source:       SourceExternal,
	}
	unresolvedMass := &ResolvedComponent{
		RawComponent: RawComponent{Name: "C", Quantity: f(5), Unit: "g", Coefficient: 1},
		Source:       SourceUnresolved,
	}
	calc.Recompute([]*ResolvedComponent{measured, noAmount, unresolvedMass})

	require.NotNil(t, measured.Equivalents)
	assert.True(t, measured.IsLimiting)
	assert.Nil(t, noAmount.Equivalents)
	assert.Nil(t, unresolvedMass.Equivalents)
	// Unresolved component still gets its declared mass normalized.
	require.NotNil(t, unresolvedMass.Mass)
	assert.InDelta(t, 5, *unresolvedMass.Mass, 1e-9)
	assert.Nil(t, unresolvedMass.Moles)
}

func TestRecompute_ClearsStaleDerivedValues(t *testing.T) {
	calc := NewCalculator(0, 0)

	a := resolved("A", 10, "mmol", 1, 100)
	b := resolved("B", 20, "mmol", 1, 100)
	components := []*ResolvedComponent{a, b}
	calc.Recompute(components)
	require.True(t, a.IsLimiting)

	// Amount removed: a second pass must not keep the old equivalents.
	a.Quantity = nil
	a.Unit = ""
	calc.Recompute(components)

	assert.Nil(t, a.Equivalents)
	assert.False(t, a.IsLimiting)
	require.NotNil(t, b.Equivalents)
	assert.True(t, b.IsLimiting)
}

func TestRecompute_NoMeasurableComponents(t *testing.T) {
	calc := NewCalculator(0, 0)
	a := &ResolvedComponent{RawComponent: RawComponent{Name: "A", Coefficient: 1}}
	calc.Recompute([]*ResolvedComponent{a, nil})
	assert.Nil(t, a.Equivalents)
	assert.False(t, a.IsLimiting)
}
