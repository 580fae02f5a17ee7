package reaction

import (
	"fmt"
	"math"
)

// Calculator performs the unit-aware stoichiometry pass over a set of
// resolved components.  Tolerance is the half-width of the equivalents band
// around 1.0 that flags a limiting reagent; Precision is the number of
// decimal places equivalents are rounded to.
type Calculator struct {
	Tolerance float64
	Precision int
}

// NewCalculator applies the standard defaults (tolerance 0.05, two decimal
// places) for zero values.
func NewCalculator(tolerance float64, precision int) Calculator {
	if tolerance <= 0 {
		tolerance = 0.05
	}
	if precision <= 0 {
		precision = 2
	}
	return Calculator{Tolerance: tolerance, Precision: precision}
}

// Recompute derives mass, moles, equivalents, and the limiting flag for every
// component in place.  It is a full pass: all derived fields are cleared and
// rebuilt from the declared quantities and attached identities, so a prior
// run never leaves stale values behind.
//
// The limiting ratio is the minimum of moles/coefficient over all components
// with positive derived moles.  Equivalents for each such component are
// (moles/coefficient)/limitingRatio, rounded; the limiting flag is set when
// the rounded value is within Tolerance of 1.0.  Fewer than one measurable
// component means no equivalents are reported at all.
func (s Calculator) Recompute(components []*ResolvedComponent) {
	limiting := math.Inf(1)
	measurable := 0

	for _, c := range components {
		if c == nil {
			continue
		}
		if c.Coefficient <= 0 {
			c.Coefficient = 1
		}
		a := NormalizeAmount(c.Quantity, c.Unit, c.MolarMass(), c.Density())
		c.Mass, c.Moles = a.Mass, a.Moles
		c.Equivalents = nil
		c.IsLimiting = false

		if c.Moles != nil && *c.Moles > 0 {
			measurable++
			if r := *c.Moles / c.Coefficient; r < limiting {
				limiting = r
			}
		}
	}
	if measurable == 0 {
		return
	}

	scale := math.Pow(10, float64(s.Precision))
	for _, c := range components {
		if c == nil || c.Moles == nil || *c.Moles <= 0 {
			continue
		}
		eq := math.Round(*c.Moles/c.Coefficient/limiting*scale) / scale
		c.Equivalents = &eq
		c.IsLimiting = math.Abs(eq-1) < s.Tolerance
	}
}

// Summary returns a one-line human-readable stoichiometry verdict: the name
// of the limiting reagent when exactly one component carries the flag, or a
// neutral message otherwise.
func Summary(components []*ResolvedComponent) string {
	var limiting *ResolvedComponent
	count := 0
	for _, c := range components {
		if c != nil && c.IsLimiting {
			limiting = c
			count++
		}
	}
	if count == 1 {
		name := limiting.Name
		if limiting.Compound != nil && limiting.Compound.CanonicalName != "" {
			name = limiting.Compound.CanonicalName
		}
		return fmt.Sprintf("Limiting reagent: %s", name)
	}
	return "No unique limiting reagent identified"
}
