package reaction

import "strings"

// Amount is the normalized quantity pair derived from a component's declared
// quantity and unit.  Mass is in grams, Moles in millimoles.  Either field is
// nil when it cannot be derived from the available identity data.
type Amount struct {
	Mass  *float64
	Moles *float64
}

// ptr is a small helper for optional float results.
func ptr(v float64) *float64 { return &v }

// NormalizeAmount converts a declared quantity into grams and millimoles.
//
// Accepted units (case-insensitive): g/gram/grams/gramm, mg, mol, mmol, and
// ml/milliliter.  Volume conversion requires a density; a volume without one
// yields a fully nil Amount rather than an error.  Mole-to-mass and
// mass-to-mole derivation require a molar mass; without one the directly
// declared side is still populated.
func NormalizeAmount(quantity *float64, unit string, molarMass, density *float64) Amount {
	if quantity == nil {
		return Amount{}
	}
	q := *quantity

	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gram", "grams", "gramm":
		return fromMass(q, molarMass)
	case "mg", "milligram", "milligrams":
		return fromMass(q/1000, molarMass)
	case "mmol":
		return fromMillimoles(q, molarMass)
	case "mol":
		return fromMillimoles(q*1000, molarMass)
	case "ml", "milliliter", "milliliters", "millilitre":
		if density == nil || *density <= 0 {
			return Amount{}
		}
		return fromMass(q**density, molarMass)
	default:
		return Amount{}
	}
}

func fromMass(grams float64, molarMass *float64) Amount {
	a := Amount{Mass: ptr(grams)}
	if molarMass != nil && *molarMass > 0 {
		a.Moles = ptr(grams / *molarMass * 1000)
	}
	return a
}

func fromMillimoles(mmol float64, molarMass *float64) Amount {
	a := Amount{Moles: ptr(mmol)}
	if molarMass != nil && *molarMass > 0 {
		a.Mass = ptr(mmol / 1000 * *molarMass)
	}
	return a
}
