// Package resolve implements compound identity resolution: per-component
// candidate lookup with assisted retry and offline fallback, plus the batch
// orchestrator that settles a whole reaction concurrently.
package resolve

import (
	"strings"

	"github.com/synthbench/reagent/internal/domain/reaction"
)

// Catalog is the built-in offline compound source, consulted after every
// external lookup strategy has missed.  It covers the common lab reagents
// and solvents so a reaction remains analyzable when the compound database
// is unreachable.
type Catalog struct {
	entries []catalogEntry
}

type catalogEntry struct {
	names    []string
	compound reaction.Compound
}

func density(v float64) *float64 { return &v }

// NewCatalog returns the catalog seeded with the built-in entries.
func NewCatalog() *Catalog {
	return &Catalog{entries: []catalogEntry{
		{
			names: []string{"ethanol", "ethyl alcohol", "etoh", "64-17-5"},
			compound: reaction.Compound{
				CID: 702, CanonicalName: "ethanol", CASNumber: "64-17-5",
				Formula: "C2H6O", MolarMass: 46.07, Density: density(0.789),
			},
		},
		{
			names: []string{"acetic acid", "ethanoic acid", "glacial acetic acid", "64-19-7"},
			compound: reaction.Compound{
				CID: 176, CanonicalName: "acetic acid", CASNumber: "64-19-7",
				Formula: "C2H4O2", MolarMass: 60.05, Density: density(1.049),
			},
		},
		{
			names: []string{"4-ethylphenol", "p-ethylphenol", "123-07-9"},
			compound: reaction.Compound{
				CID: 12345, CanonicalName: "4-ethylphenol", CASNumber: "123-07-9",
				Formula: "C8H10O", MolarMass: 122.17, Density: density(0.97),
			},
		},
		{
			names: []string{"water", "wasser", "7732-18-5"},
			compound: reaction.Compound{
				CID: 962, CanonicalName: "water", CASNumber: "7732-18-5",
				Formula: "H2O", MolarMass: 18.015, Density: density(1.0),
			},
		},
		{
			names: []string{"methanol", "methyl alcohol", "meoh", "67-56-1"},
			compound: reaction.Compound{
				CID: 887, CanonicalName: "methanol", CASNumber: "67-56-1",
				Formula: "CH4O", MolarMass: 32.04, Density: density(0.792),
			},
		},
		{
			names: []string{"toluene", "toluol", "108-88-3"},
			compound: reaction.Compound{
				CID: 1140, CanonicalName: "toluene", CASNumber: "108-88-3",
				Formula: "C7H8", MolarMass: 92.14, Density: density(0.867),
			},
		},
		{
			names: []string{"dichloromethane", "dcm", "methylene chloride", "75-09-2"},
			compound: reaction.Compound{
				CID: 6344, CanonicalName: "dichloromethane", CASNumber: "75-09-2",
				Formula: "CH2Cl2", MolarMass: 84.93, Density: density(1.325),
			},
		},
		{
			names: []string{"tetrahydrofuran", "thf", "109-99-9"},
			compound: reaction.Compound{
				CID: 8028, CanonicalName: "tetrahydrofuran", CASNumber: "109-99-9",
				Formula: "C4H8O", MolarMass: 72.11, Density: density(0.889),
			},
		},
	}}
}

// Lookup matches name against the catalog: exact name match first, then
// case-insensitive substring in either direction, so "glacial acetic acid
// (conc.)" still finds acetic acid.  Among substring matches the longest
// matched name wins, which keeps "methanol" from landing on the ethanol
// entry.  The returned compound is a copy.
func (c *Catalog) Lookup(name string) (*reaction.Compound, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if len(query) < 3 {
		return nil, false
	}

	for _, e := range c.entries {
		for _, n := range e.names {
			if n == query {
				return copyCompound(e.compound), true
			}
		}
	}

	var best *catalogEntry
	bestLen := 0
	for i := range c.entries {
		for _, n := range c.entries[i].names {
			if (strings.Contains(query, n) || strings.Contains(n, query)) && len(n) > bestLen {
				best = &c.entries[i]
				bestLen = len(n)
			}
		}
	}
	if best == nil {
		return nil, false
	}
	return copyCompound(best.compound), true
}

func copyCompound(c reaction.Compound) *reaction.Compound {
	out := c
	if c.Density != nil {
		out.Density = density(*c.Density)
	}
	return &out
}
