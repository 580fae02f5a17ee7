// Package reaction defines the domain model for reaction analysis: raw and
// resolved components, compound identity records, unit normalization, and the
// stoichiometry calculator.  The package is free of I/O; external lookups are
// performed by the resolve and infrastructure layers and written back into
// these types.
package reaction

import (
	"strings"

	"github.com/google/uuid"

	"github.com/synthbench/reagent/pkg/errors"
)

// Role classifies a component's function in the reaction.
type Role string

const (
	RoleReactant Role = "reactant"
	RoleProduct  Role = "product"
	RoleSolvent  Role = "solvent"
	RoleAdditive Role = "additive"
	RoleCatalyst Role = "catalyst"
)

// ParseRole maps free-form role strings (including the German vocabulary the
// extraction assistant is prompted with) onto the Role enum.  Unknown values
// default to reactant rather than failing, per the parse-and-validate policy
// for untrusted assistant output.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reactant", "edukt", "reaktant", "starting material":
		return RoleReactant
	case "product", "produkt":
		return RoleProduct
	case "solvent", "lösemittel", "loesemittel", "lösungsmittel":
		return RoleSolvent
	case "additive", "additiv":
		return RoleAdditive
	case "catalyst", "katalysator":
		return RoleCatalyst
	default:
		return RoleReactant
	}
}

// RawComponent is a single substance mention produced by extraction (assistant
// or heuristic parser).  It is not yet chemically verified.  Quantity and Unit
// are both present or both absent; a half-specified amount disables derived
// mass/mole computation for the component but is not an error.
type RawComponent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CASNumber   string   `json:"cas,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	Role        Role     `json:"role"`
	Coefficient float64  `json:"coefficient"`
}

// Normalize fills defaults on a freshly parsed component: a generated ID, the
// reactant role, coefficient 1 for zero or negative values, and trimmed name
// fields.  A quantity without a unit (or vice versa) is dropped so the pair
// invariant holds.
func (c *RawComponent) Normalize() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.CASNumber = strings.TrimSpace(c.CASNumber)
	if c.Role == "" {
		c.Role = RoleReactant
	}
	if c.Coefficient <= 0 {
		c.Coefficient = 1
	}
	if c.Quantity == nil || strings.TrimSpace(c.Unit) == "" {
		c.Quantity = nil
		c.Unit = ""
	}
}

// Validate rejects the single fatal input condition: a component with neither
// a name nor a CAS number cannot enter resolution.
func (c *RawComponent) Validate() error {
	if c.Name == "" && c.CASNumber == "" {
		return errors.New(errors.CodeComponentInvalid, "component has neither name nor CAS number")
	}
	return nil
}

// HazardSummary carries GHS classification data from the compound database.
type HazardSummary struct {
	Signal           string   `json:"signal,omitempty"`
	Pictograms       []string `json:"pictograms,omitempty"`
	HazardStatements []string `json:"hazard_statements,omitempty"`
}

// Compound is an authoritative identity record for a substance, sourced from
// the external compound database or the offline fallback catalog.
type Compound struct {
	CID           int            `json:"cid"`
	CanonicalName string         `json:"canonical_name"`
	CASNumber     string         `json:"cas,omitempty"`
	Formula       string         `json:"formula"`
	MolarMass     float64        `json:"molar_mass"`          // g/mol
	Density       *float64       `json:"density,omitempty"`   // g/mL
	Synonyms      []string       `json:"synonyms,omitempty"`
	Hazard        *HazardSummary `json:"hazard,omitempty"`
	Description   string         `json:"description,omitempty"`
}

// ResolutionSource records how a component's identity was established.
// Provenance is never silently overwritten: a later manual edit transitions
// the source to SourceAmended while preserving the original in
// ResolvedComponent.OriginalSource.
type ResolutionSource string

const (
	SourceExternal   ResolutionSource = "external"
	SourceFallback   ResolutionSource = "fallback"
	SourceManual     ResolutionSource = "manual"
	SourceAmended    ResolutionSource = "amended"
	SourceUnresolved ResolutionSource = "unresolved"
)

// AmendSource is the pure transition applied when a user edits a resolved
// component.  Externally sourced identities become amended; everything else
// becomes (or stays) manual.  The returned pair is (new source, original to
// preserve).
func AmendSource(current, original ResolutionSource) (ResolutionSource, ResolutionSource) {
	if original == "" {
		original = current
	}
	switch current {
	case SourceExternal, SourceFallback, SourceAmended:
		return SourceAmended, original
	default:
		return SourceManual, original
	}
}

// Attempt is one entry in a component's resolution attempt log.
type Attempt struct {
	Candidate string `json:"candidate"`
	Outcome   string `json:"outcome"`
}

// ResolvedComponent is a RawComponent plus resolved identity and derived
// quantities.  Mass and Moles are always recomputed together from Quantity,
// Unit, MolarMass, and Density; they are never independently stale.
type ResolvedComponent struct {
	RawComponent

	Compound       *Compound        `json:"compound,omitempty"`
	Source         ResolutionSource `json:"source"`
	OriginalSource ResolutionSource `json:"original_source,omitempty"`

	Mass        *float64 `json:"mass,omitempty"`  // g
	Moles       *float64 `json:"moles,omitempty"` // mmol
	Equivalents *float64 `json:"equivalents,omitempty"`
	IsLimiting  bool     `json:"is_limiting"`

	// ResolutionError holds the descriptive message attached when every
	// resolution strategy was exhausted.  Empty for resolved components.
	ResolutionError string `json:"resolution_error,omitempty"`

	// Attempts is the ordered per-component candidate log, written only by
	// the worker owning this component.
	Attempts []Attempt `json:"attempts,omitempty"`
}

// NewUnresolved wraps a raw component in the unresolved terminal state with
// its original fields intact and an attached error message.
func NewUnresolved(raw RawComponent, attempts []Attempt, msg string) *ResolvedComponent {
	return &ResolvedComponent{
		RawComponent:    raw,
		Source:          SourceUnresolved,
		ResolutionError: msg,
		Attempts:        attempts,
	}
}

// MarkEdited applies the provenance transition for a user edit and clears
// derived values so the next stoichiometry pass recomputes them.
func (c *ResolvedComponent) MarkEdited() {
	c.Source, c.OriginalSource = AmendSource(c.Source, c.OriginalSource)
	c.Equivalents = nil
	c.IsLimiting = false
}

// MolarMass returns the resolved molar mass, or nil when no identity with a
// positive molar mass is attached.
func (c *ResolvedComponent) MolarMass() *float64 {
	if c.Compound == nil || c.Compound.MolarMass <= 0 {
		return nil
	}
	m := c.Compound.MolarMass
	return &m
}

// Density returns the resolved density, or nil when unknown.
func (c *ResolvedComponent) Density() *float64 {
	if c.Compound == nil {
		return nil
	}
	return c.Compound.Density
}
