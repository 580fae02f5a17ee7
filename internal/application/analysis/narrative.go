package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
)

// Narrative produces the reaction assessment text.  When the narrator is
// missing or fails the method falls back to a deterministic local summary,
// so the endpoint always answers.
func (s *Service) Narrative(ctx context.Context, components []*reaction.ResolvedComponent) string {
	summary := reaction.Summary(components)
	if s.narrator != nil {
		text, err := s.narrator.Narrative(ctx, components, summary)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			s.logger.Warn("narrative generation failed, using local summary", logging.Err(err))
		}
	}
	return localNarrative(components, summary)
}

func localNarrative(components []*reaction.ResolvedComponent, summary string) string {
	var b strings.Builder
	resolved, unresolved := 0, 0
	var hazards []string
	for _, c := range components {
		if c == nil {
			continue
		}
		if c.Source == reaction.SourceUnresolved {
			unresolved++
			continue
		}
		resolved++
		if c.Compound != nil && c.Compound.Hazard != nil && c.Compound.Hazard.Signal == "Danger" {
			hazards = append(hazards, c.Compound.CanonicalName)
		}
	}
	fmt.Fprintf(&b, "%d of %d components identified. %s.", resolved, resolved+unresolved, summary)
	if unresolved > 0 {
		fmt.Fprintf(&b, " %d component(s) could not be identified and are excluded from the equivalents calculation.", unresolved)
	}
	if len(hazards) > 0 {
		fmt.Fprintf(&b, " Hazard signal word Danger applies to: %s.", strings.Join(hazards, ", "))
	}
	return b.String()
}
