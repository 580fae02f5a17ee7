package reaction

import (
	"regexp"
	"strconv"
	"strings"
)

// HeuristicParse is the no-assistant extraction path: it splits a reaction
// description on component separators and recovers a name, an amount, and a
// role guess per segment.  It is intentionally crude; it exists so the
// analysis pipeline keeps working when the assistant is unavailable, and its
// output passes through the same Normalize/Validate boundary as assistant
// output.
func HeuristicParse(text string) []RawComponent {
	var out []RawComponent
	for _, segment := range splitComponents(text) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		c := parseSegment(segment)
		c.Normalize()
		if c.Validate() != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

var (
	componentSeparator = regexp.MustCompile(`[,;+]`)
	amountPattern      = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mmol|mol|mg|ml|g|gramm?s?)\b`)
	fillerWords        = regexp.MustCompile(`(?i)\b(of|von|with|mit|and|und|in|the)\b`)
)

func splitComponents(text string) []string {
	return componentSeparator.Split(text, -1)
}

func parseSegment(segment string) RawComponent {
	c := RawComponent{Role: RoleReactant}

	lower := strings.ToLower(segment)
	if strings.Contains(lower, "produkt") || strings.Contains(lower, "product") {
		c.Role = RoleProduct
	} else if strings.Contains(lower, "solvent") || strings.Contains(lower, "lösemittel") {
		c.Role = RoleSolvent
	}

	name := segment
	if m := amountPattern.FindStringSubmatch(segment); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			c.Quantity = &v
			c.Unit = strings.ToLower(m[2])
		}
		name = amountPattern.ReplaceAllString(name, " ")
	}
	name = fillerWords.ReplaceAllString(name, " ")
	c.Name = strings.Join(strings.Fields(name), " ")
	return c
}
