package assistant

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/pkg/errors"
)

// componentPayload is the wire shape expected from the extraction prompt.
// Quantity and coefficient tolerate both numbers and quoted numbers because
// models are inconsistent about JSON number types.
type componentPayload struct {
	Name        string      `json:"name"`
	CAS         string      `json:"cas"`
	Aliases     []string    `json:"aliases"`
	Quantity    laxNumber   `json:"quantity"`
	Unit        string      `json:"unit"`
	Role        string      `json:"role"`
	Coefficient laxNumber   `json:"coefficient"`
}

type laxNumber struct {
	value *float64
}

func (n *laxNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(strings.Trim(string(data), `"`))
	if s == "" || s == "null" {
		n.value = nil
		return nil
	}
	// Tolerate decimal commas.
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		n.value = nil
		return nil
	}
	n.value = &v
	return nil
}

// extractJSONArray slices the first '[' to the last ']' out of a model
// response, tolerating prose and markdown fences around the payload.
func extractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// parseComponentArray converts a raw extraction response into normalized raw
// components.  Entries failing validation are skipped, not fatal; a response
// with no array at all is a parse error.
func parseComponentArray(raw string) ([]reaction.RawComponent, error) {
	payload, ok := extractJSONArray(raw)
	if !ok {
		return nil, errors.New(errors.CodeAssistantParseError, "no JSON array in assistant response")
	}
	var items []componentPayload
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, errors.Wrap(err, errors.CodeAssistantParseError, "decoding assistant response")
	}

	components := make([]reaction.RawComponent, 0, len(items))
	for _, item := range items {
		c := reaction.RawComponent{
			Name:      item.Name,
			CASNumber: item.CAS,
			Aliases:   item.Aliases,
			Quantity:  item.Quantity.value,
			Unit:      item.Unit,
			Role:      reaction.ParseRole(item.Role),
		}
		if item.Coefficient.value != nil {
			c.Coefficient = *item.Coefficient.value
		}
		c.Normalize()
		if c.Validate() != nil {
			continue
		}
		components = append(components, c)
	}
	return components, nil
}

// cleanSuggestion strips quoting, fences, and labels from a name suggestion
// and rejects multi-line or sentence-like responses.
func cleanSuggestion(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "`\"'")
	for _, prefix := range []string{"Name:", "name:", "Suggestion:", "suggestion:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	if s == "" || strings.ContainsAny(s, "\n") || strings.HasSuffix(s, ".") && strings.Count(s, " ") > 4 {
		return ""
	}
	return s
}
