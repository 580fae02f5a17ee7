package pubchem

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/synthbench/reagent/internal/domain/reaction"
	"github.com/synthbench/reagent/internal/infrastructure/monitoring/logging"
)

// PUG View sections are deeply nested; viewSection mirrors only the parts we
// walk.
type viewSection struct {
	TOCHeading  string        `json:"TOCHeading"`
	Section     []viewSection `json:"Section"`
	Information []struct {
		Name  string `json:"Name"`
		Value struct {
			StringWithMarkup []struct {
				String string `json:"String"`
			} `json:"StringWithMarkup"`
		} `json:"Value"`
	} `json:"Information"`
}

type viewResponse struct {
	Record struct {
		Section []viewSection `json:"Section"`
	} `json:"Record"`
}

// enrichFromView fills density, hazard classification, and a short
// description from PUG View records.  Every failure here is swallowed: the
// record is already usable without these fields.
func (c *Client) enrichFromView(ctx context.Context, compound *reaction.Compound) {
	if compound == nil || compound.CID == 0 {
		return
	}
	if density := c.fetchDensity(ctx, compound.CID); density != nil {
		compound.Density = density
	}
	if hazard := c.fetchHazard(ctx, compound.CID); hazard != nil {
		compound.Hazard = hazard
	}
	if desc := c.fetchDescription(ctx, compound.CID); desc != "" {
		compound.Description = desc
	}
}

func (c *Client) fetchDescription(ctx context.Context, cid int) string {
	sections, ok := c.fetchView(ctx, cid, "Record Description")
	if !ok {
		return ""
	}
	if all := collectStrings(sections); len(all) > 0 {
		return all[0]
	}
	return ""
}

var densityValue = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*g\s*/\s*(?:cm3|cm³|cu cm|mL|ml)`)

func (c *Client) fetchDensity(ctx context.Context, cid int) *float64 {
	sections, ok := c.fetchView(ctx, cid, "Density")
	if !ok {
		return nil
	}
	for _, s := range collectStrings(sections) {
		if m := densityValue.FindStringSubmatch(s); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				return &v
			}
		}
	}
	return nil
}

func (c *Client) fetchHazard(ctx context.Context, cid int) *reaction.HazardSummary {
	sections, ok := c.fetchView(ctx, cid, "GHS Classification")
	if !ok {
		return nil
	}
	h := &reaction.HazardSummary{}
	for _, s := range collectStrings(sections) {
		switch {
		case strings.HasPrefix(s, "H") && len(s) > 4 && s[1] >= '0' && s[1] <= '9':
			h.HazardStatements = append(h.HazardStatements, s)
		case s == "Danger" || s == "Warning":
			if h.Signal == "" {
				h.Signal = s
			}
		case strings.HasPrefix(s, "GHS"):
			h.Pictograms = append(h.Pictograms, s)
		}
	}
	if h.Signal == "" && len(h.HazardStatements) == 0 && len(h.Pictograms) == 0 {
		return nil
	}
	return h
}

func (c *Client) fetchView(ctx context.Context, cid int, heading string) ([]viewSection, bool) {
	endpoint := fmt.Sprintf("%s/data/compound/%d/JSON?heading=%s",
		c.viewURL, cid, strings.ReplaceAll(heading, " ", "+"))
	body, err := c.get(ctx, endpoint)
	if err != nil || body == nil {
		if err != nil {
			c.logger.Debug("view fetch failed",
				logging.Int("cid", cid), logging.String("heading", heading), logging.Err(err))
		}
		return nil, false
	}
	var resp viewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Debug("view decode failed", logging.Int("cid", cid), logging.Err(err))
		return nil, false
	}
	return resp.Record.Section, true
}

func collectStrings(sections []viewSection) []string {
	var out []string
	for _, s := range sections {
		for _, info := range s.Information {
			for _, v := range info.Value.StringWithMarkup {
				if str := strings.TrimSpace(v.String); str != "" {
					out = append(out, str)
				}
			}
		}
		out = append(out, collectStrings(s.Section)...)
	}
	return out
}
