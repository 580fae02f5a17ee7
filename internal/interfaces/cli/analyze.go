package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synthbench/reagent/internal/application/analysis"
	"github.com/synthbench/reagent/internal/domain/reaction"
)

func newAnalyzeCommand(opts *RootOptions) *cobra.Command {
	var withNarrative bool

	cmd := &cobra.Command{
		Use:   "analyze [reaction description]",
		Short: "Analyze a reaction description and print the stoichiometry table",
		Long: `Analyze extracts components from a free-text reaction description,
resolves their identities, and computes mass, moles, equivalents, and the
limiting reagent.  The description is read from the arguments, or from
stdin when no arguments are given.`,
		Example: `  reagent analyze "5 g ethanol + 3 g acetic acid"
  echo "100 mmol benzaldehyde, 2 ml toluene" | reagent analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}

			service, cleanup, err := buildService(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := service.AnalyzeText(cmd.Context(), text)
			if err != nil {
				return err
			}
			if withNarrative {
				narrative := service.Narrative(cmd.Context(), result.Components)
				defer fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", narrative)
			}

			if opts.Output == "json" {
				return printJSON(cmd.OutOrStdout(), result)
			}
			printAnalysisTable(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withNarrative, "narrative", false, "also print the assistant's reaction assessment")
	return cmd
}

func printAnalysisTable(w io.Writer, result *analysis.Analysis) {
	fmt.Fprintf(w, "%-24s %-10s %-12s %10s %10s %8s %s\n",
		"NAME", "SOURCE", "FORMULA", "MASS [g]", "MOL [mmol]", "EQ", "FLAGS")
	for _, c := range result.Components {
		if c == nil {
			continue
		}
		name := c.Name
		formula := "-"
		if c.Compound != nil {
			if c.Compound.CanonicalName != "" {
				name = c.Compound.CanonicalName
			}
			if c.Compound.Formula != "" {
				formula = c.Compound.Formula
			}
		}
		flags := ""
		if c.IsLimiting {
			flags = "limiting"
		}
		if c.Source == reaction.SourceUnresolved {
			flags = "unresolved"
		}
		fmt.Fprintf(w, "%-24s %-10s %-12s %10s %10s %8s %s\n",
			truncate(name, 24), c.Source, formula,
			formatOptional(c.Mass), formatOptional(c.Moles), formatOptional(c.Equivalents), flags)
	}
	fmt.Fprintf(w, "\n%s (extraction: %s)\n", result.Summary, result.ExtractionMethod)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
