package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLookupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>",
		Short: "Resolve a single compound name to its identity record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := buildService(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			name := strings.Join(args, " ")
			compound, source, attempts, err := service.LookupCompound(cmd.Context(), name)
			if err != nil {
				for _, a := range attempts {
					fmt.Fprintf(cmd.ErrOrStderr(), "tried %q: %s\n", a.Candidate, a.Outcome)
				}
				return err
			}

			if opts.Output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"compound": compound,
					"source":   source,
					"attempts": attempts,
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Name:       %s\n", compound.CanonicalName)
			fmt.Fprintf(w, "CID:        %d\n", compound.CID)
			fmt.Fprintf(w, "Formula:    %s\n", compound.Formula)
			fmt.Fprintf(w, "Molar mass: %.2f g/mol\n", compound.MolarMass)
			if compound.CASNumber != "" {
				fmt.Fprintf(w, "CAS:        %s\n", compound.CASNumber)
			}
			if compound.Density != nil {
				fmt.Fprintf(w, "Density:    %.3f g/mL\n", *compound.Density)
			}
			if compound.Hazard != nil && compound.Hazard.Signal != "" {
				fmt.Fprintf(w, "Hazard:     %s (%s)\n", compound.Hazard.Signal,
					strings.Join(compound.Hazard.HazardStatements, ", "))
			}
			fmt.Fprintf(w, "Source:     %s\n", source)
			return nil
		},
	}
}
