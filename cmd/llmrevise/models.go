package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/howard-nolan/llmrevise/internal/catalog"
)

func modelsCmd(a *app) *cobra.Command {
	var providerName string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List supported models",
		Long: `Models lists the model catalog. The first model listed for a provider
is its default.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()

			providers := cat.Providers()
			if providerName != "" {
				p := catalog.Provider(strings.ToLower(providerName))
				if len(cat.ListModels(p)) == 0 {
					return fmt.Errorf("unknown provider %q", providerName)
				}
				providers = []catalog.Provider{p}
			}

			var models []catalog.ModelSpec
			for _, p := range providers {
				models = append(models, cat.ListModels(p)...)
			}

			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), models)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tMODEL\tCONTEXT\tMAX OUT\tIN $/M\tOUT $/M\tCAPABILITIES")
			for _, m := range models {
				in, out := "-", "-"
				if m.HasPricing() {
					in, out = m.InputCostPerMillion.String(), m.OutputCostPerMillion.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
					m.Provider, m.APIIdentifier, m.ContextWindow, m.MaxOutputTokens,
					in, out, strings.Join(m.Capabilities.Names(), ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Only list this provider's models")

	return cmd
}
