package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/howard-nolan/llmrevise/internal/cost"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

func costCmd(a *app) *cobra.Command {
	var usage provider.Usage

	cmd := &cobra.Command{
		Use:   "cost <model>",
		Short: "Estimate the USD cost of a token count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if usage.InputTokens < 0 || usage.OutputTokens < 0 {
				return fmt.Errorf("token counts must not be negative")
			}
			usage.TotalTokens = usage.InputTokens + usage.OutputTokens

			est, ok := cost.For(usage, args[0])
			if !ok {
				return fmt.Errorf("no pricing for model %q", args[0])
			}

			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), est)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "input   $%s\noutput  $%s\ntotal   %s\n",
				est.InputCostUSD, est.OutputCostUSD, est)
			return nil
		},
	}

	cmd.Flags().IntVar(&usage.InputTokens, "input", 0, "Input (prompt) tokens")
	cmd.Flags().IntVar(&usage.OutputTokens, "output", 0, "Output (completion) tokens")

	return cmd
}
