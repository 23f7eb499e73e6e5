package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/howard-nolan/llmrevise/internal/probe"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

func probeCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "probe [provider...]",
		Short: "Check which providers answer",
		Long: `Probe sends a minimal request to each provider (all of them by default)
and reports which ones answered. Unconfigured providers fail without any
network call.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var adapters []provider.Adapter
			if len(args) == 0 {
				for _, name := range provider.Names() {
					adapters = append(adapters, a.adapters[name])
				}
			}
			for _, name := range args {
				ad, err := a.adapter(name)
				if err != nil {
					return err
				}
				adapters = append(adapters, ad)
			}

			results := probe.All(cmd.Context(), adapters, limit)

			if a.jsonOut {
				return a.printJSON(cmd.OutOrStdout(), results)
			}

			out := cmd.OutOrStdout()
			for i, r := range results {
				status := "ready"
				if !r.OK {
					status = "unavailable"
					if !adapters[i].IsReady() {
						status = "not configured"
					}
				}
				fmt.Fprintf(out, "%s %-11s %-15s %s\n", mark(r.OK), r.Provider, status, r.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "parallel", probe.DefaultLimit, "Maximum concurrent probes")

	return cmd
}
