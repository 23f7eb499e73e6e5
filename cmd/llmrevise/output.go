package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/howard-nolan/llmrevise/internal/cost"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

// printError reports a command failure. Classified provider errors show
// their kind so the user knows whether to fix settings or just retry.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("✗"), err)

	switch {
	case provider.IsKind(err, provider.KindNotConfigured):
		fmt.Fprintln(w, color.YellowString("  check the provider's section in your config or its LLMREVISE_PROVIDERS_* variables"))
	case provider.IsKind(err, provider.KindTransportFailure):
		fmt.Fprintln(w, color.YellowString("  the provider could not be reached; try again"))
	}
}

// printSummary writes the one-line status shown under revised text.
func printSummary(w io.Writer, res provider.GenerateResult, est *cost.Estimate) {
	fmt.Fprintf(w, "%s %s via %s in %s",
		color.GreenString("✓"),
		color.CyanString(res.Model),
		res.Provider,
		res.Duration.Round(time.Millisecond))

	if res.Usage != nil {
		fmt.Fprintf(w, " · %d in / %d out tokens", res.Usage.InputTokens, res.Usage.OutputTokens)
	}
	if est != nil {
		fmt.Fprintf(w, " · %s", est)
	}
	fmt.Fprintln(w)

	if res.ModelSubstituted {
		fmt.Fprintf(w, "%s model %q is not available for %s; used %s\n",
			color.YellowString("!"), res.RequestedModel, res.Provider, res.Model)
	}
}

func mark(ok bool) string {
	if ok {
		return color.GreenString("✓")
	}
	return color.RedString("✗")
}
