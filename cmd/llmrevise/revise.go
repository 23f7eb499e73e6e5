package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/howard-nolan/llmrevise/internal/cost"
	"github.com/howard-nolan/llmrevise/internal/provider"
)

func reviseCmd(a *app) *cobra.Command {
	var (
		providerName string
		req          provider.GenerateRequest
		contextFile  string
	)

	cmd := &cobra.Command{
		Use:   "revise [text]",
		Short: "Revise a passage of text",
		Long: `Revise sends the text plus instructions to a provider and prints the
revised text on stdout. Without a text argument the text is read from stdin.

Status (model, tokens, cost) goes to stderr, so stdout can be piped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ad, err := a.adapter(providerName)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				req.SelectedText = args[0]
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				req.SelectedText = strings.TrimRight(string(b), "\n")
			}
			if strings.TrimSpace(req.SelectedText) == "" {
				return fmt.Errorf("nothing to revise: pass the text as an argument or on stdin")
			}

			if contextFile != "" {
				b, err := os.ReadFile(contextFile)
				if err != nil {
					return fmt.Errorf("reading context file: %w", err)
				}
				req.FullContext = string(b)
			}

			res := ad.Generate(cmd.Context(), req)

			var est *cost.Estimate
			if res.Succeeded {
				if e, ok := cost.For(*res.Usage, res.Model); ok {
					est = &e
				}
			}

			if a.jsonOut {
				if err := a.printJSON(cmd.OutOrStdout(), struct {
					provider.GenerateResult
					Cost *cost.Estimate `json:"cost,omitempty"`
				}{res, est}); err != nil {
					return err
				}
				return res.Err()
			}

			if !res.Succeeded {
				return res.Err()
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			printSummary(cmd.ErrOrStderr(), res, est)
			return nil
		},
	}

	cmd.Flags().StringVarP(&providerName, "provider", "p", "", "Provider to use (default from config)")
	cmd.Flags().StringVarP(&req.Model, "model", "m", "", "Model API identifier (default: the provider's first model)")
	cmd.Flags().StringVarP(&req.Instructions, "instructions", "i", "", "What to change")
	cmd.Flags().StringVar(&contextFile, "context-file", "", "File holding the full document, sent for context only")
	cmd.Flags().Float64VarP(&req.Temperature, "temperature", "t", 0.3, "Sampling temperature, 0 to 1")
	cmd.Flags().IntVar(&req.MaxOutputTokens, "max-tokens", 0, "Output token ceiling (0: provider default)")
	_ = cmd.MarkFlagRequired("instructions")

	return cmd
}
