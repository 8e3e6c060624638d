package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/optimizer"
)

// isValidCategory checks if a category is valid.
func isValidCategory(category string) bool {
	if category == "all" {
		return true
	}
	for _, c := range optimizer.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// newOptimizeCmd creates the "optimize" subcommand for suggesting improvements.
func newOptimizeCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		category     string
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Suggest topology improvements",
		Long: `Optimize analyzes the synthesized topology and suggests improvements
for security, cost, performance, and reliability.

Categories:
    security     - Open ingress, plain HTTP, mutable image tags
    cost         - NAT traffic, log retention, image lifecycle, Spot capacity
    performance  - Service auto scaling
    reliability  - Single NAT gateway, single task, alarm actions

Examples:
    wetwire-fargate optimize
    wetwire-fargate optimize --category security
    wetwire-fargate optimize -f json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isValidCategory(category) {
				return fmt.Errorf("invalid category: %s (valid: all, %s)", category, strings.Join(optimizer.Categories, ", "))
			}
			return runOptimize(opts, cmd.OutOrStdout(), outputFormat, category)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&category, "category", "c", "all", "Category: all, security, cost, performance, or reliability")

	return cmd
}

// runOptimize synthesizes the topology and prints suggestions. Suggestions
// are not an error.
func runOptimize(opts *globalOptions, w io.Writer, format, category string) error {
	_, topo, err := opts.synthesize()
	if err != nil {
		return err
	}

	optResult, err := optimizer.Optimize(topo, optimizer.Options{Category: category})
	if err != nil {
		return fmt.Errorf("optimize failed: %w", err)
	}

	result := wetwire.OptimizeResult{
		Success:       true,
		Suggestions:   optResult.Suggestions,
		ResourceCount: topo.Len(),
		Summary:       optResult.Summary,
	}
	return outputOptimizeResult(w, result, format)
}

func outputOptimizeResult(w io.Writer, result wetwire.OptimizeResult, format string) error {
	switch format {
	case "json":
		return writeJSON(w, result)

	case "text":
		if len(result.Suggestions) == 0 {
			fmt.Fprintf(w, "Analyzed %d resources. No optimization suggestions.\n", result.ResourceCount)
			return nil
		}

		fmt.Fprintf(w, "Analyzed %d resources. Found %d suggestions:\n\n", result.ResourceCount, result.Summary.Total)

		byCat := map[string][]wetwire.OptimizeSuggestion{}
		for _, s := range result.Suggestions {
			byCat[s.Category] = append(byCat[s.Category], s)
		}

		for _, cat := range optimizer.Categories {
			suggestions := byCat[cat]
			if len(suggestions) == 0 {
				continue
			}

			fmt.Fprintf(w, "=== %s (%d) ===\n", capitalize(cat), len(suggestions))
			for _, s := range suggestions {
				fmt.Fprintf(w, "\n[%s] %s (%s)\n", s.Severity, s.Title, s.Rule)
				fmt.Fprintf(w, "  Resource: %s\n", s.Resource)
				fmt.Fprintf(w, "  %s\n", s.Description)
				fmt.Fprintf(w, "  Suggestion: %s\n", s.Suggestion)
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Summary: %d security, %d cost, %d performance, %d reliability\n",
			result.Summary.Security, result.Summary.Cost,
			result.Summary.Performance, result.Summary.Reliability)
		return nil

	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
