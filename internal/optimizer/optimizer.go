// Package optimizer provides suggestions for a synthesized topology.
// It analyzes nodes for security, cost, performance, and reliability improvements.
package optimizer

import (
	"fmt"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Categories accepted by Options.Category besides "all".
var Categories = []string{"security", "cost", "performance", "reliability"}

// Options configures the optimizer.
type Options struct {
	// Category filters suggestions: "all", "security", "cost", "performance", "reliability"
	Category string
}

// Result contains optimization suggestions.
type Result struct {
	Suggestions []wetwire.OptimizeSuggestion
	Summary     wetwire.OptimizeSummary
}

// Optimize analyzes the topology and returns suggestions in declaration order.
func Optimize(topo *topology.Topology, opts Options) (*Result, error) {
	if topo == nil {
		return nil, fmt.Errorf("optimize: topology is required")
	}
	category := opts.Category
	if category == "" {
		category = "all"
	}
	if !validCategory(category) {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	result := &Result{}
	for _, n := range topo.Nodes() {
		result.Suggestions = append(result.Suggestions, analyzeNode(topo, n, category)...)
	}

	result.Summary = calculateSummary(result.Suggestions)
	return result, nil
}

// analyzeNode applies the rules for the node's kind.
func analyzeNode(topo *topology.Topology, n topology.ResourceNode, category string) []wetwire.OptimizeSuggestion {
	var suggestions []wetwire.OptimizeSuggestion

	for _, rule := range rulesByKind[n.Kind] {
		if category != "all" && rule.Category != category {
			continue
		}
		if suggestion := rule.Check(topo, n); suggestion != nil {
			suggestion.Rule = rule.ID
			suggestion.Resource = n.ID
			suggestion.Category = rule.Category
			if suggestion.Title == "" {
				suggestion.Title = rule.Title
			}
			if suggestion.Description == "" {
				suggestion.Description = rule.Description
			}
			suggestions = append(suggestions, *suggestion)
		}
	}

	return suggestions
}

// calculateSummary tallies suggestions by category.
func calculateSummary(suggestions []wetwire.OptimizeSuggestion) wetwire.OptimizeSummary {
	summary := wetwire.OptimizeSummary{}
	for _, s := range suggestions {
		switch s.Category {
		case "security":
			summary.Security++
		case "cost":
			summary.Cost++
		case "performance":
			summary.Performance++
		case "reliability":
			summary.Reliability++
		}
		summary.Total++
	}
	return summary
}

func validCategory(c string) bool {
	if c == "all" {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Rule represents an optimization rule.
type Rule struct {
	ID          string
	Category    string
	Title       string
	Description string
	Check       func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion
}
