// Package wetwire_fargate synthesizes a two-tier VPC, load balancer and ECS
// Fargate service from environment configuration.
//
// The wetwire-fargate CLI validates the environment, builds a dependency
// ordered resource graph and renders it as Terraform JSON or a
// CloudFormation template:
//
//	wetwire-fargate synth --env-file .env -o main.tf.json
//	wetwire-fargate synth --target cloudformation --format yaml
//
// This file holds the document and result types shared by the CLI and the
// internal packages.
package wetwire_fargate

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
}

// TerraformDocument is a Terraform JSON configuration (main.tf.json).
type TerraformDocument struct {
	Terraform TerraformBlock                       `json:"terraform" yaml:"terraform"`
	Provider  map[string][]map[string]any          `json:"provider" yaml:"provider"`
	Resource  map[string]map[string]map[string]any `json:"resource" yaml:"resource"`
	Output    map[string]TerraformOutput           `json:"output,omitempty" yaml:"output,omitempty"`
}

// TerraformBlock is the top-level terraform settings block.
type TerraformBlock struct {
	Backend           map[string]map[string]any `json:"backend" yaml:"backend"`
	RequiredProviders map[string]ProviderSource `json:"required_providers" yaml:"required_providers"`
}

// ProviderSource pins a provider.
type ProviderSource struct {
	Source  string `json:"source" yaml:"source"`
	Version string `json:"version" yaml:"version"`
}

// TerraformOutput is one output block.
type TerraformOutput struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Value       any    `json:"value" yaml:"value"`
}

// DiffEntry is one changed node.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Kind     string   `json:"kind"`
	Changes  []string `json:"changes,omitempty"`
}

// TopologyDiff lists nodes that differ between two topologies.
type TopologyDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
	Outputs  []string    `json:"outputs,omitempty"`
}

// DiffSummary counts the entries of a TopologyDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Outputs  int `json:"outputs"`
	Total    int `json:"total"`
}

// SynthResult is the JSON summary printed by `wetwire-fargate synth --summary`.
type SynthResult struct {
	Success      bool     `json:"success"`
	Target       string   `json:"target"`
	ListenerMode string   `json:"listener_mode,omitempty"`
	Resources    []string `json:"resources,omitempty"`
	Outputs      []string `json:"outputs,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-fargate validate --json`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// PreflightResult is the JSON output from `wetwire-fargate preflight --json`.
type PreflightResult struct {
	Success         bool   `json:"success"`
	ExpectedAccount string `json:"expected_account"`
	CallerAccount   string `json:"caller_account,omitempty"`
	CallerARN       string `json:"caller_arn,omitempty"`
	Error           string `json:"error,omitempty"`
}

// OptimizeSuggestion is one finding from `wetwire-fargate optimize`.
type OptimizeSuggestion struct {
	Rule        string `json:"rule"`
	Resource    string `json:"resource"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// OptimizeSummary counts suggestions per category.
type OptimizeSummary struct {
	Security    int `json:"security"`
	Cost        int `json:"cost"`
	Reliability int `json:"reliability"`
	Performance int `json:"performance"`
	Total       int `json:"total"`
}

// OptimizeResult is the JSON output from `wetwire-fargate optimize -f json`.
type OptimizeResult struct {
	Success       bool                 `json:"success"`
	Suggestions   []OptimizeSuggestion `json:"suggestions"`
	ResourceCount int                  `json:"resource_count"`
	Summary       OptimizeSummary      `json:"summary"`
}
