package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/synth"
	"github.com/lex00/wetwire-fargate-go/internal/tags"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

func synthesize(t *testing.T, overrides map[string]string) *topology.Topology {
	t.Helper()
	env := map[string]string{
		config.EnvRegion:       "us-east-1",
		config.EnvAccountID:    "123456789012",
		config.EnvRepoName:     "demo-repo",
		config.EnvClusterName:  "demo",
		config.EnvVPCCIDR:      "10.0.0.0/16",
		config.EnvPublicCIDRA:  "10.0.1.0/24",
		config.EnvPublicCIDRB:  "10.0.2.0/24",
		config.EnvPrivateCIDRA: "10.0.11.0/24",
		config.EnvPrivateCIDRB: "10.0.12.0/24",
		config.EnvStateBucket:  "demo-state",
		config.EnvImageTag:     "v1",
	}
	for k, v := range overrides {
		env[k] = v
	}
	cfg, err := config.Load(config.MapLookup(env), config.Options{})
	require.NoError(t, err)
	topo, err := synth.Synthesize(cfg, nil)
	require.NoError(t, err)
	return topo
}

func checks(violations []Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Check)
	}
	return out
}

func TestCheckTopology_Synthesized(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"http only", nil},
		{"https issued", map[string]string{
			config.EnvEnableHTTPS:  "true",
			config.EnvDomainName:   "app.example.com",
			config.EnvHostedZoneID: "Z123",
		}},
		{"https imported", map[string]string{
			config.EnvEnableHTTPS:     "true",
			config.EnvDomainName:      "app.example.com",
			config.EnvCertificateARN:  "arn:aws:acm:us-east-1:123456789012:certificate/abc",
			config.EnvALBAllowedCIDRs: "10.0.0.0/8,192.168.0.0/16",
		}},
		{"custom ports", map[string]string{
			config.EnvContainerPort: "8080",
			config.EnvALBPort:       "8000",
			config.EnvDesiredTasks:  "2",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, CheckTopology(synthesize(t, tt.env)))
		})
	}
}

func TestCheckTopology_ListenerModeMismatch(t *testing.T) {
	topo := synthesize(t, nil)
	topo.SetListenerMode(topology.ListenerHTTPSEnabled)

	violations := CheckTopology(topo)
	assert.ElementsMatch(t, []string{CheckListeners, CheckOutputs}, checks(violations))
}

func TestCheckTopology_Subnets(t *testing.T) {
	topo := synthesize(t, nil)

	// Node returns the stored attribute map
	privB, ok := topo.Node("privateSubnetB")
	require.True(t, ok)
	privB.Attributes["availability_zone"] = "us-east-1a"
	privB.Attributes["cidr_block"] = "172.16.0.0/24"

	violations := CheckTopology(topo)
	require.Len(t, violations, 2)
	for _, v := range violations {
		assert.Equal(t, CheckSubnets, v.Check)
		assert.Equal(t, "privateSubnetB", v.Resource)
	}
	assert.Contains(t, violations[0].Message, "used twice")
	assert.Contains(t, violations[1].Message, "outside the vpc")
}

func TestCheckTopology_SecurityGroupPairing(t *testing.T) {
	topo := synthesize(t, nil)

	ecsSg, ok := topo.Node("ecsSg")
	require.True(t, ok)
	ecsSg.Attributes["ingress"] = []any{map[string]any{"from_port": 22}}

	rule, ok := topo.Node("ecsFromAlbIngress")
	require.True(t, ok)
	rule.Attributes["to_port"] = 22

	violations := CheckTopology(topo)
	require.Len(t, violations, 2)
	assert.Equal(t, []string{CheckSGPairing, CheckSGPairing}, checks(violations))
	assert.Equal(t, "ecsSg", violations[0].Resource)
	assert.Equal(t, "ecsFromAlbIngress", violations[1].Resource)
}

func TestCheckTopology_Bare(t *testing.T) {
	topo := topology.New()
	common := tags.Common(tags.Inputs{Project: "p", Environment: "e"})
	_, err := topo.Add(topology.ResourceNode{
		Kind:       topology.KindVPC,
		ID:         "customVpc",
		Attributes: map[string]any{"cidr_block": "10.0.0.0/16"},
		Tags:       common,
	})
	require.NoError(t, err)
	topo.SetListenerMode(topology.ListenerHTTPOnly)
	require.NoError(t, topo.Seal())

	violations := CheckTopology(topo)
	got := checks(violations)
	assert.Contains(t, got, CheckSubnets)
	assert.Contains(t, got, CheckSGPairing)
	assert.Contains(t, got, CheckListeners)
	assert.Contains(t, got, CheckOutputs)
	assert.NotContains(t, got, CheckAcyclic)
	assert.NotContains(t, got, CheckTags)
}

func TestValidate(t *testing.T) {
	result, err := Validate(synthesize(t, nil), Options{})
	require.NoError(t, err)
	assert.True(t, result.Passed())
	assert.Nil(t, result.CfnLintResult)

	summary := result.Summary(42)
	assert.True(t, summary.Success)
	assert.Equal(t, 42, summary.Resources)
	assert.Empty(t, summary.Errors)

	_, err = Validate(nil, Options{})
	assert.Error(t, err)
}

func TestValidationResult_Summary(t *testing.T) {
	result := &ValidationResult{
		Violations: []Violation{{Check: CheckOutputs, Resource: "appUrl", Message: "output is missing"}},
		CfnLintResult: &CfnLintResult{
			Passed:   true,
			Warnings: []string{"W1: careful"},
		},
	}
	assert.False(t, result.Passed())

	summary := result.Summary(3)
	assert.False(t, summary.Success)
	assert.Equal(t, []string{"outputs: appUrl: output is missing"}, summary.Errors)
	assert.Equal(t, []string{"W1: careful"}, summary.Warnings)
}

func TestViolation_String(t *testing.T) {
	assert.Equal(t, "acyclic: cycle", Violation{Check: CheckAcyclic, Message: "cycle"}.String())
	assert.Equal(t, "tags: vpc: missing", Violation{Check: CheckTags, Resource: "vpc", Message: "missing"}.String())
}

func TestCfnLintResult_TotalIssues(t *testing.T) {
	tests := []struct {
		name     string
		result   CfnLintResult
		expected int
	}{
		{
			name:     "empty result",
			result:   CfnLintResult{},
			expected: 0,
		},
		{
			name: "errors only",
			result: CfnLintResult{
				Errors: []string{"error1", "error2"},
			},
			expected: 2,
		},
		{
			name: "mixed issues",
			result: CfnLintResult{
				Errors:        []string{"error1"},
				Warnings:      []string{"warning1", "warning2"},
				Informational: []string{"info1"},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.TotalIssues())
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    lint.Match
		expected string
	}{
		{
			name: "simple match",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "E3012"},
				Message: "Property has wrong type",
			},
			expected: "E3012: Property has wrong type",
		},
		{
			name: "match with path",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "W3005"},
				Message: "Obsolete DependsOn",
				Location: lint.MatchLocation{
					Path: []any{"Resources", "ecsService", "DependsOn"},
				},
			},
			expected: "W3005: Obsolete DependsOn (at Resources/ecsService/DependsOn)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.json")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_ValidTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "template.yaml")

	validTemplate := `AWSTemplateFormatVersion: '2010-09-09'
Resources:
  appLogs:
    Type: AWS::Logs::LogGroup
    Properties:
      LogGroupName: /ecs/demo
      RetentionInDays: 7
`
	require.NoError(t, os.WriteFile(templatePath, []byte(validTemplate), 0o644))

	result, err := RunCfnLint(templatePath)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Errors)
	assert.True(t, result.Passed)
}

func TestLintTopology(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"http only", nil},
		{"https issued", map[string]string{
			config.EnvEnableHTTPS:  "true",
			config.EnvDomainName:   "app.example.com",
			config.EnvHostedZoneID: "Z123",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := LintTopology(synthesize(t, tt.env))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Empty(t, result.Errors)
			assert.True(t, result.Passed)
		})
	}
}

func TestValidate_CfnLint(t *testing.T) {
	result, err := Validate(synthesize(t, nil), Options{CfnLint: true})
	require.NoError(t, err)
	require.NotNil(t, result.CfnLintResult)
	assert.True(t, result.Passed())
	assert.True(t, result.Summary(0).Success)
}
