package wetwire_fargate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTemplate_JSON(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources: map[string]ResourceDef{
			"customVpc": {Type: "AWS::EC2::VPC", Properties: map[string]any{"CidrBlock": "10.0.0.0/16"}},
		},
	}

	data, err := json.Marshal(tmpl)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources": {"customVpc": {"Type": "AWS::EC2::VPC", "Properties": {"CidrBlock": "10.0.0.0/16"}}}
	}`, string(data))
}

func TestTemplate_YAMLOmitsEmpty(t *testing.T) {
	tmpl := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources:                map[string]ResourceDef{"igw": {Type: "AWS::EC2::InternetGateway"}},
	}

	data, err := yaml.Marshal(tmpl)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Outputs")
	assert.NotContains(t, string(data), "Properties")
	assert.Contains(t, string(data), "AWS::EC2::InternetGateway")
}

func TestTerraformDocument_JSON(t *testing.T) {
	doc := TerraformDocument{
		Terraform: TerraformBlock{
			Backend:           map[string]map[string]any{"s3": {"bucket": "state"}},
			RequiredProviders: map[string]ProviderSource{"aws": {Source: "hashicorp/aws", Version: "~> 5.0"}},
		},
		Provider: map[string][]map[string]any{"aws": {{"region": "us-east-1"}}},
		Resource: map[string]map[string]map[string]any{"aws_vpc": {"customVpc": {"cidr_block": "10.0.0.0/16"}}},
		Output:   map[string]TerraformOutput{"vpcId": {Value: "${aws_vpc.customVpc.id}"}},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"terraform": {
			"backend": {"s3": {"bucket": "state"}},
			"required_providers": {"aws": {"source": "hashicorp/aws", "version": "~> 5.0"}}
		},
		"provider": {"aws": [{"region": "us-east-1"}]},
		"resource": {"aws_vpc": {"customVpc": {"cidr_block": "10.0.0.0/16"}}},
		"output": {"vpcId": {"value": "${aws_vpc.customVpc.id}"}}
	}`, string(data))
}

func TestResults_JSON(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "validate success",
			value:    ValidateResult{Success: true, Resources: 30},
			expected: `{"success": true, "resources": 30}`,
		},
		{
			name:     "synth failure",
			value:    SynthResult{Target: "terraform", Errors: []string{"missing env vars: AWS_REGION"}},
			expected: `{"success": false, "target": "terraform", "errors": ["missing env vars: AWS_REGION"]}`,
		},
		{
			name:     "preflight mismatch",
			value:    PreflightResult{ExpectedAccount: "1", CallerAccount: "2", Error: "account mismatch"},
			expected: `{"success": false, "expected_account": "1", "caller_account": "2", "error": "account mismatch"}`,
		},
		{
			name:     "diff summary",
			value:    DiffSummary{Added: 1, Total: 1},
			expected: `{"added": 1, "removed": 0, "modified": 0, "outputs": 0, "total": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}
