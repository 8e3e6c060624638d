package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/differ"
	"github.com/lex00/wetwire-fargate-go/internal/preflight"
)

func TestRunSynth_Terraform(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runSynth(quietOptions(), &out, "terraform", "json", "", false))

	var doc wetwire.TerraformDocument
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Contains(t, doc.Resource, "aws_vpc")
	assert.Contains(t, doc.Output, "appUrl")
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestRunSynth_CloudFormationFile(t *testing.T) {
	setDemoEnv(t, nil)
	path := filepath.Join(t.TempDir(), "template.yaml")

	require.NoError(t, runSynth(quietOptions(), &bytes.Buffer{}, "cfn", "yaml", path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AWS::ECS::Service")
}

func TestRunSynth_Summary(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runSynth(quietOptions(), &out, "terraform", "json", "", true))

	var result wetwire.SynthResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "HTTP_ONLY", result.ListenerMode)
	assert.Contains(t, result.Resources, "customVpc")
	assert.Less(t, indexOf(result.Resources, "customVpc"), indexOf(result.Resources, "ecsService"))
	assert.Contains(t, result.Outputs, "vpcUsed")
}

func TestRunSynth_Errors(t *testing.T) {
	setDemoEnv(t, map[string]string{config.EnvClusterName: ""})

	var out bytes.Buffer
	err := runSynth(quietOptions(), &out, "terraform", "json", "", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.EnvClusterName)
	assert.Contains(t, out.String(), `"success": false`)

	assert.Error(t, runSynth(quietOptions(), &out, "pulumi", "json", "", false))
	setDemoEnv(t, nil)
	assert.Error(t, runSynth(quietOptions(), &out, "terraform", "yaml", "", false))
}

func TestRunValidate(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runValidate(quietOptions(), &out, false, false))
	assert.Contains(t, out.String(), "OK:")

	out.Reset()
	require.NoError(t, runValidate(quietOptions(), &out, false, true))
	var result wetwire.ValidateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Greater(t, result.Resources, 20)
}

func TestRunValidate_ConfigError(t *testing.T) {
	setDemoEnv(t, map[string]string{config.EnvVPCCIDR: "not-a-cidr"})
	var out bytes.Buffer

	err := runValidate(quietOptions(), &out, false, true)
	assert.True(t, errors.Is(err, errValidationFailed))

	var result wetwire.ValidateResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, strings.Join(result.Errors, "\n"), "invalid "+config.EnvVPCCIDR)
}

func TestRunGraph(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runGraph(quietOptions(), &out, "dot", true, "terraform"))
	assert.Contains(t, out.String(), "digraph")
	assert.Contains(t, out.String(), "aws_ecs_service")
	assert.Contains(t, out.String(), "cluster_network")

	out.Reset()
	require.NoError(t, runGraph(quietOptions(), &out, "mermaid", false, "cloudformation"))
	assert.Contains(t, out.String(), "-->")

	assert.Error(t, runGraph(quietOptions(), &out, "svg", false, "kind"))
	assert.Error(t, runGraph(quietOptions(), &out, "dot", false, "bicep"))
}

func TestRunOutputs(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runOutputs(quietOptions(), &out, "terraform", false))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "http://${aws_lb.alb.dns_name}/health")

	out.Reset()
	require.NoError(t, runOutputs(quietOptions(), &out, "cloudformation", true))
	var outputs map[string]wetwire.Output
	require.NoError(t, json.Unmarshal(out.Bytes(), &outputs))
	assert.Contains(t, outputs, "ecrRepoUrl")
	assert.NotContains(t, outputs, "httpsUrl")
}

func TestRunDiff(t *testing.T) {
	setDemoEnv(t, nil)
	dir := t.TempDir()
	before := writeEnvFile(t, dir, "before.env", demoVars())
	afterVars := demoVars()
	afterVars[config.EnvEnableHTTPS] = "true"
	afterVars[config.EnvDomainName] = "app.example.com"
	afterVars[config.EnvHostedZoneID] = "Z123"
	after := writeEnvFile(t, dir, "after.env", afterVars)

	var out bytes.Buffer
	require.NoError(t, runDiff(quietOptions(), &out, before, after, differ.Options{}, false, false))
	assert.Contains(t, out.String(), "+ httpsListener (listener)")
	assert.Contains(t, out.String(), "output httpsUrl added")

	out.Reset()
	err := runDiff(quietOptions(), &out, before, after, differ.Options{}, true, true)
	assert.True(t, errors.Is(err, errTopologiesDiffer))
	assert.Contains(t, out.String(), `"summary"`)

	out.Reset()
	require.NoError(t, runDiff(quietOptions(), &out, before, before, differ.Options{}, false, true))
	assert.Contains(t, out.String(), "No differences.")
}

func TestRunOptimize(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runOptimize(quietOptions(), &out, "text", "security"))
	assert.Contains(t, out.String(), "=== Security")
	assert.NotContains(t, out.String(), "=== Cost")

	out.Reset()
	require.NoError(t, runOptimize(quietOptions(), &out, "json", "all"))
	var result wetwire.OptimizeResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, result.Summary.Total, len(result.Suggestions))

	assert.Error(t, runOptimize(quietOptions(), &out, "xml", "all"))
}

func TestIsValidCategory(t *testing.T) {
	for _, c := range []string{"all", "security", "cost", "performance", "reliability"} {
		assert.True(t, isValidCategory(c), c)
	}
	assert.False(t, isValidCategory("style"))
}

type fakeIdentity struct {
	account string
}

func (f fakeIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.account),
		Arn:     aws.String("arn:aws:iam::" + f.account + ":role/ci"),
	}, nil
}

func TestRunPreflight(t *testing.T) {
	setDemoEnv(t, nil)
	var out bytes.Buffer

	require.NoError(t, runPreflight(context.Background(), quietOptions(), &out, fakeIdentity{account: "123456789012"}, false))
	assert.Contains(t, out.String(), "OK: account 123456789012")

	out.Reset()
	err := runPreflight(context.Background(), quietOptions(), &out, fakeIdentity{account: "999999999999"}, true)
	assert.True(t, errors.Is(err, preflight.ErrAccountMismatch))

	var result wetwire.PreflightResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "999999999999", result.CallerAccount)
}
