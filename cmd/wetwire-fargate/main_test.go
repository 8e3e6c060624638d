package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-fargate-go/internal/config"
)

func demoVars() map[string]string {
	return map[string]string{
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
}

// setDemoEnv sets the demo variables for the duration of the test and points
// ENV_FILE at a file that does not exist.
func setDemoEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	vars := demoVars()
	for k, v := range overrides {
		vars[k] = v
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
	t.Setenv(config.EnvFile, filepath.Join(t.TempDir(), "absent.env"))
}

// writeEnvFile writes vars as a dotenv file and returns its path.
func writeEnvFile(t *testing.T, dir, name string, vars map[string]string) string {
	t.Helper()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k + "=" + vars[k] + "\n")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

func quietOptions() *globalOptions {
	return &globalOptions{imageTagPolicy: "required", stderr: io.Discard}
}

func captureOptions() (*globalOptions, *bytes.Buffer) {
	var buf bytes.Buffer
	return &globalOptions{imageTagPolicy: "required", stderr: &buf}, &buf
}
