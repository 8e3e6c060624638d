package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-fargate-go/internal/config"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, logLevel(0))
	assert.Equal(t, slog.LevelInfo, logLevel(1))
	assert.Equal(t, slog.LevelDebug, logLevel(2))
	assert.Equal(t, slog.LevelDebug, logLevel(5))
}

func TestSynthesize_FromEnvironment(t *testing.T) {
	setDemoEnv(t, nil)

	cfg, topo, err := quietOptions().synthesize()
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.ClusterName)
	assert.True(t, topo.Sealed())
}

func TestSynthesize_MissingVariables(t *testing.T) {
	setDemoEnv(t, nil)
	t.Setenv(config.EnvRegion, "")
	t.Setenv(config.EnvStateBucket, "")

	_, _, err := quietOptions().synthesize()
	require.Error(t, err)

	var cerr *config.Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{config.EnvRegion, config.EnvStateBucket}, cerr.Missing)
}

func TestSynthesize_ImageTagPolicy(t *testing.T) {
	setDemoEnv(t, map[string]string{config.EnvImageTag: ""})

	_, _, err := quietOptions().synthesize()
	require.Error(t, err)

	opts := quietOptions()
	opts.imageTagPolicy = "default-latest"
	cfg, _, err := opts.synthesize()
	require.NoError(t, err)
	assert.Equal(t, "latest", cfg.ImageTag)

	opts.imageTagPolicy = "sometimes"
	_, _, err = opts.synthesize()
	assert.Error(t, err)
}

func TestSynthesize_ExplicitEnvFileMissing(t *testing.T) {
	setDemoEnv(t, nil)
	opts := quietOptions()
	opts.envFile = "/nonexistent/dev.env"

	_, _, err := opts.synthesize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/dev.env")
}

func TestSynthesizeFile_FileWins(t *testing.T) {
	setDemoEnv(t, nil)
	path := writeEnvFile(t, t.TempDir(), "prod.env", map[string]string{
		config.EnvClusterName: "prod",
	})

	cfg, topo, err := quietOptions().synthesizeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.ClusterName)
	assert.Equal(t, "us-east-1", cfg.Region, "falls back to the environment")

	n, ok := topo.Node("ecsLogGroup")
	require.True(t, ok)
	assert.Equal(t, "/ecs/prod", n.Attributes["name"])
}

func TestSynthesize_LogsListenerFallback(t *testing.T) {
	setDemoEnv(t, map[string]string{config.EnvEnableHTTPS: "true"})
	opts, logs := captureOptions()

	_, _, err := opts.synthesize()
	require.NoError(t, err)
	assert.True(t, strings.Contains(logs.String(), "level=WARN"), logs.String())
}
