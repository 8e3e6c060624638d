package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/synth"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	envFile        string
	imageTagPolicy string
	verbose        int

	// stderr receives logs; nil means os.Stderr.
	stderr io.Writer
}

func (o *globalOptions) logger() *slog.Logger {
	w := o.stderr
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel(o.verbose)}))
}

func logLevel(verbose int) slog.Level {
	switch {
	case verbose >= 2:
		return slog.LevelDebug
	case verbose == 1:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

func (o *globalOptions) configOptions() (config.Options, error) {
	policy, err := config.ParseImageTagPolicy(o.imageTagPolicy)
	if err != nil {
		return config.Options{}, err
	}
	return config.Options{ImageTag: policy}, nil
}

// envFilePath resolves the env file the way loadConfig does.
func (o *globalOptions) envFilePath() string {
	return config.EnvFilePath(o.envFile, config.OSLookup)
}

// loadConfig loads the env file into the process environment and reads the
// configuration from it.
func (o *globalOptions) loadConfig() (config.EnvConfig, error) {
	path := o.envFilePath()
	if err := config.LoadEnvFile(path, o.envFile != ""); err != nil {
		return config.EnvConfig{}, err
	}
	o.logger().Debug("env file resolved", "path", path)
	return o.loadConfigFrom(config.OSLookup)
}

func (o *globalOptions) loadConfigFrom(lookup config.Lookup) (config.EnvConfig, error) {
	opts, err := o.configOptions()
	if err != nil {
		return config.EnvConfig{}, err
	}
	return config.Load(lookup, opts)
}

// synthesize loads the configuration and builds the topology.
func (o *globalOptions) synthesize() (config.EnvConfig, *topology.Topology, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.EnvConfig{}, nil, err
	}
	topo, err := synth.Synthesize(cfg, o.logger())
	if err != nil {
		return config.EnvConfig{}, nil, fmt.Errorf("synthesis failed: %w", err)
	}
	return cfg, topo, nil
}

// synthesizeFile builds a topology from path without touching the process
// environment. Values in the file win over the environment.
func (o *globalOptions) synthesizeFile(path string) (config.EnvConfig, *topology.Topology, error) {
	vars, err := config.ReadEnvFile(path)
	if err != nil {
		return config.EnvConfig{}, nil, err
	}
	cfg, err := o.loadConfigFrom(config.Chain(config.MapLookup(vars), config.OSLookup))
	if err != nil {
		return config.EnvConfig{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	topo, err := synth.Synthesize(cfg, o.logger().With("env_file", path))
	if err != nil {
		return config.EnvConfig{}, nil, fmt.Errorf("%s: synthesis failed: %w", path, err)
	}
	return cfg, topo, nil
}
