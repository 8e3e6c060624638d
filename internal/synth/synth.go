// Package synth turns a validated configuration into a sealed topology.
//
// Builders run in one forward pass: network, security groups, edge, compute
// with its log group, alarm, outputs. Each builder only references nodes
// declared by the builders before it.
package synth

import (
	"io"
	"log/slog"

	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Synthesize builds the complete topology for cfg. A nil logger discards.
func Synthesize(cfg config.EnvConfig, logger *slog.Logger) (*topology.Topology, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	b := newBuilder(cfg, logger)

	mode := DecideListenerMode(cfg)
	switch {
	case mode == topology.ListenerHTTPSEnabled:
		logger.Info("https listener enabled", "domain", cfg.HTTPS.Domain, "reuse_certificate", cfg.HTTPS.CertificateARN != "")
	case cfg.HTTPS.Enabled:
		logger.Warn("ENABLE_HTTPS is set but DOMAIN_NAME is empty, falling back to HTTP only")
	}
	b.topo.SetListenerMode(mode)

	net := b.buildNetwork()
	sgs := b.buildSecurityGroups(net, mode == topology.ListenerHTTPSEnabled)
	edge := b.buildEdge(net, sgs, mode)

	repo, cluster, role := b.buildRegistry()
	logGroup := b.buildLogGroup()
	service := b.buildWorkload(net, sgs, edge, role, cluster, logGroup)
	b.buildAlarm(cluster, service)

	b.collectOutputs(net, edge, Compute{Repository: repo, Cluster: cluster, Service: service})

	if b.err != nil {
		return nil, b.err
	}
	if err := b.topo.Seal(); err != nil {
		return nil, err
	}
	logger.Info("topology synthesized", "nodes", b.topo.Len(), "outputs", len(b.topo.Outputs()), "mode", mode)
	return b.topo, nil
}

// checkConfig rejects configurations that Load would not have produced.
// It runs before any node is declared.
func checkConfig(cfg config.EnvConfig) error {
	cerr := &config.Error{}
	if cfg.ImageTag == "" {
		cerr.Missing = append(cerr.Missing, config.EnvImageTag)
	}
	if DecideListenerMode(cfg) == topology.ListenerHTTPSEnabled &&
		cfg.HTTPS.CertificateARN == "" && cfg.HTTPS.HostedZoneID == "" {
		cerr.Invalid = append(cerr.Invalid, config.InvalidValue{
			Name:   config.EnvHostedZoneID,
			Reason: "required to issue and validate a certificate when " + config.EnvCertificateARN + " is not set",
		})
	}
	if len(cerr.Missing) > 0 || len(cerr.Invalid) > 0 {
		return cerr
	}
	return nil
}
