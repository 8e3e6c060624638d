package synth

import (
	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// TLS policy of the secure listener.
const TLSPolicy = "ELBSecurityPolicy-TLS13-1-2-2021-06"

// Edge holds references to the load balancer, target group and listeners.
type Edge struct {
	ALB         topology.ResourceNode
	TargetGroup topology.ResourceNode
	Listeners   []string
	Mode        topology.ListenerMode
}

// DecideListenerMode returns HTTPS_ENABLED only when the flag is on and a
// domain is configured.
func DecideListenerMode(cfg config.EnvConfig) topology.ListenerMode {
	if cfg.HTTPS.Enabled && cfg.HTTPS.Domain != "" {
		return topology.ListenerHTTPSEnabled
	}
	return topology.ListenerHTTPOnly
}

func (b *builder) buildEdge(net Network, sgs SecurityGroups, mode topology.ListenerMode) Edge {
	cfg := b.cfg

	alb := b.add(topology.ResourceNode{
		Kind: topology.KindLoadBalancer,
		ID:   "alb",
		Attributes: map[string]any{
			"name":               cfg.ClusterName + "-alb",
			"internal":           false,
			"load_balancer_type": "application",
			"subnets":            refSlice(net.PublicSubnets),
			"security_groups":    []any{sgs.ALB},
		},
		Tags: b.tagged(cfg.ClusterName + "-alb"),
	})

	tg := b.add(topology.ResourceNode{
		Kind: topology.KindTargetGroup,
		ID:   "tg",
		Attributes: map[string]any{
			"name":        cfg.ClusterName + "-tg",
			"port":        cfg.ContainerPort,
			"protocol":    "HTTP",
			"target_type": "ip",
			"vpc_id":      net.VPC,
			"health_check": map[string]any{
				"path":                "/health",
				"protocol":            "HTTP",
				"healthy_threshold":   2,
				"unhealthy_threshold": 2,
				"interval":            30,
				"timeout":             5,
				"matcher":             "200",
			},
		},
		Tags: b.tagged(cfg.ClusterName + "-tg"),
	})

	listener := b.add(topology.ResourceNode{
		Kind: topology.KindListener,
		ID:   "listener",
		Attributes: map[string]any{
			"load_balancer_arn": alb.Ref("arn"),
			"port":              cfg.ALBPort,
			"protocol":          "HTTP",
			"default_action":    forward(tg),
		},
		Tags: b.tagged(cfg.ClusterName + "-http"),
	})

	edge := Edge{ALB: alb, TargetGroup: tg, Listeners: []string{listener.ID}, Mode: mode}
	if mode == topology.ListenerHTTPSEnabled {
		edge.Listeners = append(edge.Listeners, b.buildHTTPS(alb, tg))
	}
	if mode == topology.ListenerHTTPSEnabled && cfg.HTTPS.HostedZoneID != "" {
		b.add(topology.ResourceNode{
			Kind: topology.KindDNSRecord,
			ID:   "dnsRecord",
			Attributes: map[string]any{
				"zone_id": cfg.HTTPS.HostedZoneID,
				"name":    cfg.HTTPS.Domain,
				"type":    "A",
				"alias": map[string]any{
					"name":                   alb.Ref("dns_name"),
					"zone_id":                alb.Ref("zone_id"),
					"evaluate_target_health": true,
				},
			},
		})
	}

	b.log.Debug("edge declared", "listeners", edge.Listeners, "mode", mode)
	return edge
}

// buildHTTPS declares the secure listener, issuing and validating a
// certificate unless an existing one is configured. It returns the listener id.
func (b *builder) buildHTTPS(alb, tg topology.ResourceNode) string {
	cfg := b.cfg

	var certificate any = cfg.HTTPS.CertificateARN
	if cfg.HTTPS.CertificateARN == "" {
		cert := b.add(topology.ResourceNode{
			Kind: topology.KindCertificate,
			ID:   "httpsCert",
			Attributes: map[string]any{
				"domain_name":       cfg.HTTPS.Domain,
				"validation_method": "DNS",
			},
			Tags: b.tagged(cfg.HTTPS.Domain),
		})
		record := b.add(topology.ResourceNode{
			Kind: topology.KindCertificateValidationRecord,
			ID:   "certValidationRecord",
			Attributes: map[string]any{
				"zone_id":         cfg.HTTPS.HostedZoneID,
				"name":            cert.Ref("validation_record_name"),
				"type":            cert.Ref("validation_record_type"),
				"records":         []any{cert.Ref("validation_record_value")},
				"ttl":             60,
				"allow_overwrite": true,
			},
		})
		validation := b.add(topology.ResourceNode{
			Kind: topology.KindCertificateValidation,
			ID:   "certValidation",
			Attributes: map[string]any{
				"certificate_arn":         cert.Ref("arn"),
				"validation_record_fqdns": []any{record.Ref("fqdn")},
			},
		})
		certificate = validation.Ref("certificate_arn")
		b.log.Debug("certificate issued", "domain", cfg.HTTPS.Domain)
	}

	listener := b.add(topology.ResourceNode{
		Kind: topology.KindListener,
		ID:   "httpsListener",
		Attributes: map[string]any{
			"load_balancer_arn": alb.Ref("arn"),
			"port":              config.HTTPSPort,
			"protocol":          "HTTPS",
			"ssl_policy":        TLSPolicy,
			"certificate_arn":   certificate,
			"default_action":    forward(tg),
		},
		Tags: b.tagged(cfg.ClusterName + "-https"),
	})
	return listener.ID
}

func forward(tg topology.ResourceNode) []any {
	return []any{map[string]any{
		"type":             "forward",
		"target_group_arn": tg.Ref("arn"),
	}}
}

func refSlice(rs []topology.Ref) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
