package synth

import (
	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// SecurityGroups holds references to the edge and compute groups.
type SecurityGroups struct {
	ALB topology.Ref
	ECS topology.Ref
}

// buildSecurityGroups declares the edge group, the compute group and the
// paired rules between them. The compute group accepts traffic only from the
// edge group on the container port.
func (b *builder) buildSecurityGroups(net Network, https bool) SecurityGroups {
	cfg := b.cfg

	var ingress []any
	for _, cidr := range cfg.ALBAllowedCIDRs {
		ingress = append(ingress, cidrRule(cfg.ALBPort, "tcp", cidr))
	}
	if https {
		for _, cidr := range cfg.ALBAllowedCIDRs {
			ingress = append(ingress, cidrRule(config.HTTPSPort, "tcp", cidr))
		}
	}

	albSg := b.add(topology.ResourceNode{
		Kind: topology.KindSecurityGroup,
		ID:   "albSg",
		Attributes: map[string]any{
			"name":        cfg.ClusterName + "-alb-sg",
			"description": "Allow inbound HTTP traffic to ALB",
			"vpc_id":      net.VPC,
			"ingress":     ingress,
			"egress":      b.egressAll(),
		},
		Tags: b.tagged(cfg.ClusterName + "-alb-sg"),
	})

	ecsSg := b.add(topology.ResourceNode{
		Kind: topology.KindSecurityGroup,
		ID:   "ecsSg",
		Attributes: map[string]any{
			"name":        cfg.ClusterName + "-ecs-sg",
			"description": "Allow only ALB to ECS traffic",
			"vpc_id":      net.VPC,
			"ingress":     []any{},
			"egress":      b.egressAll(),
		},
		Tags: b.tagged(cfg.ClusterName + "-ecs-sg"),
	})

	b.add(topology.ResourceNode{
		Kind: topology.KindSecurityGroupRule,
		ID:   "albToEcsEgress",
		Attributes: map[string]any{
			"type":                     "egress",
			"description":              "ALB to ECS tasks",
			"from_port":                cfg.ContainerPort,
			"to_port":                  cfg.ContainerPort,
			"protocol":                 "tcp",
			"security_group_id":        albSg.Ref("id"),
			"source_security_group_id": ecsSg.Ref("id"),
		},
	})
	b.add(topology.ResourceNode{
		Kind: topology.KindSecurityGroupRule,
		ID:   "ecsFromAlbIngress",
		Attributes: map[string]any{
			"type":                     "ingress",
			"description":              "ECS tasks from ALB",
			"from_port":                cfg.ContainerPort,
			"to_port":                  cfg.ContainerPort,
			"protocol":                 "tcp",
			"security_group_id":        ecsSg.Ref("id"),
			"source_security_group_id": albSg.Ref("id"),
		},
	})

	b.log.Debug("security groups declared", "ingress_rules", len(ingress), "container_port", cfg.ContainerPort)

	return SecurityGroups{ALB: albSg.Ref("id"), ECS: ecsSg.Ref("id")}
}

func (b *builder) egressAll() []any {
	return []any{map[string]any{
		"description":      "",
		"from_port":        0,
		"to_port":          0,
		"protocol":         "-1",
		"cidr_blocks":      anySlice(b.cfg.EgressCIDRs),
		"ipv6_cidr_blocks": []any{},
		"prefix_list_ids":  []any{},
		"security_groups":  []any{},
		"self":             false,
	}}
}

// cidrRule is an inline rule block. Terraform JSON requires every field of
// an inline block to be present.
func cidrRule(port int, protocol, cidr string) map[string]any {
	return map[string]any{
		"description":      "",
		"from_port":        port,
		"to_port":          port,
		"protocol":         protocol,
		"cidr_blocks":      []any{cidr},
		"ipv6_cidr_blocks": []any{},
		"prefix_list_ids":  []any{},
		"security_groups":  []any{},
		"self":             false,
	}
}
