package synth

import (
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Network holds references to the VPC and subnets.
type Network struct {
	VPC            topology.Ref
	PublicSubnets  []topology.Ref
	PrivateSubnets []topology.Ref
	NATGateway     topology.Ref
}

const anyIPv4 = "0.0.0.0/0"

// buildNetwork declares the two-tier VPC with one NAT gateway shared by both
// private subnets.
func (b *builder) buildNetwork() Network {
	cfg := b.cfg
	azs := cfg.AvailabilityZones()

	vpc := b.add(topology.ResourceNode{
		Kind: topology.KindVPC,
		ID:   "customVpc",
		Attributes: map[string]any{
			"cidr_block":           cfg.VPCCIDR,
			"enable_dns_hostnames": true,
			"enable_dns_support":   true,
		},
		Tags: b.tagged("custom-vpc"),
	})

	igw := b.add(topology.ResourceNode{
		Kind:       topology.KindInternetGateway,
		ID:         "igw",
		Attributes: map[string]any{"vpc_id": vpc.Ref("id")},
		Tags:       b.tagged("igw"),
	})

	pubA := b.subnet("publicSubnetA", "public-subnet-a", vpc, cfg.PublicSubnetCIDRs[0], azs[0], true)
	pubB := b.subnet("publicSubnetB", "public-subnet-b", vpc, cfg.PublicSubnetCIDRs[1], azs[1], true)

	publicRT := b.add(topology.ResourceNode{
		Kind:       topology.KindRouteTable,
		ID:         "publicRT",
		Attributes: map[string]any{"vpc_id": vpc.Ref("id")},
		Tags:       b.tagged("public-rt"),
	})
	b.add(topology.ResourceNode{
		Kind: topology.KindRoute,
		ID:   "publicInternetRoute",
		Attributes: map[string]any{
			"route_table_id":         publicRT.Ref("id"),
			"destination_cidr_block": anyIPv4,
			"gateway_id":             igw.Ref("id"),
		},
	})
	b.associate("pubAssocA", pubA, publicRT)
	b.associate("pubAssocB", pubB, publicRT)

	eip := b.add(topology.ResourceNode{
		Kind:       topology.KindEIP,
		ID:         "natEip",
		Attributes: map[string]any{"domain": "vpc"},
		Tags:       b.tagged("nat-eip"),
		DependsOn:  []string{igw.ID},
	})
	nat := b.add(topology.ResourceNode{
		Kind: topology.KindNATGateway,
		ID:   "natGw",
		Attributes: map[string]any{
			"allocation_id": eip.Ref("allocation_id"),
			"subnet_id":     pubA.Ref("id"),
		},
		Tags:      b.tagged("nat-gw"),
		DependsOn: []string{igw.ID},
	})

	privA := b.subnet("privateSubnetA", "private-subnet-a", vpc, cfg.PrivateSubnetCIDRs[0], azs[0], false)
	privB := b.subnet("privateSubnetB", "private-subnet-b", vpc, cfg.PrivateSubnetCIDRs[1], azs[1], false)

	privateRT := b.add(topology.ResourceNode{
		Kind:       topology.KindRouteTable,
		ID:         "privateRT",
		Attributes: map[string]any{"vpc_id": vpc.Ref("id")},
		Tags:       b.tagged("private-rt"),
	})
	b.add(topology.ResourceNode{
		Kind: topology.KindRoute,
		ID:   "privateNatRoute",
		Attributes: map[string]any{
			"route_table_id":         privateRT.Ref("id"),
			"destination_cidr_block": anyIPv4,
			"nat_gateway_id":         nat.Ref("id"),
		},
	})
	b.associate("privAssocA", privA, privateRT)
	b.associate("privAssocB", privB, privateRT)

	b.log.Debug("network declared", "vpc", vpc.ID, "azs", azs[:])

	return Network{
		VPC:            vpc.Ref("id"),
		PublicSubnets:  []topology.Ref{pubA.Ref("id"), pubB.Ref("id")},
		PrivateSubnets: []topology.Ref{privA.Ref("id"), privB.Ref("id")},
		NATGateway:     nat.Ref("id"),
	}
}

func (b *builder) subnet(id, name string, vpc topology.ResourceNode, cidr, az string, public bool) topology.ResourceNode {
	return b.add(topology.ResourceNode{
		Kind: topology.KindSubnet,
		ID:   id,
		Attributes: map[string]any{
			"vpc_id":                  vpc.Ref("id"),
			"cidr_block":              cidr,
			"availability_zone":       az,
			"map_public_ip_on_launch": public,
		},
		Tags: b.tagged(name),
	})
}

func (b *builder) associate(id string, subnet, table topology.ResourceNode) {
	b.add(topology.ResourceNode{
		Kind: topology.KindRouteTableAssociation,
		ID:   id,
		Attributes: map[string]any{
			"subnet_id":      subnet.Ref("id"),
			"route_table_id": table.Ref("id"),
		},
	})
}
