package synth

import (
	"fmt"

	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Output names.
const (
	OutputALBDNSName     = "albDnsName"
	OutputAppURL         = "appUrl"
	OutputECRRepoURL     = "ecrRepoUrl"
	OutputECSClusterName = "ecsClusterName"
	OutputVPCID          = "vpcId"
	OutputVPCUsed        = "vpcUsed"
	OutputHTTPSURL       = "httpsUrl"
)

func (b *builder) collectOutputs(net Network, edge Edge, compute Compute) {
	dns := edge.ALB.Ref("dns_name")

	host := []any{"http://", dns}
	appURLDescription := "Health endpoint through the load balancer"
	if b.cfg.ALBPort != 80 {
		host = append(host, fmt.Sprintf(":%d", b.cfg.ALBPort))
		appURLDescription = fmt.Sprintf("Health endpoint through the load balancer listener on port %d", b.cfg.ALBPort)
	}

	b.output(OutputALBDNSName, "Public DNS name of the load balancer", dns)
	b.output(OutputAppURL, appURLDescription, topology.Join(append(host, "/health")...))
	b.output(OutputECRRepoURL, "Image repository URL", compute.Repository.Ref("repository_url"))
	b.output(OutputECSClusterName, "ECS cluster name", compute.Cluster.Ref("name"))
	b.output(OutputVPCID, "VPC id", net.VPC)
	b.output(OutputVPCUsed, "VPC id", net.VPC)
	if edge.Mode == topology.ListenerHTTPSEnabled {
		b.output(OutputHTTPSURL, "Health endpoint over HTTPS", "https://"+b.cfg.HTTPS.Domain+"/health")
	}
}
