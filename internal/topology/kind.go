package topology

// Kind is the type tag of a resource node.
type Kind string

const (
	KindVPC                         Kind = "vpc"
	KindInternetGateway             Kind = "internet-gateway"
	KindSubnet                      Kind = "subnet"
	KindRouteTable                  Kind = "route-table"
	KindRoute                       Kind = "route"
	KindRouteTableAssociation       Kind = "route-table-association"
	KindEIP                         Kind = "eip"
	KindNATGateway                  Kind = "nat-gateway"
	KindSecurityGroup               Kind = "security-group"
	KindSecurityGroupRule           Kind = "security-group-rule"
	KindLoadBalancer                Kind = "load-balancer"
	KindTargetGroup                 Kind = "target-group"
	KindListener                    Kind = "listener"
	KindCertificate                 Kind = "acm-certificate"
	KindCertificateValidationRecord Kind = "certificate-validation-record"
	KindCertificateValidation       Kind = "certificate-validation"
	KindDNSRecord                   Kind = "dns-record"
	KindECRRepository               Kind = "ecr-repository"
	KindECSCluster                  Kind = "ecs-cluster"
	KindIAMRole                     Kind = "iam-role"
	KindIAMRolePolicyAttachment     Kind = "iam-role-policy-attachment"
	KindLogGroup                    Kind = "log-group"
	KindTaskDefinition              Kind = "task-definition"
	KindECSService                  Kind = "ecs-service"
	KindMetricAlarm                 Kind = "metric-alarm"
)

// Layer groups kinds for display.
type Layer string

const (
	LayerNetwork       Layer = "network"
	LayerSecurity      Layer = "security"
	LayerEdge          Layer = "edge"
	LayerCompute       Layer = "compute"
	LayerObservability Layer = "observability"
)

// Layers lists every layer in build order.
var Layers = []Layer{LayerNetwork, LayerSecurity, LayerEdge, LayerCompute, LayerObservability}

type kindInfo struct {
	layer    Layer
	taggable bool
}

var kinds = map[Kind]kindInfo{
	KindVPC:                         {LayerNetwork, true},
	KindInternetGateway:             {LayerNetwork, true},
	KindSubnet:                      {LayerNetwork, true},
	KindRouteTable:                  {LayerNetwork, true},
	KindRoute:                       {LayerNetwork, false},
	KindRouteTableAssociation:       {LayerNetwork, false},
	KindEIP:                         {LayerNetwork, true},
	KindNATGateway:                  {LayerNetwork, true},
	KindSecurityGroup:               {LayerSecurity, true},
	KindSecurityGroupRule:           {LayerSecurity, false},
	KindLoadBalancer:                {LayerEdge, true},
	KindTargetGroup:                 {LayerEdge, true},
	KindListener:                    {LayerEdge, true},
	KindCertificate:                 {LayerEdge, true},
	KindCertificateValidationRecord: {LayerEdge, false},
	KindCertificateValidation:       {LayerEdge, false},
	KindDNSRecord:                   {LayerEdge, false},
	KindECRRepository:               {LayerCompute, true},
	KindECSCluster:                  {LayerCompute, true},
	KindIAMRole:                     {LayerCompute, true},
	KindIAMRolePolicyAttachment:     {LayerCompute, false},
	KindLogGroup:                    {LayerObservability, true},
	KindTaskDefinition:              {LayerCompute, true},
	KindECSService:                  {LayerCompute, true},
	KindMetricAlarm:                 {LayerObservability, true},
}

// Known reports whether k is a supported kind.
func (k Kind) Known() bool {
	_, ok := kinds[k]
	return ok
}

// Taggable reports whether nodes of this kind carry a tag map.
func (k Kind) Taggable() bool {
	return kinds[k].taggable
}

// Layer returns the layer the kind belongs to.
func (k Kind) Layer() Layer {
	return kinds[k].layer
}
