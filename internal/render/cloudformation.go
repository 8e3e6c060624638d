package render

import (
	"fmt"
	"sort"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/intrinsics"
	"github.com/lex00/wetwire-fargate-go/internal/serialize"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// TemplateFormatVersion is the CloudFormation template format version.
const TemplateFormatVersion = "2010-09-09"

// igwAttachmentSuffix names the VPCGatewayAttachment an internet gateway
// expands into.
const igwAttachmentSuffix = "Attachment"

var cloudFormationTypes = map[topology.Kind]string{
	topology.KindVPC:                   "AWS::EC2::VPC",
	topology.KindInternetGateway:       "AWS::EC2::InternetGateway",
	topology.KindSubnet:                "AWS::EC2::Subnet",
	topology.KindRouteTable:            "AWS::EC2::RouteTable",
	topology.KindRoute:                 "AWS::EC2::Route",
	topology.KindRouteTableAssociation: "AWS::EC2::SubnetRouteTableAssociation",
	topology.KindEIP:                   "AWS::EC2::EIP",
	topology.KindNATGateway:            "AWS::EC2::NatGateway",
	topology.KindSecurityGroup:         "AWS::EC2::SecurityGroup",
	topology.KindLoadBalancer:          "AWS::ElasticLoadBalancingV2::LoadBalancer",
	topology.KindTargetGroup:           "AWS::ElasticLoadBalancingV2::TargetGroup",
	topology.KindListener:              "AWS::ElasticLoadBalancingV2::Listener",
	topology.KindCertificate:           "AWS::CertificateManager::Certificate",
	topology.KindDNSRecord:             "AWS::Route53::RecordSet",
	topology.KindECRRepository:         "AWS::ECR::Repository",
	topology.KindECSCluster:            "AWS::ECS::Cluster",
	topology.KindIAMRole:               "AWS::IAM::Role",
	topology.KindLogGroup:              "AWS::Logs::LogGroup",
	topology.KindTaskDefinition:        "AWS::ECS::TaskDefinition",
	topology.KindECSService:            "AWS::ECS::Service",
	topology.KindMetricAlarm:           "AWS::CloudWatch::Alarm",
}

// cloudFormationAttrs maps a Terraform-style attribute to its CloudFormation
// form: "" is a Ref, anything else a GetAtt attribute.
var cloudFormationAttrs = map[topology.Kind]map[string]string{
	topology.KindVPC:             {"id": ""},
	topology.KindInternetGateway: {"id": ""},
	topology.KindSubnet:          {"id": ""},
	topology.KindRouteTable:      {"id": ""},
	topology.KindEIP:             {"allocation_id": "AllocationId", "public_ip": "PublicIp"},
	topology.KindNATGateway:      {"id": ""},
	topology.KindSecurityGroup:   {"id": "GroupId"},
	topology.KindLoadBalancer:    {"arn": "", "dns_name": "DNSName", "zone_id": "CanonicalHostedZoneID"},
	topology.KindTargetGroup:     {"arn": ""},
	topology.KindListener:        {"arn": ""},
	topology.KindCertificate:     {"arn": ""},
	topology.KindECRRepository:   {"name": "", "repository_url": "RepositoryUri", "arn": "Arn"},
	topology.KindECSCluster:      {"id": "", "name": "", "arn": "Arn"},
	topology.KindIAMRole:         {"name": "", "arn": "Arn"},
	topology.KindLogGroup:        {"name": "", "arn": "Arn"},
	topology.KindTaskDefinition:  {"arn": ""},
	topology.KindECSService:      {"id": "", "name": "Name"},
	topology.KindMetricAlarm:     {"arn": "Arn"},
}

// Kinds without a Tags property in CloudFormation.
var cloudFormationUntagged = map[topology.Kind]bool{
	topology.KindListener:    true,
	topology.KindMetricAlarm: true,
}

// CloudFormationType returns the resource type a kind renders to. Folded
// kinds return "".
func CloudFormationType(k topology.Kind) string {
	return cloudFormationTypes[k]
}

type cfnResource struct {
	id  string
	def wetwire.ResourceDef
}

type cfnTranslator func(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error)

var cfnTranslators map[topology.Kind]cfnTranslator

func init() {
	cfnTranslators = map[topology.Kind]cfnTranslator{
		topology.KindVPC:                         cfnGeneric(nil),
		topology.KindInternetGateway:             cfnInternetGateway,
		topology.KindSubnet:                      cfnGeneric(nil),
		topology.KindRouteTable:                  cfnGeneric(nil),
		topology.KindRoute:                       cfnRoute,
		topology.KindRouteTableAssociation:       cfnGeneric(nil),
		topology.KindEIP:                         cfnGeneric(nil),
		topology.KindNATGateway:                  cfnGeneric(nil),
		topology.KindSecurityGroup:               cfnSecurityGroup,
		topology.KindSecurityGroupRule:           cfnSecurityGroupRule,
		topology.KindLoadBalancer:                cfnLoadBalancer,
		topology.KindTargetGroup:                 cfnTargetGroup,
		topology.KindListener:                    cfnListener,
		topology.KindCertificate:                 cfnCertificate,
		topology.KindCertificateValidationRecord: cfnFolded,
		topology.KindCertificateValidation:       cfnFolded,
		topology.KindDNSRecord:                   cfnDNSRecord,
		topology.KindECRRepository:               cfnRepository,
		topology.KindECSCluster:                  cfnGeneric(map[string]string{"name": "ClusterName"}),
		topology.KindIAMRole:                     cfnRole,
		topology.KindIAMRolePolicyAttachment:     cfnFolded,
		topology.KindLogGroup:                    cfnGeneric(map[string]string{"name": "LogGroupName"}),
		topology.KindTaskDefinition:              cfnTaskDefinition,
		topology.KindECSService:                  cfnService,
		topology.KindMetricAlarm:                 cfnAlarm,
	}
}

// CloudFormation renders topo as a CloudFormation template. The internet
// gateway expands into a gateway plus attachment; policy attachments fold
// into the role and certificate validation folds into the certificate.
func CloudFormation(topo *topology.Topology) (*wetwire.Template, error) {
	c := newCFNContext(topo)

	tmpl := &wetwire.Template{
		AWSTemplateFormatVersion: TemplateFormatVersion,
		Description:              "ECS Fargate service behind an application load balancer",
		Resources:                make(map[string]wetwire.ResourceDef),
	}

	for _, n := range topo.Nodes() {
		translate, ok := cfnTranslators[n.Kind]
		if !ok {
			return nil, fmt.Errorf("cloudformation: no translation for kind %s", n.Kind)
		}
		resources, err := translate(c, n)
		if err != nil {
			return nil, fmt.Errorf("cloudformation: %s: %w", n.ID, err)
		}
		for _, r := range resources {
			tmpl.Resources[r.id] = r.def
		}
	}

	outputs := topo.Outputs()
	if len(outputs) > 0 {
		tmpl.Outputs = make(map[string]wetwire.Output, len(outputs))
	}
	for _, o := range outputs {
		v, err := c.value(o.Value)
		if err != nil {
			return nil, fmt.Errorf("cloudformation: output %s: %w", o.Name, err)
		}
		plain, err := serialize.Value(v)
		if err != nil {
			return nil, fmt.Errorf("cloudformation: output %s: %w", o.Name, err)
		}
		tmpl.Outputs[o.Name] = wetwire.Output{Description: o.Description, Value: plain}
	}
	return tmpl, nil
}

// cfnContext resolves references across folded and expanded nodes.
type cfnContext struct {
	topo *topology.Topology
	// folded maps a folded node id to the resource that absorbed it.
	folded map[string]string
}

func newCFNContext(topo *topology.Topology) *cfnContext {
	c := &cfnContext{topo: topo, folded: make(map[string]string)}
	for _, n := range topo.Nodes() {
		switch n.Kind {
		case topology.KindIAMRolePolicyAttachment:
			if r, ok := n.Attributes["role"].(topology.Ref); ok {
				c.folded[n.ID] = r.ID
			}
		case topology.KindCertificateValidationRecord, topology.KindCertificateValidation:
			if cert := c.certificateOf(n); cert != "" {
				c.folded[n.ID] = cert
			}
		}
	}
	return c
}

// certificateOf returns the certificate a validation node belongs to.
func (c *cfnContext) certificateOf(n topology.ResourceNode) string {
	for _, r := range topology.References(n.Attributes) {
		ref, ok := c.topo.Node(r.ID)
		if !ok {
			continue
		}
		if ref.Kind == topology.KindCertificate {
			return ref.ID
		}
		if ref.Kind == topology.KindCertificateValidationRecord {
			return c.certificateOf(ref)
		}
	}
	return ""
}

func (c *cfnContext) ref(r topology.Ref) (any, error) {
	n, ok := c.topo.Node(r.ID)
	if !ok {
		return nil, fmt.Errorf("unknown node %s", r.ID)
	}
	if owner, folded := c.folded[r.ID]; folded {
		if n.Kind == topology.KindCertificateValidation && r.Attr == "certificate_arn" {
			return intrinsics.Ref{LogicalName: owner}, nil
		}
		return nil, fmt.Errorf("%s.%s has no CloudFormation equivalent", r.ID, r.Attr)
	}
	attr, ok := cloudFormationAttrs[n.Kind][r.Attr]
	if !ok {
		return nil, fmt.Errorf("%s.%s has no CloudFormation equivalent", r.ID, r.Attr)
	}
	if attr == "" {
		return intrinsics.Ref{LogicalName: r.ID}, nil
	}
	return intrinsics.GetAtt{LogicalName: r.ID, Attribute: attr}, nil
}

// value converts topology values to intrinsics.
func (c *cfnContext) value(v any) (any, error) {
	switch x := v.(type) {
	case topology.Ref:
		return c.ref(x)
	case topology.Interp:
		if s, ok := x.Literal(); ok {
			return s, nil
		}
		parts := make([]any, len(x.Parts))
		for i, p := range x.Parts {
			converted, err := c.value(p)
			if err != nil {
				return nil, err
			}
			parts[i] = converted
		}
		return intrinsics.Concat(parts...), nil
	case topology.Document:
		return c.value(x.Value)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			converted, err := c.value(e)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			converted, err := c.value(e)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return v, nil
	}
}

// attr returns the converted value of one attribute, or nil when unset.
func (c *cfnContext) attr(n topology.ResourceNode, key string) (any, error) {
	v, ok := n.Attributes[key]
	if !ok {
		return nil, nil
	}
	return c.value(v)
}

// attrs converts several attributes at once, stopping at the first error.
func (c *cfnContext) attrs(n topology.ResourceNode, keys ...string) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, err := c.attr(n, k)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// dependsOn maps explicit edges onto rendered resources.
func (c *cfnContext) dependsOn(n topology.ResourceNode) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range n.DependsOn {
		target := d
		if owner, ok := c.folded[d]; ok {
			target = owner
		}
		if dep, ok := c.topo.Node(d); ok && dep.Kind == topology.KindInternetGateway {
			target = d + igwAttachmentSuffix
		}
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}

func (c *cfnContext) tags(n topology.ResourceNode) []intrinsics.Tag {
	if cloudFormationUntagged[n.Kind] {
		return nil
	}
	return intrinsics.Tags(n.Tags)
}

func (c *cfnContext) resource(n topology.ResourceNode, props any) ([]cfnResource, error) {
	return c.resourceAs(n.ID, cloudFormationTypes[n.Kind], n, props)
}

func (c *cfnContext) resourceAs(id, cfnType string, n topology.ResourceNode, props any) ([]cfnResource, error) {
	var (
		m   map[string]any
		err error
	)
	switch p := props.(type) {
	case map[string]any:
		var v any
		v, err = serialize.Value(p)
		m, _ = v.(map[string]any)
	default:
		m, err = serialize.Resource(props)
	}
	if err != nil {
		return nil, err
	}
	return []cfnResource{{id: id, def: wetwire.ResourceDef{
		Type:       cfnType,
		Properties: m,
		DependsOn:  c.dependsOn(n),
	}}}, nil
}

func cfnFolded(*cfnContext, topology.ResourceNode) ([]cfnResource, error) {
	return nil, nil
}

// cfnGeneric converts attribute names to PascalCase, applying renames first.
func cfnGeneric(renames map[string]string) cfnTranslator {
	return func(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
		props := make(map[string]any, len(n.Attributes)+1)
		for k := range n.Attributes {
			v, err := c.attr(n, k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			name, ok := renames[k]
			if !ok {
				name = serialize.ToPascalCase(k)
			}
			props[name] = v
		}
		if t := c.tags(n); len(t) > 0 {
			props["Tags"] = t
		}
		return c.resource(n, props)
	}
}

func cfnInternetGateway(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	gw, err := c.resource(n, map[string]any{"Tags": c.tags(n)})
	if err != nil {
		return nil, err
	}
	vpc, err := c.attr(n, "vpc_id")
	if err != nil {
		return nil, err
	}
	attachment, err := c.resourceAs(n.ID+igwAttachmentSuffix, "AWS::EC2::VPCGatewayAttachment", topology.ResourceNode{},
		map[string]any{
			"VpcId":             vpc,
			"InternetGatewayId": intrinsics.Ref{LogicalName: n.ID},
		})
	if err != nil {
		return nil, err
	}
	return append(gw, attachment...), nil
}

// cfnRoute waits for the gateway attachment when routing through an
// internet gateway.
func cfnRoute(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	out, err := cfnGeneric(nil)(c, n)
	if err != nil {
		return nil, err
	}
	if gw, ok := n.Attributes["gateway_id"].(topology.Ref); ok {
		if node, ok := c.topo.Node(gw.ID); ok && node.Kind == topology.KindInternetGateway {
			out[0].def.DependsOn = append(out[0].def.DependsOn, gw.ID+igwAttachmentSuffix)
		}
	}
	return out, nil
}

type cfnIngressRule struct {
	IpProtocol string `json:"IpProtocol"`
	FromPort   any    `json:"FromPort"`
	ToPort     any    `json:"ToPort"`
	CidrIp     string `json:"CidrIp,omitempty"`
}

type cfnSecurityGroupProps struct {
	GroupName            any              `json:"GroupName,omitempty"`
	GroupDescription     any              `json:"GroupDescription"`
	VpcId                any              `json:"VpcId"`
	SecurityGroupIngress []cfnIngressRule `json:"SecurityGroupIngress,omitempty"`
	SecurityGroupEgress  []cfnIngressRule `json:"SecurityGroupEgress,omitempty"`
	Tags                 []intrinsics.Tag `json:"Tags,omitempty"`
}

// inlineRules expands Terraform-style rule blocks into one rule per CIDR.
func inlineRules(v any) []cfnIngressRule {
	blocks, _ := v.([]any)
	var out []cfnIngressRule
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			continue
		}
		protocol, _ := block["protocol"].(string)
		cidrs, _ := block["cidr_blocks"].([]any)
		for _, cidr := range cidrs {
			s, _ := cidr.(string)
			out = append(out, cfnIngressRule{
				IpProtocol: protocol,
				FromPort:   block["from_port"],
				ToPort:     block["to_port"],
				CidrIp:     s,
			})
		}
	}
	return out
}

func cfnSecurityGroup(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "name", "description", "vpc_id")
	if err != nil {
		return nil, err
	}
	return c.resource(n, cfnSecurityGroupProps{
		GroupName:            a["name"],
		GroupDescription:     a["description"],
		VpcId:                a["vpc_id"],
		SecurityGroupIngress: inlineRules(n.Attributes["ingress"]),
		SecurityGroupEgress:  inlineRules(n.Attributes["egress"]),
		Tags:                 c.tags(n),
	})
}

type cfnSecurityGroupRuleProps struct {
	GroupId                    any    `json:"GroupId"`
	Description                any    `json:"Description,omitempty"`
	IpProtocol                 any    `json:"IpProtocol"`
	FromPort                   any    `json:"FromPort"`
	ToPort                     any    `json:"ToPort"`
	SourceSecurityGroupId      any    `json:"SourceSecurityGroupId,omitempty"`
	DestinationSecurityGroupId any    `json:"DestinationSecurityGroupId,omitempty"`
	CidrIp                     string `json:"CidrIp,omitempty"`
}

func cfnSecurityGroupRule(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "security_group_id", "description", "protocol", "from_port", "to_port", "source_security_group_id")
	if err != nil {
		return nil, err
	}
	props := cfnSecurityGroupRuleProps{
		GroupId:     a["security_group_id"],
		Description: a["description"],
		IpProtocol:  a["protocol"],
		FromPort:    a["from_port"],
		ToPort:      a["to_port"],
	}
	switch n.Attributes["type"] {
	case "ingress":
		props.SourceSecurityGroupId = a["source_security_group_id"]
		return c.resourceAs(n.ID, "AWS::EC2::SecurityGroupIngress", n, props)
	case "egress":
		props.DestinationSecurityGroupId = a["source_security_group_id"]
		return c.resourceAs(n.ID, "AWS::EC2::SecurityGroupEgress", n, props)
	default:
		return nil, fmt.Errorf("rule type %v is neither ingress nor egress", n.Attributes["type"])
	}
}

type cfnLoadBalancerProps struct {
	Name           any              `json:"Name,omitempty"`
	Scheme         string           `json:"Scheme"`
	Type           any              `json:"Type"`
	Subnets        any              `json:"Subnets"`
	SecurityGroups any              `json:"SecurityGroups"`
	Tags           []intrinsics.Tag `json:"Tags,omitempty"`
}

func cfnLoadBalancer(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "name", "load_balancer_type", "subnets", "security_groups")
	if err != nil {
		return nil, err
	}
	scheme := "internet-facing"
	if internal, _ := n.Attributes["internal"].(bool); internal {
		scheme = "internal"
	}
	return c.resource(n, cfnLoadBalancerProps{
		Name:           a["name"],
		Scheme:         scheme,
		Type:           a["load_balancer_type"],
		Subnets:        a["subnets"],
		SecurityGroups: a["security_groups"],
		Tags:           c.tags(n),
	})
}

type cfnMatcher struct {
	HttpCode any `json:"HttpCode"`
}

type cfnTargetGroupProps struct {
	Name                       any              `json:"Name,omitempty"`
	Port                       any              `json:"Port"`
	Protocol                   any              `json:"Protocol"`
	TargetType                 any              `json:"TargetType"`
	VpcId                      any              `json:"VpcId"`
	HealthCheckPath            any              `json:"HealthCheckPath,omitempty"`
	HealthCheckProtocol        any              `json:"HealthCheckProtocol,omitempty"`
	HealthyThresholdCount      any              `json:"HealthyThresholdCount,omitempty"`
	UnhealthyThresholdCount    any              `json:"UnhealthyThresholdCount,omitempty"`
	HealthCheckIntervalSeconds any              `json:"HealthCheckIntervalSeconds,omitempty"`
	HealthCheckTimeoutSeconds  any              `json:"HealthCheckTimeoutSeconds,omitempty"`
	Matcher                    *cfnMatcher      `json:"Matcher,omitempty"`
	Tags                       []intrinsics.Tag `json:"Tags,omitempty"`
}

func cfnTargetGroup(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "name", "port", "protocol", "target_type", "vpc_id")
	if err != nil {
		return nil, err
	}
	props := cfnTargetGroupProps{
		Name:       a["name"],
		Port:       a["port"],
		Protocol:   a["protocol"],
		TargetType: a["target_type"],
		VpcId:      a["vpc_id"],
		Tags:       c.tags(n),
	}
	if hc, ok := n.Attributes["health_check"].(map[string]any); ok {
		props.HealthCheckPath = hc["path"]
		props.HealthCheckProtocol = hc["protocol"]
		props.HealthyThresholdCount = hc["healthy_threshold"]
		props.UnhealthyThresholdCount = hc["unhealthy_threshold"]
		props.HealthCheckIntervalSeconds = hc["interval"]
		props.HealthCheckTimeoutSeconds = hc["timeout"]
		if m, ok := hc["matcher"]; ok {
			props.Matcher = &cfnMatcher{HttpCode: m}
		}
	}
	return c.resource(n, props)
}

type cfnAction struct {
	Type           any `json:"Type"`
	TargetGroupArn any `json:"TargetGroupArn,omitempty"`
}

type cfnCertificateRef struct {
	CertificateArn any `json:"CertificateArn"`
}

type cfnListenerProps struct {
	LoadBalancerArn any                 `json:"LoadBalancerArn"`
	Port            any                 `json:"Port"`
	Protocol        any                 `json:"Protocol"`
	SslPolicy       any                 `json:"SslPolicy,omitempty"`
	Certificates    []cfnCertificateRef `json:"Certificates,omitempty"`
	DefaultActions  []cfnAction         `json:"DefaultActions"`
}

func cfnListener(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "load_balancer_arn", "port", "protocol", "ssl_policy", "certificate_arn")
	if err != nil {
		return nil, err
	}
	props := cfnListenerProps{
		LoadBalancerArn: a["load_balancer_arn"],
		Port:            a["port"],
		Protocol:        a["protocol"],
		SslPolicy:       a["ssl_policy"],
	}
	if a["certificate_arn"] != nil {
		props.Certificates = []cfnCertificateRef{{CertificateArn: a["certificate_arn"]}}
	}
	actions, _ := n.Attributes["default_action"].([]any)
	for _, act := range actions {
		m, _ := act.(map[string]any)
		converted, err := c.value(m)
		if err != nil {
			return nil, fmt.Errorf("default_action: %w", err)
		}
		cm := converted.(map[string]any)
		props.DefaultActions = append(props.DefaultActions, cfnAction{
			Type:           cm["type"],
			TargetGroupArn: cm["target_group_arn"],
		})
	}
	return c.resource(n, props)
}

type cfnDomainValidation struct {
	DomainName   any `json:"DomainName"`
	HostedZoneId any `json:"HostedZoneId"`
}

type cfnCertificateProps struct {
	DomainName              any                   `json:"DomainName"`
	ValidationMethod        any                   `json:"ValidationMethod,omitempty"`
	DomainValidationOptions []cfnDomainValidation `json:"DomainValidationOptions,omitempty"`
	Tags                    []intrinsics.Tag      `json:"Tags,omitempty"`
}

// cfnCertificate absorbs the validation record's hosted zone.
func cfnCertificate(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "domain_name", "validation_method")
	if err != nil {
		return nil, err
	}
	props := cfnCertificateProps{
		DomainName:       a["domain_name"],
		ValidationMethod: a["validation_method"],
		Tags:             c.tags(n),
	}
	for _, rec := range c.topo.NodesOfKind(topology.KindCertificateValidationRecord) {
		if c.folded[rec.ID] != n.ID {
			continue
		}
		props.DomainValidationOptions = append(props.DomainValidationOptions, cfnDomainValidation{
			DomainName:   a["domain_name"],
			HostedZoneId: rec.Attributes["zone_id"],
		})
	}
	return c.resource(n, props)
}

type cfnAliasTarget struct {
	DNSName              any `json:"DNSName"`
	HostedZoneId         any `json:"HostedZoneId"`
	EvaluateTargetHealth any `json:"EvaluateTargetHealth,omitempty"`
}

type cfnRecordSetProps struct {
	HostedZoneId any             `json:"HostedZoneId"`
	Name         any             `json:"Name"`
	Type         any             `json:"Type"`
	AliasTarget  *cfnAliasTarget `json:"AliasTarget,omitempty"`
}

func cfnDNSRecord(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "zone_id", "name", "type", "alias")
	if err != nil {
		return nil, err
	}
	props := cfnRecordSetProps{
		HostedZoneId: a["zone_id"],
		Name:         a["name"],
		Type:         a["type"],
	}
	if alias, ok := a["alias"].(map[string]any); ok {
		props.AliasTarget = &cfnAliasTarget{
			DNSName:              alias["name"],
			HostedZoneId:         alias["zone_id"],
			EvaluateTargetHealth: alias["evaluate_target_health"],
		}
	}
	return c.resource(n, props)
}

type cfnScanning struct {
	ScanOnPush any `json:"ScanOnPush"`
}

type cfnRepositoryProps struct {
	RepositoryName             any              `json:"RepositoryName"`
	ImageTagMutability         any              `json:"ImageTagMutability,omitempty"`
	ImageScanningConfiguration *cfnScanning     `json:"ImageScanningConfiguration,omitempty"`
	Tags                       []intrinsics.Tag `json:"Tags,omitempty"`
}

func cfnRepository(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "name", "image_tag_mutability")
	if err != nil {
		return nil, err
	}
	props := cfnRepositoryProps{
		RepositoryName:     a["name"],
		ImageTagMutability: a["image_tag_mutability"],
		Tags:               c.tags(n),
	}
	if scan, ok := n.Attributes["image_scanning_configuration"].(map[string]any); ok {
		props.ImageScanningConfiguration = &cfnScanning{ScanOnPush: scan["scan_on_push"]}
	}
	return c.resource(n, props)
}

type cfnRoleProps struct {
	RoleName                 any              `json:"RoleName,omitempty"`
	AssumeRolePolicyDocument any              `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any            `json:"ManagedPolicyArns,omitempty"`
	Tags                     []intrinsics.Tag `json:"Tags,omitempty"`
}

// cfnRole absorbs the role's policy attachments.
func cfnRole(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "name", "assume_role_policy")
	if err != nil {
		return nil, err
	}
	props := cfnRoleProps{
		RoleName:                 a["name"],
		AssumeRolePolicyDocument: a["assume_role_policy"],
		Tags:                     c.tags(n),
	}
	for _, att := range c.topo.NodesOfKind(topology.KindIAMRolePolicyAttachment) {
		if c.folded[att.ID] != n.ID {
			continue
		}
		arn, err := c.attr(att, "policy_arn")
		if err != nil {
			return nil, err
		}
		props.ManagedPolicyArns = append(props.ManagedPolicyArns, arn)
	}
	return c.resource(n, props)
}

type cfnTaskDefinitionProps struct {
	Family                  any              `json:"Family"`
	RequiresCompatibilities any              `json:"RequiresCompatibilities,omitempty"`
	NetworkMode             any              `json:"NetworkMode,omitempty"`
	Cpu                     any              `json:"Cpu,omitempty"`
	Memory                  any              `json:"Memory,omitempty"`
	ExecutionRoleArn        any              `json:"ExecutionRoleArn,omitempty"`
	ContainerDefinitions    any              `json:"ContainerDefinitions"`
	Tags                    []intrinsics.Tag `json:"Tags,omitempty"`
}

func cfnTaskDefinition(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "family", "requires_compatibilities", "network_mode", "cpu", "memory",
		"execution_role_arn", "container_definitions")
	if err != nil {
		return nil, err
	}
	return c.resource(n, cfnTaskDefinitionProps{
		Family:                  a["family"],
		RequiresCompatibilities: a["requires_compatibilities"],
		NetworkMode:             a["network_mode"],
		Cpu:                     a["cpu"],
		Memory:                  a["memory"],
		ExecutionRoleArn:        a["execution_role_arn"],
		ContainerDefinitions:    regionPortable(serialize.PascalKeys(a["container_definitions"], "options")),
		Tags:                    c.tags(n),
	})
}

// regionPortable points the awslogs region at the stack's own region.
func regionPortable(defs any) any {
	list, ok := defs.([]any)
	if !ok {
		return defs
	}
	for _, d := range list {
		container, ok := d.(map[string]any)
		if !ok {
			continue
		}
		logConfig, ok := container["LogConfiguration"].(map[string]any)
		if !ok {
			continue
		}
		options, ok := logConfig["Options"].(map[string]any)
		if !ok {
			continue
		}
		// options is shared with the topology node
		copied := make(map[string]any, len(options))
		for k, v := range options {
			copied[k] = v
		}
		if _, ok := copied["awslogs-region"]; ok {
			copied["awslogs-region"] = intrinsics.AWS_REGION
		}
		logConfig["Options"] = copied
	}
	return list
}

type cfnAwsvpcConfiguration struct {
	Subnets        any    `json:"Subnets"`
	SecurityGroups any    `json:"SecurityGroups"`
	AssignPublicIp string `json:"AssignPublicIp"`
}

type cfnNetworkConfiguration struct {
	AwsvpcConfiguration cfnAwsvpcConfiguration `json:"AwsvpcConfiguration"`
}

type cfnServiceLoadBalancer struct {
	TargetGroupArn any `json:"TargetGroupArn"`
	ContainerName  any `json:"ContainerName"`
	ContainerPort  any `json:"ContainerPort"`
}

type cfnServiceProps struct {
	ServiceName          any                      `json:"ServiceName"`
	Cluster              any                      `json:"Cluster"`
	TaskDefinition       any                      `json:"TaskDefinition"`
	DesiredCount         any                      `json:"DesiredCount"`
	LaunchType           any                      `json:"LaunchType"`
	NetworkConfiguration *cfnNetworkConfiguration `json:"NetworkConfiguration,omitempty"`
	LoadBalancers        []cfnServiceLoadBalancer `json:"LoadBalancers,omitempty"`
	Tags                 []intrinsics.Tag         `json:"Tags,omitempty"`
}

func cfnService(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	a, err := c.attrs(n, "name", "cluster", "task_definition", "desired_count", "launch_type",
		"network_configuration", "load_balancer")
	if err != nil {
		return nil, err
	}
	props := cfnServiceProps{
		ServiceName:    a["name"],
		Cluster:        a["cluster"],
		TaskDefinition: a["task_definition"],
		DesiredCount:   a["desired_count"],
		LaunchType:     a["launch_type"],
		Tags:           c.tags(n),
	}
	if nc, ok := a["network_configuration"].(map[string]any); ok {
		assign := "DISABLED"
		if public, _ := nc["assign_public_ip"].(bool); public {
			assign = "ENABLED"
		}
		props.NetworkConfiguration = &cfnNetworkConfiguration{AwsvpcConfiguration: cfnAwsvpcConfiguration{
			Subnets:        nc["subnets"],
			SecurityGroups: nc["security_groups"],
			AssignPublicIp: assign,
		}}
	}
	lbs, _ := a["load_balancer"].([]any)
	for _, lb := range lbs {
		m, _ := lb.(map[string]any)
		props.LoadBalancers = append(props.LoadBalancers, cfnServiceLoadBalancer{
			TargetGroupArn: m["target_group_arn"],
			ContainerName:  m["container_name"],
			ContainerPort:  m["container_port"],
		})
	}
	return c.resource(n, props)
}

type cfnDimension struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// cfnAlarm renders dimensions as a sorted Name/Value list.
func cfnAlarm(c *cfnContext, n topology.ResourceNode) ([]cfnResource, error) {
	dims, _ := n.Attributes["dimensions"].(map[string]any)
	rest := n
	rest.Attributes = make(map[string]any, len(n.Attributes))
	for k, v := range n.Attributes {
		if k != "dimensions" {
			rest.Attributes[k] = v
		}
	}
	out, err := cfnGeneric(nil)(c, rest)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dims))
	for k := range dims {
		names = append(names, k)
	}
	sort.Strings(names)
	var dimensions []cfnDimension
	for _, name := range names {
		v, err := c.value(dims[name])
		if err != nil {
			return nil, fmt.Errorf("dimensions: %w", err)
		}
		dimensions = append(dimensions, cfnDimension{Name: name, Value: v})
	}
	if len(dimensions) > 0 {
		plain, err := serialize.Value(dimensions)
		if err != nil {
			return nil, err
		}
		out[0].def.Properties["Dimensions"] = plain
	}
	return out, nil
}
