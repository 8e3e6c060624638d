package render

import (
	"encoding/json"
	"fmt"
	"strings"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// AWSProviderVersion is the provider constraint written to required_providers.
const AWSProviderVersion = "~> 5.0"

var terraformTypes = map[topology.Kind]string{
	topology.KindVPC:                         "aws_vpc",
	topology.KindInternetGateway:             "aws_internet_gateway",
	topology.KindSubnet:                      "aws_subnet",
	topology.KindRouteTable:                  "aws_route_table",
	topology.KindRoute:                       "aws_route",
	topology.KindRouteTableAssociation:       "aws_route_table_association",
	topology.KindEIP:                         "aws_eip",
	topology.KindNATGateway:                  "aws_nat_gateway",
	topology.KindSecurityGroup:               "aws_security_group",
	topology.KindSecurityGroupRule:           "aws_security_group_rule",
	topology.KindLoadBalancer:                "aws_lb",
	topology.KindTargetGroup:                 "aws_lb_target_group",
	topology.KindListener:                    "aws_lb_listener",
	topology.KindCertificate:                 "aws_acm_certificate",
	topology.KindCertificateValidationRecord: "aws_route53_record",
	topology.KindCertificateValidation:       "aws_acm_certificate_validation",
	topology.KindDNSRecord:                   "aws_route53_record",
	topology.KindECRRepository:               "aws_ecr_repository",
	topology.KindECSCluster:                  "aws_ecs_cluster",
	topology.KindIAMRole:                     "aws_iam_role",
	topology.KindIAMRolePolicyAttachment:     "aws_iam_role_policy_attachment",
	topology.KindLogGroup:                    "aws_cloudwatch_log_group",
	topology.KindTaskDefinition:              "aws_ecs_task_definition",
	topology.KindECSService:                  "aws_ecs_service",
	topology.KindMetricAlarm:                 "aws_cloudwatch_metric_alarm",
}

// Attributes that are not plain reads on the Terraform resource.
var terraformAttrExpressions = map[string]string{
	"validation_record_name":  "tolist(%s.domain_validation_options)[0].resource_record_name",
	"validation_record_type":  "tolist(%s.domain_validation_options)[0].resource_record_type",
	"validation_record_value": "tolist(%s.domain_validation_options)[0].resource_record_value",
}

// TerraformType returns the provider resource type for a kind.
func TerraformType(k topology.Kind) string {
	return terraformTypes[k]
}

// Terraform renders topo as a Terraform JSON configuration with an S3
// backend and the AWS provider.
func Terraform(topo *topology.Topology, cfg config.EnvConfig) (*wetwire.TerraformDocument, error) {
	doc := &wetwire.TerraformDocument{
		Terraform: wetwire.TerraformBlock{
			Backend: map[string]map[string]any{
				"s3": {
					"bucket": cfg.StateBucket,
					"key":    cfg.StateKey,
					"region": cfg.Region,
				},
			},
			RequiredProviders: map[string]wetwire.ProviderSource{
				"aws": {Source: "hashicorp/aws", Version: AWSProviderVersion},
			},
		},
		Provider: map[string][]map[string]any{
			"aws": {{"region": cfg.Region}},
		},
		Resource: make(map[string]map[string]map[string]any),
	}

	r := tfRenderer{topo: topo}
	ruled := ruledSecurityGroups(topo)
	for _, n := range topo.Nodes() {
		tfType, ok := terraformTypes[n.Kind]
		if !ok {
			return nil, fmt.Errorf("terraform: no resource type for kind %s", n.Kind)
		}

		// the provider does not allow inline rules next to rule resources
		split := n.Kind == topology.KindSecurityGroup && ruled[n.ID]
		if split {
			if err := r.splitInlineRules(doc, n); err != nil {
				return nil, err
			}
		}

		body := make(map[string]any, len(n.Attributes)+2)
		for k, v := range n.Attributes {
			if split && (k == "ingress" || k == "egress") {
				continue
			}
			rendered, err := r.value(v)
			if err != nil {
				return nil, fmt.Errorf("terraform: %s.%s: %w", n.ID, k, err)
			}
			body[k] = rendered
		}
		if n.Tags != nil {
			body["tags"] = map[string]string(n.Tags.Clone())
		}
		if len(n.DependsOn) > 0 {
			deps := make([]string, len(n.DependsOn))
			for i, d := range n.DependsOn {
				addr, err := r.address(d)
				if err != nil {
					return nil, fmt.Errorf("terraform: %s depends_on: %w", n.ID, err)
				}
				deps[i] = addr
			}
			body["depends_on"] = deps
		}

		if doc.Resource[tfType] == nil {
			doc.Resource[tfType] = make(map[string]map[string]any)
		}
		doc.Resource[tfType][n.ID] = body
	}

	outputs := topo.Outputs()
	if len(outputs) > 0 {
		doc.Output = make(map[string]wetwire.TerraformOutput, len(outputs))
	}
	for _, o := range outputs {
		v, err := r.value(o.Value)
		if err != nil {
			return nil, fmt.Errorf("terraform: output %s: %w", o.Name, err)
		}
		doc.Output[o.Name] = wetwire.TerraformOutput{Description: o.Description, Value: v}
	}
	return doc, nil
}

// ruledSecurityGroups returns the ids of security groups that a rule node
// attaches to.
func ruledSecurityGroups(topo *topology.Topology) map[string]bool {
	out := make(map[string]bool)
	for _, rule := range topo.NodesOfKind(topology.KindSecurityGroupRule) {
		if ref, ok := rule.Attributes["security_group_id"].(topology.Ref); ok {
			out[ref.ID] = true
		}
	}
	return out
}

// splitInlineRules writes each inline CIDR rule of sg as an
// aws_security_group_rule named <sg>_<type>_<n>.
func (r tfRenderer) splitInlineRules(doc *wetwire.TerraformDocument, sg topology.ResourceNode) error {
	groupID, err := r.value(topology.Ref{ID: sg.ID, Attr: "id"})
	if err != nil {
		return fmt.Errorf("terraform: %s: %w", sg.ID, err)
	}
	rules := doc.Resource[terraformTypes[topology.KindSecurityGroupRule]]
	if rules == nil {
		rules = make(map[string]map[string]any)
		doc.Resource[terraformTypes[topology.KindSecurityGroupRule]] = rules
	}

	for _, direction := range []string{"ingress", "egress"} {
		inline, _ := sg.Attributes[direction].([]any)
		for i, item := range inline {
			block, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("terraform: %s.%s[%d] is %T", sg.ID, direction, i, item)
			}
			body := map[string]any{
				"type":              direction,
				"security_group_id": groupID,
			}
			for _, k := range []string{"description", "from_port", "to_port", "protocol", "cidr_blocks", "ipv6_cidr_blocks", "prefix_list_ids"} {
				v, ok := block[k]
				if !ok || isEmpty(v) {
					continue
				}
				rendered, err := r.value(v)
				if err != nil {
					return fmt.Errorf("terraform: %s.%s[%d].%s: %w", sg.ID, direction, i, k, err)
				}
				body[k] = rendered
			}
			rules[fmt.Sprintf("%s_%s_%d", sg.ID, direction, i)] = body
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	}
	return false
}

// TerraformValue renders a single topology value, such as an output, as it
// appears in the Terraform document.
func TerraformValue(topo *topology.Topology, v any) (any, error) {
	return tfRenderer{topo: topo}.value(v)
}

type tfRenderer struct {
	topo *topology.Topology
}

func (r tfRenderer) address(id string) (string, error) {
	n, ok := r.topo.Node(id)
	if !ok {
		return "", fmt.Errorf("unknown node %s", id)
	}
	return terraformTypes[n.Kind] + "." + n.ID, nil
}

func (r tfRenderer) expression(ref topology.Ref) (string, error) {
	addr, err := r.address(ref.ID)
	if err != nil {
		return "", err
	}
	if format, ok := terraformAttrExpressions[ref.Attr]; ok {
		return fmt.Sprintf(format, addr), nil
	}
	return addr + "." + ref.Attr, nil
}

func (r tfRenderer) value(v any) (any, error) {
	switch x := v.(type) {
	case topology.Ref:
		expr, err := r.expression(x)
		if err != nil {
			return nil, err
		}
		return "${" + expr + "}", nil

	case topology.Interp:
		var sb strings.Builder
		for _, p := range x.Parts {
			switch part := p.(type) {
			case string:
				sb.WriteString(part)
			case topology.Ref:
				expr, err := r.expression(part)
				if err != nil {
					return nil, err
				}
				sb.WriteString("${" + expr + "}")
			default:
				return nil, fmt.Errorf("unsupported interpolation part %T", p)
			}
		}
		return sb.String(), nil

	case topology.Document:
		inner, err := r.value(x.Value)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(inner)
		if err != nil {
			return nil, err
		}
		return string(data), nil

	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			rendered, err := r.value(e)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil

	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			rendered, err := r.value(e)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil

	default:
		return v, nil
	}
}
