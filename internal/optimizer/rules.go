package optimizer

import (
	"fmt"
	"strings"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/tags"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

const anyIPv4 = "0.0.0.0/0"

var rulesByKind = map[topology.Kind][]Rule{
	topology.KindNATGateway:    natGatewayRules,
	topology.KindSecurityGroup: securityGroupRules,
	topology.KindListener:      listenerRules,
	topology.KindLoadBalancer:  loadBalancerRules,
	topology.KindECRRepository: repositoryRules,
	topology.KindECSService:    serviceRules,
	topology.KindLogGroup:      logGroupRules,
	topology.KindMetricAlarm:   alarmRules,
}

var natGatewayRules = []Rule{
	{
		ID:          "OPT-NET-001",
		Category:    "reliability",
		Title:       "Single NAT gateway",
		Description: "Both private subnets route through one NAT gateway in one availability zone",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if len(topo.NodesOfKind(topology.KindNATGateway)) > 1 {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "medium",
				Suggestion: "Add a NAT gateway per availability zone and route each private subnet through its local gateway.",
			}
		},
	},
	{
		ID:          "OPT-NET-002",
		Category:    "cost",
		Title:       "NAT gateway hourly and data processing charges",
		Description: "Image pulls and log shipping from private subnets pass through the NAT gateway",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			return &wetwire.OptimizeSuggestion{
				Severity:   "low",
				Suggestion: "Add VPC endpoints for ECR, S3 and CloudWatch Logs to keep that traffic off the NAT gateway.",
			}
		},
	},
}

var securityGroupRules = []Rule{
	{
		ID:          "OPT-SG-001",
		Category:    "security",
		Title:       "Ingress open to the internet",
		Description: "An inline ingress rule allows 0.0.0.0/0",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			ports := openPorts(n.Attributes["ingress"])
			if len(ports) == 0 {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:    "medium",
				Description: fmt.Sprintf("Ingress on port(s) %s allows %s", strings.Join(ports, ", "), anyIPv4),
				Suggestion:  "Narrow ALB_ALLOWED_CIDRS to known client ranges or front the ALB with a WAF.",
			}
		},
	},
	{
		ID:          "OPT-SG-002",
		Category:    "security",
		Title:       "Unrestricted egress",
		Description: "Egress allows all protocols to 0.0.0.0/0",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if len(openPorts(n.Attributes["egress"])) == 0 {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "low",
				Suggestion: "Restrict SG_EGRESS_CIDRS to the destinations the workload needs.",
			}
		},
	},
}

var listenerRules = []Rule{
	{
		ID:          "OPT-ELB-001",
		Category:    "security",
		Title:       "Plain HTTP listener",
		Description: "Traffic reaches the load balancer unencrypted",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if n.Attributes["protocol"] != "HTTP" {
				return nil
			}
			if topo.ListenerMode() == topology.ListenerHTTPSEnabled {
				return &wetwire.OptimizeSuggestion{
					Severity:   "low",
					Title:      "HTTP listener alongside HTTPS",
					Suggestion: "Change the HTTP listener default action to a redirect to HTTPS.",
				}
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "high",
				Suggestion: "Set ENABLE_HTTPS=true with DOMAIN_NAME and HOSTED_ZONE_ID or CERTIFICATE_ARN.",
			}
		},
	},
}

var loadBalancerRules = []Rule{
	{
		ID:          "OPT-ELB-002",
		Category:    "reliability",
		Title:       "Deletion protection disabled",
		Description: "The load balancer can be deleted by a stack update",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if enabled, _ := n.Attributes["enable_deletion_protection"].(bool); enabled {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "low",
				Suggestion: "Enable deletion protection on production load balancers.",
			}
		},
	},
}

var repositoryRules = []Rule{
	{
		ID:          "OPT-ECR-001",
		Category:    "security",
		Title:       "Mutable image tags",
		Description: "Tags can be overwritten after a deployment",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if n.Attributes["image_tag_mutability"] != "MUTABLE" {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "medium",
				Suggestion: "Use IMMUTABLE tags and deploy by unique APP_IMAGE_TAG values.",
			}
		},
	},
	{
		ID:          "OPT-ECR-002",
		Category:    "cost",
		Title:       "No lifecycle policy",
		Description: "Untagged and old images accumulate storage charges",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			return &wetwire.OptimizeSuggestion{
				Severity:   "low",
				Suggestion: "Add an ECR lifecycle policy that expires untagged images.",
			}
		},
	},
}

var serviceRules = []Rule{
	{
		ID:          "OPT-ECS-001",
		Category:    "reliability",
		Title:       "Single task",
		Description: "One task leaves the service unavailable during task replacement or an AZ outage",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if count, ok := n.Attributes["desired_count"].(int); !ok || count > 1 {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "medium",
				Suggestion: "Set DESIRED_TASKS to 2 or more so tasks spread across both private subnets.",
			}
		},
	},
	{
		ID:          "OPT-ECS-002",
		Category:    "cost",
		Title:       "On-demand capacity outside production",
		Description: "Fargate Spot is cheaper for interruptible environments",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			env := strings.ToLower(n.Tags[tags.KeyEnvironment])
			if env == "" || env == "prod" || env == "production" {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:    "low",
				Description: fmt.Sprintf("Environment %q runs on on-demand Fargate", n.Tags[tags.KeyEnvironment]),
				Suggestion:  "Consider a FARGATE_SPOT capacity provider strategy.",
			}
		},
	},
	{
		ID:          "OPT-ECS-003",
		Category:    "performance",
		Title:       "No service auto scaling",
		Description: "Task count is fixed regardless of load",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			return &wetwire.OptimizeSuggestion{
				Severity:   "low",
				Suggestion: "Add target tracking on ECSServiceAverageCPUUtilization.",
			}
		},
	},
}

// LongRetentionDays is the retention above which the cost rule fires.
const LongRetentionDays = 30

var logGroupRules = []Rule{
	{
		ID:          "OPT-LOG-001",
		Category:    "cost",
		Title:       "Long log retention",
		Description: "Log storage grows with retention",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			days, ok := n.Attributes["retention_in_days"].(int)
			if !ok || days <= LongRetentionDays {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:    "low",
				Description: fmt.Sprintf("Logs are kept for %d days", days),
				Suggestion:  "Lower LOG_RETENTION_DAYS or export old logs to S3.",
			}
		},
	},
}

var alarmRules = []Rule{
	{
		ID:          "OPT-CW-001",
		Category:    "reliability",
		Title:       "Alarm without actions",
		Description: "Nobody is notified when the alarm fires",
		Check: func(topo *topology.Topology, n topology.ResourceNode) *wetwire.OptimizeSuggestion {
			if actions, ok := n.Attributes["alarm_actions"].([]any); ok && len(actions) > 0 {
				return nil
			}
			return &wetwire.OptimizeSuggestion{
				Severity:   "medium",
				Suggestion: "Attach an SNS topic to alarm_actions.",
			}
		},
	},
}

// openPorts returns the from_port of each inline rule that allows 0.0.0.0/0.
func openPorts(rules any) []string {
	list, ok := rules.([]any)
	if !ok {
		return nil
	}
	var ports []string
	for _, r := range list {
		rule, ok := r.(map[string]any)
		if !ok {
			continue
		}
		cidrs, _ := rule["cidr_blocks"].([]any)
		for _, c := range cidrs {
			if c == anyIPv4 {
				ports = append(ports, fmt.Sprint(rule["from_port"]))
				break
			}
		}
	}
	return ports
}
