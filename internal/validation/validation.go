// Package validation checks a synthesized topology before it is rendered.
//
// Two passes are available:
//   - invariant checks over the topology itself (subnets, tags, security group
//     pairing, listeners, outputs, acyclicity)
//   - cfn-lint-go over the rendered CloudFormation template (library dependency)
package validation

import (
	"fmt"
	"net/netip"
	"sort"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/synth"
	"github.com/lex00/wetwire-fargate-go/internal/tags"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Violation is one failed invariant.
type Violation struct {
	Check    string `json:"check"`
	Resource string `json:"resource,omitempty"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	if v.Resource == "" {
		return fmt.Sprintf("%s: %s", v.Check, v.Message)
	}
	return fmt.Sprintf("%s: %s: %s", v.Check, v.Resource, v.Message)
}

// Check names.
const (
	CheckAcyclic   = "acyclic"
	CheckSubnets   = "subnets"
	CheckTags      = "tags"
	CheckSGPairing = "security-group-pairing"
	CheckListeners = "listeners"
	CheckOutputs   = "outputs"
)

// Options configures Validate.
type Options struct {
	// CfnLint renders the CloudFormation template and lints it.
	CfnLint bool
}

// ValidationResult contains all validation results for a topology.
type ValidationResult struct {
	Violations    []Violation    `json:"violations"`
	CfnLintResult *CfnLintResult `json:"cfn_lint_result,omitempty"`
}

// Passed reports whether no invariant failed and cfn-lint reported no errors.
func (r *ValidationResult) Passed() bool {
	if len(r.Violations) > 0 {
		return false
	}
	return r.CfnLintResult == nil || r.CfnLintResult.Passed
}

// Summary converts the result into the CLI JSON shape.
func (r *ValidationResult) Summary(resources int) wetwire.ValidateResult {
	out := wetwire.ValidateResult{Success: r.Passed(), Resources: resources}
	for _, v := range r.Violations {
		out.Errors = append(out.Errors, v.String())
	}
	if r.CfnLintResult != nil {
		out.Errors = append(out.Errors, r.CfnLintResult.Errors...)
		out.Warnings = append(out.Warnings, r.CfnLintResult.Warnings...)
	}
	return out
}

// Validate runs the invariant checks and, when requested, cfn-lint.
func Validate(topo *topology.Topology, opts Options) (*ValidationResult, error) {
	if topo == nil {
		return nil, fmt.Errorf("validate: topology is required")
	}
	result := &ValidationResult{Violations: CheckTopology(topo)}

	if opts.CfnLint {
		cfnResult, err := LintTopology(topo)
		if err != nil {
			return nil, fmt.Errorf("running cfn-lint: %w", err)
		}
		result.CfnLintResult = cfnResult
	}

	return result, nil
}

// CheckTopology returns every invariant violation, grouped by check.
func CheckTopology(topo *topology.Topology) []Violation {
	var out []Violation
	for _, check := range []func(*topology.Topology) []Violation{
		checkAcyclic,
		checkSubnets,
		checkTags,
		checkSecurityGroupPairing,
		checkListeners,
		checkOutputs,
	} {
		out = append(out, check(topo)...)
	}
	return out
}

func checkAcyclic(topo *topology.Topology) []Violation {
	if _, err := topo.TopologicalOrder(); err != nil {
		return []Violation{{Check: CheckAcyclic, Message: err.Error()}}
	}
	return nil
}

func checkSubnets(topo *topology.Topology) []Violation {
	var out []Violation
	fail := func(id, format string, args ...any) {
		out = append(out, Violation{Check: CheckSubnets, Resource: id, Message: fmt.Sprintf(format, args...)})
	}

	vpcs := topo.NodesOfKind(topology.KindVPC)
	if len(vpcs) != 1 {
		fail("", "expected one vpc, found %d", len(vpcs))
		return out
	}
	vpcPrefix, err := netip.ParsePrefix(fmt.Sprint(vpcs[0].Attributes["cidr_block"]))
	if err != nil {
		fail(vpcs[0].ID, "invalid cidr_block: %v", err)
		return out
	}

	zones := map[bool]map[string]bool{true: {}, false: {}}
	counts := map[bool]int{}
	for _, n := range topo.NodesOfKind(topology.KindSubnet) {
		public, _ := n.Attributes["map_public_ip_on_launch"].(bool)
		counts[public]++
		az := fmt.Sprint(n.Attributes["availability_zone"])
		if zones[public][az] {
			fail(n.ID, "availability zone %s is used twice in the same tier", az)
		}
		zones[public][az] = true

		prefix, err := netip.ParsePrefix(fmt.Sprint(n.Attributes["cidr_block"]))
		switch {
		case err != nil:
			fail(n.ID, "invalid cidr_block: %v", err)
		case prefix.Bits() < vpcPrefix.Bits() || !vpcPrefix.Contains(prefix.Addr()):
			fail(n.ID, "cidr_block %s is outside the vpc %s", prefix, vpcPrefix)
		}
	}
	if counts[true] != 2 {
		fail("", "expected 2 public subnets, found %d", counts[true])
	}
	if counts[false] != 2 {
		fail("", "expected 2 private subnets, found %d", counts[false])
	}
	return out
}

func checkTags(topo *topology.Topology) []Violation {
	var out []Violation
	for _, n := range topo.Nodes() {
		switch {
		case n.Kind.Taggable() && !n.Tags.HasCommon():
			out = append(out, Violation{Check: CheckTags, Resource: n.ID, Message: "missing common tags"})
		case n.Kind.Taggable() && n.Tags[tags.KeyManagedBy] != tags.ManagedBy:
			out = append(out, Violation{Check: CheckTags, Resource: n.ID,
				Message: fmt.Sprintf("%s must be %s", tags.KeyManagedBy, tags.ManagedBy)})
		case !n.Kind.Taggable() && n.Tags != nil:
			out = append(out, Violation{Check: CheckTags, Resource: n.ID, Message: "kind does not accept tags"})
		}
	}
	return out
}

// checkSecurityGroupPairing verifies that the service SG has no inline
// ingress and that exactly one egress/ingress rule pair joins the edge SG to
// it on the container port.
func checkSecurityGroupPairing(topo *topology.Topology) []Violation {
	var out []Violation
	fail := func(id, format string, args ...any) {
		out = append(out, Violation{Check: CheckSGPairing, Resource: id, Message: fmt.Sprintf(format, args...)})
	}

	edgeSG := firstRef(topo.NodesOfKind(topology.KindLoadBalancer), "security_groups")
	computeSG := firstRef(serviceNetwork(topo), "security_groups")
	if edgeSG == "" || computeSG == "" {
		fail("", "load balancer and service security groups must both be declared")
		return out
	}

	if sg, ok := topo.Node(computeSG); ok {
		if ingress, _ := sg.Attributes["ingress"].([]any); len(ingress) > 0 {
			fail(sg.ID, "service security group has %d inline ingress rules", len(ingress))
		}
	}

	port := containerPort(topo)
	var ingress, egress int
	for _, rule := range topo.NodesOfKind(topology.KindSecurityGroupRule) {
		owner := refID(rule.Attributes["security_group_id"])
		peer := refID(rule.Attributes["source_security_group_id"])
		switch {
		case rule.Attributes["type"] == "ingress" && owner == computeSG && peer == edgeSG:
			ingress++
		case rule.Attributes["type"] == "egress" && owner == edgeSG && peer == computeSG:
			egress++
		default:
			continue
		}
		if port != nil && (rule.Attributes["from_port"] != port || rule.Attributes["to_port"] != port) {
			fail(rule.ID, "rule ports do not match container port %v", port)
		}
	}
	if ingress != 1 || egress != 1 {
		fail("", "expected one ingress and one egress rule between %s and %s, found %d and %d",
			edgeSG, computeSG, ingress, egress)
	}
	return out
}

func checkListeners(topo *topology.Topology) []Violation {
	listeners := topo.NodesOfKind(topology.KindListener)
	protocols := make([]string, 0, len(listeners))
	for _, l := range listeners {
		protocols = append(protocols, fmt.Sprint(l.Attributes["protocol"]))
	}
	sort.Strings(protocols)

	var want []string
	switch topo.ListenerMode() {
	case topology.ListenerHTTPOnly:
		want = []string{"HTTP"}
	case topology.ListenerHTTPSEnabled:
		want = []string{"HTTP", "HTTPS"}
	default:
		return []Violation{{Check: CheckListeners, Message: fmt.Sprintf("unknown listener mode %q", topo.ListenerMode())}}
	}
	if fmt.Sprint(protocols) != fmt.Sprint(want) {
		return []Violation{{Check: CheckListeners,
			Message: fmt.Sprintf("listener mode %s wants %v listeners, found %v", topo.ListenerMode(), want, protocols)}}
	}

	var out []Violation
	for _, svc := range topo.NodesOfKind(topology.KindECSService) {
		deps := make(map[string]bool)
		for _, d := range svc.Dependencies() {
			deps[d] = true
		}
		for _, l := range listeners {
			if !deps[l.ID] {
				out = append(out, Violation{Check: CheckListeners, Resource: svc.ID,
					Message: fmt.Sprintf("service does not depend on listener %s", l.ID)})
			}
		}
	}
	return out
}

// RequiredOutputs are present in every topology.
var RequiredOutputs = []string{
	synth.OutputAppURL,
	synth.OutputALBDNSName,
	synth.OutputECRRepoURL,
	synth.OutputECSClusterName,
	synth.OutputVPCID,
	synth.OutputVPCUsed,
}

func checkOutputs(topo *topology.Topology) []Violation {
	var out []Violation
	for _, name := range RequiredOutputs {
		if _, ok := topo.Output(name); !ok {
			out = append(out, Violation{Check: CheckOutputs, Resource: name, Message: "output is missing"})
		}
	}
	_, hasHTTPS := topo.Output(synth.OutputHTTPSURL)
	if wantHTTPS := topo.ListenerMode() == topology.ListenerHTTPSEnabled; hasHTTPS != wantHTTPS {
		out = append(out, Violation{Check: CheckOutputs, Resource: synth.OutputHTTPSURL,
			Message: fmt.Sprintf("present=%t but listener mode is %s", hasHTTPS, topo.ListenerMode())})
	}
	return out
}

func serviceNetwork(topo *topology.Topology) []topology.ResourceNode {
	var out []topology.ResourceNode
	for _, svc := range topo.NodesOfKind(topology.KindECSService) {
		if nc, ok := svc.Attributes["network_configuration"].(map[string]any); ok {
			out = append(out, topology.ResourceNode{ID: svc.ID, Attributes: nc})
		}
	}
	return out
}

// firstRef returns the id of the first reference in attr of the first node.
func firstRef(nodes []topology.ResourceNode, attr string) string {
	if len(nodes) == 0 {
		return ""
	}
	refs := topology.References(nodes[0].Attributes[attr])
	if len(refs) == 0 {
		return ""
	}
	return refs[0].ID
}

func refID(v any) string {
	if r, ok := v.(topology.Ref); ok {
		return r.ID
	}
	return ""
}

func containerPort(topo *topology.Topology) any {
	for _, svc := range topo.NodesOfKind(topology.KindECSService) {
		lbs, _ := svc.Attributes["load_balancer"].([]any)
		for _, lb := range lbs {
			if m, ok := lb.(map[string]any); ok {
				return m["container_port"]
			}
		}
	}
	return nil
}
