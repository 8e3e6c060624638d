package synth

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/tags"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

func demoEnv() map[string]string {
	return map[string]string{
		config.EnvRegion:       "us-east-1",
		config.EnvAccountID:    "123456789012",
		config.EnvRepoName:     "demo-repo",
		config.EnvClusterName:  "demo",
		config.EnvVPCCIDR:      "10.0.0.0/16",
		config.EnvPublicCIDRA:  "10.0.1.0/24",
		config.EnvPublicCIDRB:  "10.0.2.0/24",
		config.EnvPrivateCIDRA: "10.0.11.0/24",
		config.EnvPrivateCIDRB: "10.0.12.0/24",
		config.EnvStateBucket:  "demo-state",
		config.EnvImageTag:     "v1",
	}
}

func demoConfig(t *testing.T, overrides map[string]string) config.EnvConfig {
	t.Helper()
	env := demoEnv()
	for k, v := range overrides {
		env[k] = v
	}
	cfg, err := config.Load(config.MapLookup(env), config.Options{})
	require.NoError(t, err)
	return cfg
}

func synthesize(t *testing.T, cfg config.EnvConfig) *topology.Topology {
	t.Helper()
	topo, err := Synthesize(cfg, nil)
	require.NoError(t, err)
	require.True(t, topo.Sealed())
	return topo
}

func node(t *testing.T, topo *topology.Topology, id string) topology.ResourceNode {
	t.Helper()
	n, ok := topo.Node(id)
	require.True(t, ok, "node %s not declared", id)
	return n
}

func TestSynthesize_Scenario(t *testing.T) {
	topo := synthesize(t, demoConfig(t, nil))

	pubA := node(t, topo, "publicSubnetA")
	assert.Equal(t, "public-subnet-a", pubA.Tags[tags.KeyName])
	assert.Equal(t, "us-east-1a", pubA.Attributes["availability_zone"])
	pubB := node(t, topo, "publicSubnetB")
	assert.Equal(t, "public-subnet-b", pubB.Tags[tags.KeyName])
	assert.Equal(t, "us-east-1b", pubB.Attributes["availability_zone"])

	logs := node(t, topo, "ecsLogGroup")
	assert.Equal(t, "/ecs/demo", logs.Attributes["name"])
	assert.Equal(t, 7, logs.Attributes["retention_in_days"])

	alarm := node(t, topo, "cpuAlarm")
	assert.Equal(t, "demo-high-cpu", alarm.Attributes["alarm_name"])
	assert.Equal(t, 80, alarm.Attributes["threshold"])
	assert.Equal(t, 2, alarm.Attributes["evaluation_periods"])
	assert.Equal(t, map[string]any{
		"ClusterName": topology.Ref{ID: "ecsCluster", Attr: "name"},
		"ServiceName": topology.Ref{ID: "ecsService", Attr: "name"},
	}, alarm.Attributes["dimensions"])
	assert.NotContains(t, alarm.Attributes, "alarm_actions")

	dns, ok := topo.Output(OutputALBDNSName)
	require.True(t, ok)
	appURL, ok := topo.Output(OutputAppURL)
	require.True(t, ok)
	assert.Equal(t, topology.Join("http://", dns.Value, "/health"), appURL.Value)

	vpcID, _ := topo.Output(OutputVPCID)
	vpcUsed, _ := topo.Output(OutputVPCUsed)
	assert.Equal(t, vpcID.Value, vpcUsed.Value)

	_, ok = topo.Output(OutputHTTPSURL)
	assert.False(t, ok)

	names := make([]string, 0)
	for _, o := range topo.Outputs() {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"albDnsName", "appUrl", "ecrRepoUrl", "ecsClusterName", "vpcId", "vpcUsed"}, names)
}

func TestSynthesize_Subnets(t *testing.T) {
	topo := synthesize(t, demoConfig(t, nil))

	var public, private []topology.ResourceNode
	for _, n := range topo.NodesOfKind(topology.KindSubnet) {
		if n.Attributes["map_public_ip_on_launch"] == true {
			public = append(public, n)
		} else {
			private = append(private, n)
		}
	}
	require.Len(t, public, 2)
	require.Len(t, private, 2)

	for _, pair := range [][]topology.ResourceNode{public, private} {
		assert.NotEqual(t, pair[0].Attributes["availability_zone"], pair[1].Attributes["availability_zone"])
	}
	assert.Equal(t, "us-east-1a", private[0].Attributes["availability_zone"])
	assert.Equal(t, "us-east-1b", private[1].Attributes["availability_zone"])

	// One NAT shared by both private subnets.
	assert.Len(t, topo.NodesOfKind(topology.KindNATGateway), 1)
	route := node(t, topo, "privateNatRoute")
	assert.Equal(t, topology.Ref{ID: "natGw", Attr: "id"}, route.Attributes["nat_gateway_id"])
	nat := node(t, topo, "natGw")
	assert.Equal(t, topology.Ref{ID: "publicSubnetA", Attr: "id"}, nat.Attributes["subnet_id"])
}

func TestSynthesize_TagPolicy(t *testing.T) {
	for _, https := range []bool{false, true} {
		overrides := map[string]string{}
		if https {
			overrides = map[string]string{
				config.EnvEnableHTTPS:  "true",
				config.EnvDomainName:   "app.example.com",
				config.EnvHostedZoneID: "Z123",
			}
		}
		topo := synthesize(t, demoConfig(t, overrides))

		for _, n := range topo.Nodes() {
			if n.Kind.Taggable() {
				require.NotNil(t, n.Tags, n.ID)
				assert.True(t, n.Tags.HasCommon(), n.ID)
				assert.Equal(t, tags.ManagedBy, n.Tags[tags.KeyManagedBy])
				assert.Equal(t, "tv-devops", n.Tags[tags.KeyProject])
				assert.Equal(t, "demo", n.Tags[tags.KeyAppName])
			} else {
				assert.Nil(t, n.Tags, n.ID)
			}
		}
	}
}

func TestSynthesize_SecurityGroupSymmetry(t *testing.T) {
	topo := synthesize(t, demoConfig(t, nil))

	ecsSg := node(t, topo, "ecsSg")
	assert.Empty(t, ecsSg.Attributes["ingress"])

	var ingress, egress []topology.ResourceNode
	for _, r := range topo.NodesOfKind(topology.KindSecurityGroupRule) {
		switch r.Attributes["type"] {
		case "ingress":
			ingress = append(ingress, r)
		case "egress":
			egress = append(egress, r)
		}
	}
	require.Len(t, ingress, 1)
	require.Len(t, egress, 1)

	in := ingress[0].Attributes
	assert.Equal(t, topology.Ref{ID: "ecsSg", Attr: "id"}, in["security_group_id"])
	assert.Equal(t, topology.Ref{ID: "albSg", Attr: "id"}, in["source_security_group_id"])
	assert.Equal(t, 3000, in["from_port"])
	assert.Equal(t, 3000, in["to_port"])

	out := egress[0].Attributes
	assert.Equal(t, topology.Ref{ID: "albSg", Attr: "id"}, out["security_group_id"])
	assert.Equal(t, topology.Ref{ID: "ecsSg", Attr: "id"}, out["source_security_group_id"])
	assert.Equal(t, 3000, out["from_port"])

	albSg := node(t, topo, "albSg")
	rules := albSg.Attributes["ingress"].([]any)
	require.Len(t, rules, 1)
	assert.Equal(t, 80, rules[0].(map[string]any)["from_port"])
	assert.Equal(t, "demo-alb-sg", albSg.Attributes["name"])
}

func TestSynthesize_ALBIngressPerCIDR(t *testing.T) {
	topo := synthesize(t, demoConfig(t, map[string]string{
		config.EnvALBAllowedCIDRs: "10.1.0.0/16,10.2.0.0/16",
		config.EnvEnableHTTPS:     "true",
		config.EnvDomainName:      "app.example.com",
		config.EnvCertificateARN:  "arn:aws:acm:us-east-1:123456789012:certificate/abc",
	}))

	rules := node(t, topo, "albSg").Attributes["ingress"].([]any)
	require.Len(t, rules, 4)
	var ports []int
	for _, r := range rules {
		ports = append(ports, r.(map[string]any)["from_port"].(int))
	}
	assert.Equal(t, []int{80, 80, 443, 443}, ports)
}

func TestSynthesize_ListenerModes(t *testing.T) {
	const certARN = "arn:aws:acm:us-east-1:123456789012:certificate/abc"

	tests := []struct {
		name      string
		env       map[string]string
		mode      topology.ListenerMode
		present   []string
		absent    []string
		listeners int
	}{
		{
			name:      "https off",
			env:       nil,
			mode:      topology.ListenerHTTPOnly,
			absent:    []string{"httpsCert", "certValidationRecord", "certValidation", "httpsListener", "dnsRecord"},
			listeners: 1,
		},
		{
			name:      "flag without domain falls back",
			env:       map[string]string{config.EnvEnableHTTPS: "true"},
			mode:      topology.ListenerHTTPOnly,
			absent:    []string{"httpsCert", "httpsListener"},
			listeners: 1,
		},
		{
			name: "issued certificate",
			env: map[string]string{
				config.EnvEnableHTTPS:  "true",
				config.EnvDomainName:   "app.example.com",
				config.EnvHostedZoneID: "Z123",
			},
			mode:      topology.ListenerHTTPSEnabled,
			present:   []string{"httpsCert", "certValidationRecord", "certValidation", "httpsListener", "dnsRecord", "listener"},
			listeners: 2,
		},
		{
			name: "existing certificate",
			env: map[string]string{
				config.EnvEnableHTTPS:    "true",
				config.EnvDomainName:     "app.example.com",
				config.EnvCertificateARN: certARN,
			},
			mode:      topology.ListenerHTTPSEnabled,
			present:   []string{"httpsListener", "listener"},
			absent:    []string{"httpsCert", "certValidationRecord", "certValidation", "dnsRecord"},
			listeners: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := synthesize(t, demoConfig(t, tt.env))
			assert.Equal(t, tt.mode, topo.ListenerMode())
			assert.Len(t, topo.NodesOfKind(topology.KindListener), tt.listeners)
			for _, id := range tt.present {
				_, ok := topo.Node(id)
				assert.True(t, ok, "expected %s", id)
			}
			for _, id := range tt.absent {
				_, ok := topo.Node(id)
				assert.False(t, ok, "unexpected %s", id)
			}

			service := node(t, topo, "ecsService")
			for _, l := range topo.NodesOfKind(topology.KindListener) {
				assert.Contains(t, service.DependsOn, l.ID)
			}

			_, hasHTTPSURL := topo.Output(OutputHTTPSURL)
			assert.Equal(t, tt.mode == topology.ListenerHTTPSEnabled, hasHTTPSURL)
		})
	}
}

func TestSynthesize_HTTPSListener(t *testing.T) {
	topo := synthesize(t, demoConfig(t, map[string]string{
		config.EnvEnableHTTPS:  "true",
		config.EnvDomainName:   "app.example.com",
		config.EnvHostedZoneID: "Z123",
	}))

	l := node(t, topo, "httpsListener")
	assert.Equal(t, 443, l.Attributes["port"])
	assert.Equal(t, "HTTPS", l.Attributes["protocol"])
	assert.Equal(t, TLSPolicy, l.Attributes["ssl_policy"])
	assert.Equal(t, topology.Ref{ID: "certValidation", Attr: "certificate_arn"}, l.Attributes["certificate_arn"])

	record := node(t, topo, "certValidationRecord")
	assert.Equal(t, "Z123", record.Attributes["zone_id"])

	o, ok := topo.Output(OutputHTTPSURL)
	require.True(t, ok)
	assert.Equal(t, "https://app.example.com/health", o.Value)
}

func TestSynthesize_ConfigErrors(t *testing.T) {
	t.Run("issued certificate without hosted zone", func(t *testing.T) {
		cfg := demoConfig(t, nil)
		cfg.HTTPS = config.HTTPSConfig{Enabled: true, Domain: "app.example.com"}

		topo, err := Synthesize(cfg, nil)
		assert.Nil(t, topo)
		var cerr *config.Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, config.EnvHostedZoneID, cerr.Invalid[0].Name)
	})

	t.Run("empty image tag", func(t *testing.T) {
		cfg := demoConfig(t, nil)
		cfg.ImageTag = ""

		_, err := Synthesize(cfg, nil)
		var cerr *config.Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, []string{config.EnvImageTag}, cerr.Missing)
	})
}

func TestSynthesize_Compute(t *testing.T) {
	topo := synthesize(t, demoConfig(t, nil))

	role := node(t, topo, "ecsTaskRole")
	assert.Equal(t, "demo-ecs-task-execution-role", role.Attributes["name"])

	attach := node(t, topo, "ecsTaskPolicyAttach")
	assert.Equal(t, TaskExecutionPolicyARN, attach.Attributes["policy_arn"])

	task := node(t, topo, "ecsTaskDef")
	assert.Equal(t, "demo-task", task.Attributes["family"])
	assert.Equal(t, "256", task.Attributes["cpu"])
	assert.Equal(t, "512", task.Attributes["memory"])
	doc := task.Attributes["container_definitions"].(topology.Document)
	container := doc.Value.([]any)[0].(map[string]any)
	assert.Equal(t, "app", container["name"])
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/demo-repo:v1", container["image"])
	options := container["logConfiguration"].(map[string]any)["options"].(map[string]any)
	assert.Equal(t, topology.Ref{ID: "ecsLogGroup", Attr: "name"}, options["awslogs-group"])
	assert.Equal(t, "ecs", options["awslogs-stream-prefix"])

	service := node(t, topo, "ecsService")
	assert.Equal(t, "demo-service", service.Attributes["name"])
	assert.Equal(t, 1, service.Attributes["desired_count"])
	assert.Subset(t, service.DependsOn, []string{"alb", "tg", "listener", "ecsTaskDef"})
	netCfg := service.Attributes["network_configuration"].(map[string]any)
	assert.Equal(t, false, netCfg["assign_public_ip"])
	assert.Equal(t, []any{
		topology.Ref{ID: "privateSubnetA", Attr: "id"},
		topology.Ref{ID: "privateSubnetB", Attr: "id"},
	}, netCfg["subnets"])
}

func TestSynthesize_LogGroupBeforeTaskDefinition(t *testing.T) {
	topo := synthesize(t, demoConfig(t, nil))

	index := map[string]int{}
	for i, id := range topo.Order() {
		index[id] = i
	}
	assert.Less(t, index["ecsLogGroup"], index["ecsTaskDef"])
	assert.Less(t, index["ecsTaskDef"], index["ecsService"])
	assert.Less(t, index["ecsService"], index["cpuAlarm"])
	assert.Less(t, index["customVpc"], index["publicSubnetA"])
	assert.Len(t, topo.Order(), topo.Len())
}

func TestSynthesize_Idempotent(t *testing.T) {
	cfg := demoConfig(t, map[string]string{
		config.EnvEnableHTTPS:  "true",
		config.EnvDomainName:   "app.example.com",
		config.EnvHostedZoneID: "Z123",
	})

	a := synthesize(t, cfg)
	b := synthesize(t, cfg)
	assert.Equal(t, a.Nodes(), b.Nodes())
	assert.Equal(t, a.Outputs(), b.Outputs())
	assert.Equal(t, a.Order(), b.Order())
}

func TestSynthesize_AppURLPort(t *testing.T) {
	topo := synthesize(t, demoConfig(t, map[string]string{config.EnvALBPort: "8080"}))
	o, _ := topo.Output(OutputAppURL)
	assert.Equal(t, topology.Join("http://", topology.Ref{ID: "alb", Attr: "dns_name"}, ":8080", "/health"), o.Value)
	assert.Contains(t, o.Description, "port 8080")

	o, _ = synthesize(t, demoConfig(t, nil)).Output(OutputAppURL)
	assert.Equal(t, topology.Join("http://", topology.Ref{ID: "alb", Attr: "dns_name"}, "/health"), o.Value)
	assert.Equal(t, "Health endpoint through the load balancer", o.Description)
}

func TestSynthesize_LogsFallbackWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Synthesize(demoConfig(t, map[string]string{config.EnvEnableHTTPS: "true"}), logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "falling back to HTTP only")
	assert.Contains(t, buf.String(), "network declared")
}

func TestDecideListenerMode(t *testing.T) {
	tests := []struct {
		https config.HTTPSConfig
		want  topology.ListenerMode
	}{
		{config.HTTPSConfig{}, topology.ListenerHTTPOnly},
		{config.HTTPSConfig{Domain: "a.example.com"}, topology.ListenerHTTPOnly},
		{config.HTTPSConfig{Enabled: true}, topology.ListenerHTTPOnly},
		{config.HTTPSConfig{Enabled: true, Domain: "a.example.com"}, topology.ListenerHTTPSEnabled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecideListenerMode(config.EnvConfig{HTTPS: tt.https}))
	}
}
