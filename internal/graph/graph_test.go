package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-fargate-go/internal/tags"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

func smallTopology(t *testing.T) *topology.Topology {
	t.Helper()
	common := tags.Common(tags.Inputs{Project: "demo", Environment: "dev"})
	topo := topology.New()
	vpc, err := topo.Add(topology.ResourceNode{Kind: topology.KindVPC, ID: "customVpc", Tags: common})
	require.NoError(t, err)
	_, err = topo.Add(topology.ResourceNode{
		Kind:       topology.KindInternetGateway,
		ID:         "igw",
		Attributes: map[string]any{"vpc_id": vpc},
		Tags:       common,
	})
	require.NoError(t, err)
	_, err = topo.Add(topology.ResourceNode{
		Kind:       topology.KindEIP,
		ID:         "natEip",
		Attributes: map[string]any{"domain": "vpc"},
		DependsOn:  []string{"igw"},
		Tags:       common,
	})
	require.NoError(t, err)
	_, err = topo.Add(topology.ResourceNode{
		Kind: topology.KindNATGateway,
		ID:   "natGw",
		Attributes: map[string]any{
			"allocation_id": topology.Ref{ID: "natEip", Attr: "allocation_id"},
		},
		Tags: common,
	})
	require.NoError(t, err)
	_, err = topo.Add(topology.ResourceNode{
		Kind:       topology.KindLogGroup,
		ID:         "ecsLogGroup",
		Attributes: map[string]any{"name": "/ecs/demo"},
		Tags:       common,
	})
	require.NoError(t, err)
	require.NoError(t, topo.Seal())
	return topo
}

func TestGenerator_Generate_SimpleGraph(t *testing.T) {
	gen := &Generator{}
	var sb strings.Builder
	err := gen.Generate(smallTopology(t), &sb)
	require.NoError(t, err)

	output := sb.String()
	assert.Contains(t, output, "digraph")
	for _, id := range []string{"customVpc", "igw", "natEip", "natGw", "ecsLogGroup"} {
		assert.Contains(t, output, id)
	}
	assert.Contains(t, output, "[vpc]")
	assert.Contains(t, output, "->")
}

func TestGenerator_Generate_EdgeStyles(t *testing.T) {
	out, err := (&Generator{}).GenerateString(smallTopology(t))
	require.NoError(t, err)

	// allocation_id is an attribute reference, the igw edge of natEip is explicit only
	assert.Contains(t, out, "blue")
	assert.Contains(t, out, "dashed")
}

func TestGenerator_Generate_ClusterByLayer(t *testing.T) {
	gen := &Generator{ClusterByLayer: true}
	out, err := gen.GenerateString(smallTopology(t))
	require.NoError(t, err)

	assert.Contains(t, out, "cluster_network")
	assert.Contains(t, out, "cluster_observability")
	assert.NotContains(t, out, "cluster_compute")
}

func TestGenerator_Generate_MermaidFormat(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	out, err := gen.GenerateString(smallTopology(t))
	require.NoError(t, err)

	assert.NotContains(t, out, "digraph")
	assert.Contains(t, out, "natGw")
	assert.Contains(t, out, "-->")
}

func TestGenerator_TypeName(t *testing.T) {
	gen := &Generator{TypeName: func(k topology.Kind) string {
		if k == topology.KindVPC {
			return "aws_vpc"
		}
		return ""
	}}
	out, err := gen.GenerateString(smallTopology(t))
	require.NoError(t, err)

	assert.Contains(t, out, "[aws_vpc]")
	assert.Contains(t, out, "[nat-gateway]")
}

func TestGenerator_Deterministic(t *testing.T) {
	gen := &Generator{ClusterByLayer: true}
	first, err := gen.GenerateString(smallTopology(t))
	require.NoError(t, err)
	second, err := gen.GenerateString(smallTopology(t))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatDOT, false},
		{"dot", FormatDOT, false},
		{"Mermaid", FormatMermaid, false},
		{"svg", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
