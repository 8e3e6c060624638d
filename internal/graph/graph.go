// Package graph generates DOT and Mermaid format dependency graphs from a synthesized topology.
package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/emicklei/dot"

	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatMermaid:
		return FormatMermaid, nil
	}
	return "", fmt.Errorf("unknown graph format %q (want dot or mermaid)", s)
}

// Generator creates dependency graphs from a topology.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByLayer groups nodes into network, security, edge, compute and
	// observability clusters.
	ClusterByLayer bool

	// TypeName labels each node. Defaults to the topology kind.
	TypeName func(topology.Kind) string
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(topo *topology.Topology, w io.Writer) error {
	graph := g.buildGraph(topo)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(topo *topology.Topology) (string, error) {
	var sb strings.Builder
	if err := g.Generate(topo, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(topo *topology.Topology) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	nodes := topo.Nodes()
	var dotNodes map[string]dot.Node
	if g.ClusterByLayer {
		dotNodes = g.addClusteredNodes(graph, nodes)
	} else {
		dotNodes = g.addNodes(graph, nodes)
	}

	for _, n := range nodes {
		attrRefs := attributeRefs(n)
		explicit := make(map[string]bool, len(n.DependsOn))
		for _, d := range n.DependsOn {
			explicit[d] = true
		}
		for _, dep := range n.Dependencies() {
			to, ok := dotNodes[dep]
			if !ok {
				continue
			}
			e := graph.Edge(dotNodes[n.ID], to)
			switch {
			case attrRefs[dep]:
				e.Attr("color", "blue")
			case explicit[dep] && !referenced(n, dep):
				e.Attr("style", "dashed")
			}
		}
	}

	return graph
}

func (g *Generator) label(n topology.ResourceNode) string {
	typeName := string(n.Kind)
	if g.TypeName != nil {
		if t := g.TypeName(n.Kind); t != "" {
			typeName = t
		}
	}
	return n.ID + "\\n[" + typeName + "]"
}

func (g *Generator) addNodes(graph *dot.Graph, nodes []topology.ResourceNode) map[string]dot.Node {
	out := make(map[string]dot.Node, len(nodes))
	for _, n := range nodes {
		dn := graph.Node(n.ID)
		dn.Label(g.label(n))
		out[n.ID] = dn
	}
	return out
}

// addClusteredNodes adds nodes grouped by layer, in build order.
func (g *Generator) addClusteredNodes(graph *dot.Graph, nodes []topology.ResourceNode) map[string]dot.Node {
	byLayer := make(map[topology.Layer][]topology.ResourceNode)
	for _, n := range nodes {
		layer := n.Kind.Layer()
		byLayer[layer] = append(byLayer[layer], n)
	}

	out := make(map[string]dot.Node, len(nodes))
	for _, layer := range topology.Layers {
		members := byLayer[layer]
		if len(members) == 0 {
			continue
		}
		cluster := graph.Subgraph("cluster_"+string(layer), dot.ClusterOption{})
		cluster.Attr("label", string(layer))
		cluster.Attr("style", "rounded")
		cluster.Attr("bgcolor", layerColors[layer])
		for _, n := range members {
			dn := cluster.Node(n.ID)
			dn.Label(g.label(n))
			out[n.ID] = dn
		}
	}
	return out
}

var layerColors = map[topology.Layer]string{
	topology.LayerNetwork:       "lightblue",
	topology.LayerSecurity:      "mistyrose",
	topology.LayerEdge:          "lightyellow",
	topology.LayerCompute:       "honeydew",
	topology.LayerObservability: "lavender",
}

// attributeRefs returns ids referenced through a non-id attribute.
func attributeRefs(n topology.ResourceNode) map[string]bool {
	out := make(map[string]bool)
	for _, r := range topology.References(n.Attributes) {
		if r.Attr != "" && r.Attr != "id" {
			out[r.ID] = true
		}
	}
	return out
}

func referenced(n topology.ResourceNode, id string) bool {
	for _, r := range topology.References(n.Attributes) {
		if r.ID == id {
			return true
		}
	}
	return false
}
