// Package topology holds the resource graph produced by synthesis.
//
// Nodes are added in a single forward pass. A node may only reference nodes
// that were added before it, so the graph is acyclic by construction; Seal
// verifies this with Kahn's algorithm and fixes the apply order.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lex00/wetwire-fargate-go/internal/tags"
)

// ListenerMode is the secure listener state of the edge.
type ListenerMode string

const (
	ListenerHTTPOnly     ListenerMode = "HTTP_ONLY"
	ListenerHTTPSEnabled ListenerMode = "HTTPS_ENABLED"
)

// ResourceNode is one declared resource.
type ResourceNode struct {
	Kind       Kind
	ID         string
	Attributes map[string]any
	Tags       tags.TagSet
	DependsOn  []string
}

// Ref returns a reference to attr of this node.
func (n ResourceNode) Ref(attr string) Ref {
	return Ref{ID: n.ID, Attr: attr}
}

// Dependencies returns the sorted union of explicit edges and referenced ids.
func (n ResourceNode) Dependencies() []string {
	seen := make(map[string]bool)
	for _, d := range n.DependsOn {
		seen[d] = true
	}
	for _, r := range References(n.Attributes) {
		seen[r.ID] = true
	}
	deps := make([]string, 0, len(seen))
	for d := range seen {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return deps
}

// Output is a named value exposed by the topology.
type Output struct {
	Name        string
	Description string
	Value       any
}

// ConstructionError reports an invariant violation while building.
type ConstructionError struct {
	ID     string
	Reason string
}

func (e *ConstructionError) Error() string {
	if e.ID == "" {
		return "topology: " + e.Reason
	}
	return fmt.Sprintf("topology: %s: %s", e.ID, e.Reason)
}

// Topology is an ordered set of nodes plus named outputs.
type Topology struct {
	nodes   []*ResourceNode
	index   map[string]*ResourceNode
	outputs []Output
	mode    ListenerMode
	order   []string
	sealed  bool
}

// New returns an empty topology in HTTP_ONLY mode.
func New() *Topology {
	return &Topology{
		index: make(map[string]*ResourceNode),
		mode:  ListenerHTTPOnly,
	}
}

// Add appends a node. It fails on a duplicate id, a reference to a node that
// has not been added, a tag policy violation, or a sealed topology.
func (t *Topology) Add(n ResourceNode) (Ref, error) {
	if t.sealed {
		return Ref{}, &ConstructionError{ID: n.ID, Reason: "topology is sealed"}
	}
	if n.ID == "" {
		return Ref{}, &ConstructionError{Reason: "node has no id"}
	}
	if !n.Kind.Known() {
		return Ref{}, &ConstructionError{ID: n.ID, Reason: fmt.Sprintf("unknown kind %q", n.Kind)}
	}
	if _, dup := t.index[n.ID]; dup {
		return Ref{}, &ConstructionError{ID: n.ID, Reason: "duplicate id"}
	}
	for _, dep := range n.Dependencies() {
		if dep == n.ID {
			return Ref{}, &ConstructionError{ID: n.ID, Reason: "references itself"}
		}
		if _, ok := t.index[dep]; !ok {
			return Ref{}, &ConstructionError{ID: n.ID, Reason: fmt.Sprintf("references %s before it is declared", dep)}
		}
	}
	switch {
	case n.Kind.Taggable() && n.Tags == nil:
		return Ref{}, &ConstructionError{ID: n.ID, Reason: fmt.Sprintf("%s requires tags", n.Kind)}
	case n.Kind.Taggable() && !n.Tags.HasCommon():
		return Ref{}, &ConstructionError{ID: n.ID, Reason: "missing common tags"}
	case !n.Kind.Taggable() && n.Tags != nil:
		return Ref{}, &ConstructionError{ID: n.ID, Reason: fmt.Sprintf("%s does not accept tags", n.Kind)}
	}

	node := n
	if node.Attributes == nil {
		node.Attributes = map[string]any{}
	}
	node.DependsOn = append([]string(nil), n.DependsOn...)
	t.nodes = append(t.nodes, &node)
	t.index[node.ID] = &node
	return Ref{ID: node.ID, Attr: "id"}, nil
}

// AddOutput records a named output. Referenced nodes must exist.
func (t *Topology) AddOutput(o Output) error {
	if t.sealed {
		return &ConstructionError{ID: o.Name, Reason: "topology is sealed"}
	}
	for _, existing := range t.outputs {
		if existing.Name == o.Name {
			return &ConstructionError{ID: o.Name, Reason: "duplicate output"}
		}
	}
	for _, r := range References(o.Value) {
		if _, ok := t.index[r.ID]; !ok {
			return &ConstructionError{ID: o.Name, Reason: fmt.Sprintf("output references unknown node %s", r.ID)}
		}
	}
	t.outputs = append(t.outputs, o)
	return nil
}

// SetListenerMode records the edge listener state.
func (t *Topology) SetListenerMode(m ListenerMode) {
	t.mode = m
}

// ListenerMode returns the edge listener state.
func (t *Topology) ListenerMode() ListenerMode {
	return t.mode
}

// Node returns the node with the given id.
func (t *Topology) Node(id string) (ResourceNode, bool) {
	n, ok := t.index[id]
	if !ok {
		return ResourceNode{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order.
func (t *Topology) Nodes() []ResourceNode {
	out := make([]ResourceNode, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = *n
	}
	return out
}

// NodesOfKind returns the nodes of one kind in insertion order.
func (t *Topology) NodesOfKind(k Kind) []ResourceNode {
	var out []ResourceNode
	for _, n := range t.nodes {
		if n.Kind == k {
			out = append(out, *n)
		}
	}
	return out
}

// Len returns the number of nodes.
func (t *Topology) Len() int {
	return len(t.nodes)
}

// Outputs returns the named outputs in declaration order.
func (t *Topology) Outputs() []Output {
	return append([]Output(nil), t.outputs...)
}

// Output returns the named output.
func (t *Topology) Output(name string) (Output, bool) {
	for _, o := range t.outputs {
		if o.Name == name {
			return o, true
		}
	}
	return Output{}, false
}

// Sealed reports whether Seal has succeeded.
func (t *Topology) Sealed() bool {
	return t.sealed
}

// Seal verifies the graph is acyclic and freezes it.
func (t *Topology) Seal() error {
	if t.sealed {
		return nil
	}
	order, err := t.TopologicalOrder()
	if err != nil {
		return err
	}
	t.order = order
	t.sealed = true
	return nil
}

// Order returns the apply order computed by Seal.
func (t *Topology) Order() []string {
	return append([]string(nil), t.order...)
}

// TopologicalOrder returns node ids so that every node follows its
// dependencies. Ties are broken by id for determinism.
func (t *Topology) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(t.nodes))
	dependents := make(map[string][]string, len(t.nodes))

	for _, n := range t.nodes {
		inDegree[n.ID] += 0
		for _, dep := range n.Dependencies() {
			if _, ok := t.index[dep]; !ok {
				continue
			}
			inDegree[n.ID]++
			dependents[dep] = append(dependents[dep], n.ID)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		next := dependents[id]
		sort.Strings(next)
		for _, d := range next {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
				sort.Strings(queue)
			}
		}
	}

	if len(order) != len(t.nodes) {
		var stuck []string
		for id, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, &ConstructionError{Reason: "dependency cycle among " + strings.Join(stuck, ", ")}
	}
	return order, nil
}
