// Package differ provides semantic comparison of synthesized topologies.
package differ

import (
	"fmt"
	"reflect"
	"sort"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores list element order in comparisons
	IgnoreOrder bool

	// IgnoreTags skips tag map comparison
	IgnoreTags bool
}

// Result contains the difference between two topologies.
type Result struct {
	Diff    wetwire.TopologyDiff
	Summary wetwire.DiffSummary
}

// Empty reports whether the two topologies were structurally identical.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0
}

// Compare compares two topologies and returns node and output differences.
func Compare(before, after *topology.Topology, opts Options) (*Result, error) {
	if before == nil || after == nil {
		return nil, fmt.Errorf("compare: both topologies are required")
	}
	result := &Result{}

	// Find added nodes (in after but not in before)
	for _, n := range after.Nodes() {
		if _, exists := before.Node(n.ID); !exists {
			result.Diff.Added = append(result.Diff.Added, wetwire.DiffEntry{
				Resource: n.ID,
				Kind:     string(n.Kind),
			})
		}
	}

	// Find removed and modified nodes
	for _, n1 := range before.Nodes() {
		n2, exists := after.Node(n1.ID)
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, wetwire.DiffEntry{
				Resource: n1.ID,
				Kind:     string(n1.Kind),
			})
			continue
		}
		if changes := compareNodes(n1, n2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, wetwire.DiffEntry{
				Resource: n1.ID,
				Kind:     string(n1.Kind),
				Changes:  changes,
			})
		}
	}

	result.Diff.Outputs = compareOutputs(before.Outputs(), after.Outputs(), opts)

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = wetwire.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
		Outputs:  len(result.Diff.Outputs),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed +
		result.Summary.Modified + result.Summary.Outputs

	return result, nil
}

// compareNodes compares two nodes with the same id and returns changes.
func compareNodes(n1, n2 topology.ResourceNode, opts Options) []string {
	var changes []string

	if n1.Kind != n2.Kind {
		changes = append(changes, fmt.Sprintf("kind changed: %s → %s", n1.Kind, n2.Kind))
	}

	changes = append(changes, compareProperties("", n1.Attributes, n2.Attributes, opts)...)

	if !opts.IgnoreTags {
		changes = append(changes, compareProperties("tags", stringMap(n1.Tags), stringMap(n2.Tags), opts)...)
	}

	if !equalStringSlices(n1.DependsOn, n2.DependsOn) {
		changes = append(changes, "depends_on changed")
	}

	return changes
}

// compareProperties recursively compares attribute maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}
		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}
		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", path))
		}
	}

	sort.Strings(changes)
	return changes
}

func compareOutputs(before, after []topology.Output, opts Options) []string {
	index := make(map[string]topology.Output, len(before))
	for _, o := range before {
		index[o.Name] = o
	}

	var changes []string
	seen := make(map[string]bool, len(after))
	for _, o2 := range after {
		seen[o2.Name] = true
		o1, exists := index[o2.Name]
		switch {
		case !exists:
			changes = append(changes, fmt.Sprintf("%s added", o2.Name))
		case !deepEqual(o1.Value, o2.Value, opts) || o1.Description != o2.Description:
			changes = append(changes, fmt.Sprintf("%s modified", o2.Name))
		}
	}
	for _, o1 := range before {
		if !seen[o1.Name] {
			changes = append(changes, fmt.Sprintf("%s removed", o1.Name))
		}
	}

	sort.Strings(changes)
	return changes
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts list elements by their printed form.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		for i := range val {
			result[i] = normalizeValue(val[i])
		}
		sort.SliceStable(result, func(i, j int) bool {
			return fmt.Sprintf("%v", result[i]) < fmt.Sprintf("%v", result[j])
		})
		return result
	case []string:
		result := append([]string(nil), val...)
		sort.Strings(result)
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func stringMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// equalStringSlices compares two string slices for equality.
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by resource id.
func sortEntries(entries []wetwire.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
