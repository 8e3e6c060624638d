package topology

import (
	"reflect"
	"sort"
)

// Ref is a symbolic reference to an attribute of another node. It resolves
// only when the rendered document is applied.
type Ref struct {
	ID   string
	Attr string
}

// Interp is a string built from literal parts and references.
type Interp struct {
	Parts []any
}

// Join builds an Interp from string and Ref parts.
func Join(parts ...any) Interp {
	return Interp{Parts: parts}
}

// Literal returns the interpolated string when every part is a literal.
func (i Interp) Literal() (string, bool) {
	s := ""
	for _, p := range i.Parts {
		str, ok := p.(string)
		if !ok {
			return "", false
		}
		s += str
	}
	return s, true
}

// Document is a structured value that the Terraform rendering encodes as a
// JSON string, such as a policy or container definition list.
type Document struct {
	Value any
}

// References returns every Ref reachable from v, in walk order.
func References(v any) []Ref {
	var refs []Ref
	walk(v, func(r Ref) { refs = append(refs, r) })
	return refs
}

func walk(v any, fn func(Ref)) {
	switch x := v.(type) {
	case nil:
	case Ref:
		fn(x)
	case Interp:
		for _, p := range x.Parts {
			walk(p, fn)
		}
	case Document:
		walk(x.Value, fn)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(x[k], fn)
		}
	case []any:
		for _, e := range x {
			walk(e, fn)
		}
	case []Ref:
		for _, r := range x {
			fn(r)
		}
	case []map[string]any:
		for _, m := range x {
			walk(m, fn)
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			for i := 0; i < rv.Len(); i++ {
				walk(rv.Index(i).Interface(), fn)
			}
		}
	}
}
