// Package intrinsics provides the CloudFormation intrinsic functions used when
// a topology is rendered as a CloudFormation template.
//
// The core types are re-exported from cloudformation-schema-go:
//
//	Ref{"ecsCluster"} → {"Ref": "ecsCluster"}
//	GetAtt{"alb", "DNSName"} → {"Fn::GetAtt": ["alb", "DNSName"]}
//	Join{"", []any{"http://", GetAtt{"alb", "DNSName"}}} → {"Fn::Join": ["", [...]]}
package intrinsics

import (
	"sort"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)

// Concat joins parts with an empty delimiter. A single literal part is
// returned as is.
func Concat(parts ...any) any {
	if len(parts) == 1 {
		if s, ok := parts[0].(string); ok {
			return s
		}
	}
	return Join{Delimiter: "", Values: parts}
}

// Tags converts a tag map to a Key/Value list sorted by key.
func Tags(m map[string]string) []Tag {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Tag, len(keys))
	for i, k := range keys {
		out[i] = Tag{Key: k, Value: m[k]}
	}
	return out
}
