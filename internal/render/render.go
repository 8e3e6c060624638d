// Package render turns a sealed topology into a document an external
// provisioning engine can apply.
package render

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

// Target selects the document dialect.
type Target string

const (
	TargetTerraform      Target = "terraform"
	TargetCloudFormation Target = "cloudformation"
)

// Format selects the encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseTarget parses a target name.
func ParseTarget(s string) (Target, error) {
	switch t := Target(s); t {
	case TargetTerraform, TargetCloudFormation:
		return t, nil
	case "tf":
		return TargetTerraform, nil
	case "cfn":
		return TargetCloudFormation, nil
	default:
		return "", fmt.Errorf("unknown target %q (use terraform or cloudformation)", s)
	}
}

// Render renders topo for target and encodes it in format.
func Render(topo *topology.Topology, cfg config.EnvConfig, target Target, format Format) ([]byte, error) {
	if !topo.Sealed() {
		return nil, fmt.Errorf("render: topology is not sealed")
	}

	var doc any
	switch target {
	case TargetTerraform:
		if format == FormatYAML {
			return nil, fmt.Errorf("render: terraform target only supports json")
		}
		tf, err := Terraform(topo, cfg)
		if err != nil {
			return nil, err
		}
		doc = tf
	case TargetCloudFormation:
		tmpl, err := CloudFormation(topo)
		if err != nil {
			return nil, err
		}
		doc = tmpl
	default:
		return nil, fmt.Errorf("render: unknown target %q", target)
	}

	switch format {
	case FormatJSON, "":
		return ToJSON(doc)
	case FormatYAML:
		return ToYAML(doc)
	default:
		return nil, fmt.Errorf("render: unknown format %q", format)
	}
}

// ToJSON serializes a rendered document to indented JSON.
func ToJSON(doc any) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// ToYAML serializes a rendered document to YAML.
func ToYAML(doc any) ([]byte, error) {
	return yaml.Marshal(doc)
}
