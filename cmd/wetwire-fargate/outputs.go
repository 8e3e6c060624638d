package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/render"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

func newOutputsCmd(opts *globalOptions) *cobra.Command {
	var (
		target     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "List the named outputs of the topology",
		Long: `Outputs prints each named output with its value as the render target
expresses it: a ${...} interpolation for Terraform, an intrinsic function for
CloudFormation.

Examples:
    wetwire-fargate outputs
    wetwire-fargate outputs -t cloudformation --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutputs(opts, cmd.OutOrStdout(), target, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "terraform", "Render target: terraform or cloudformation")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print outputs as a JSON object")

	return cmd
}

func runOutputs(opts *globalOptions, w io.Writer, targetName string, jsonOutput bool) error {
	target, err := render.ParseTarget(targetName)
	if err != nil {
		return err
	}
	_, topo, err := opts.synthesize()
	if err != nil {
		return err
	}

	rendered, err := renderOutputs(topo, target)
	if err != nil {
		return err
	}

	if jsonOutput {
		m := make(map[string]wetwire.Output, len(rendered))
		for _, o := range rendered {
			m[o.name] = o.Output
		}
		return writeJSON(w, m)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tDESCRIPTION")
	for _, o := range rendered {
		value, err := displayValue(o.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.name, value, o.Description)
	}
	return tw.Flush()
}

type namedOutput struct {
	name string
	wetwire.Output
}

// renderOutputs returns the outputs in declaration order.
func renderOutputs(topo *topology.Topology, target render.Target) ([]namedOutput, error) {
	var out []namedOutput
	switch target {
	case render.TargetCloudFormation:
		tmpl, err := render.CloudFormation(topo)
		if err != nil {
			return nil, err
		}
		for _, o := range topo.Outputs() {
			out = append(out, namedOutput{name: o.Name, Output: tmpl.Outputs[o.Name]})
		}
	default:
		for _, o := range topo.Outputs() {
			v, err := render.TerraformValue(topo, o.Value)
			if err != nil {
				return nil, fmt.Errorf("output %s: %w", o.Name, err)
			}
			out = append(out, namedOutput{name: o.Name, Output: wetwire.Output{Description: o.Description, Value: v}})
		}
	}
	return out, nil
}

func displayValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
