package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-fargate-go/internal/graph"
	"github.com/lex00/wetwire-fargate-go/internal/render"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		cluster      bool
		typeNames    string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

Attribute references are drawn in blue, explicit ordering edges dashed.

The output can be rendered with Graphviz:
    wetwire-fargate graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    wetwire-fargate graph -f mermaid

Examples:
    wetwire-fargate graph -c                  # cluster by layer
    wetwire-fargate graph --types cloudformation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, cmd.OutOrStdout(), outputFormat, cluster, typeNames)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&cluster, "cluster", "c", false, "Cluster nodes by layer")
	cmd.Flags().StringVar(&typeNames, "types", "terraform", "Node type labels: terraform, cloudformation or kind")

	return cmd
}

func runGraph(opts *globalOptions, w io.Writer, format string, cluster bool, typeNames string) error {
	graphFormat, err := graph.ParseFormat(format)
	if err != nil {
		return err
	}

	gen := &graph.Generator{
		Format:         graphFormat,
		ClusterByLayer: cluster,
	}
	if typeNames != "kind" {
		target, err := render.ParseTarget(typeNames)
		if err != nil {
			return err
		}
		if target == render.TargetCloudFormation {
			gen.TypeName = render.CloudFormationType
		} else {
			gen.TypeName = render.TerraformType
		}
	}

	_, topo, err := opts.synthesize()
	if err != nil {
		return err
	}
	return gen.Generate(topo, w)
}
