package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/render"
	"github.com/lex00/wetwire-fargate-go/internal/topology"
)

func newSynthCmd(opts *globalOptions) *cobra.Command {
	var (
		target     string
		format     string
		outputFile string
		summary    bool
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the topology and render it",
		Long: `Synth validates the configuration, builds the resource graph and renders it.

Terraform output is a main.tf.json document with an S3 backend
(TF_STATE_BUCKET, TF_STATE_KEY). CloudFormation output can be JSON or YAML.

Examples:
    wetwire-fargate synth -o main.tf.json
    wetwire-fargate synth -t cloudformation -f yaml
    wetwire-fargate synth --env-file prod.env --summary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(opts, cmd.OutOrStdout(), target, format, outputFile, summary)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "terraform", "Render target: terraform or cloudformation")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml (cloudformation only)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a JSON summary instead of the document")

	return cmd
}

func runSynth(opts *globalOptions, w io.Writer, targetName, format, outputFile string, summary bool) error {
	target, err := render.ParseTarget(targetName)
	if err != nil {
		return err
	}

	cfg, topo, err := opts.synthesize()
	if err != nil {
		if summary {
			_ = writeJSON(w, wetwire.SynthResult{Success: false, Target: string(target), Errors: []string{err.Error()}})
		}
		return err
	}

	data, err := render.Render(topo, cfg, target, render.Format(format))
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if summary {
		return writeJSON(w, synthSummary(topo, target))
	}

	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(outputFile, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	opts.logger().Info("wrote document", "path", outputFile, "target", target, "resources", topo.Len())
	return nil
}

func synthSummary(topo *topology.Topology, target render.Target) wetwire.SynthResult {
	result := wetwire.SynthResult{
		Success:      true,
		Target:       string(target),
		ListenerMode: string(topo.ListenerMode()),
		Resources:    topo.Order(),
	}
	for _, o := range topo.Outputs() {
		result.Outputs = append(result.Outputs, o.Name)
	}
	return result
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// configErrorLines splits a configuration error into one line per variable.
func configErrorLines(err error) []string {
	var cerr *config.Error
	if !errors.As(err, &cerr) {
		return []string{err.Error()}
	}
	var lines []string
	for _, name := range cerr.Missing {
		lines = append(lines, "missing "+name)
	}
	for _, inv := range cerr.Invalid {
		lines = append(lines, "invalid "+inv.String())
	}
	return lines
}
