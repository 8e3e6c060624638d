package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-fargate-go/internal/differ"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOutput  bool
		ignoreOrder bool
		ignoreTags  bool
		exitCode    bool
	)

	cmd := &cobra.Command{
		Use:   "diff <before.env> <after.env>",
		Short: "Compare topologies synthesized from two env files",
		Long: `Diff synthesizes a topology from each env file and reports nodes that were
added, removed or modified, plus changed outputs. Values in each file take
precedence over the process environment.

Examples:
    wetwire-fargate diff dev.env prod.env
    wetwire-fargate diff old.env new.env --ignore-tags --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, cmd.OutOrStdout(), args[0], args[1], differ.Options{
				IgnoreOrder: ignoreOrder,
				IgnoreTags:  ignoreTags,
			}, jsonOutput, exitCode)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the diff as JSON")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")
	cmd.Flags().BoolVar(&ignoreTags, "ignore-tags", false, "Ignore tag changes")
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit non-zero when the topologies differ")

	return cmd
}

var errTopologiesDiffer = errors.New("topologies differ")

func runDiff(opts *globalOptions, w io.Writer, beforePath, afterPath string, dopts differ.Options, jsonOutput, exitCode bool) error {
	_, before, err := opts.synthesizeFile(beforePath)
	if err != nil {
		return err
	}
	_, after, err := opts.synthesizeFile(afterPath)
	if err != nil {
		return err
	}

	result, err := differ.Compare(before, after, dopts)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := writeJSON(w, map[string]any{"diff": result.Diff, "summary": result.Summary}); err != nil {
			return err
		}
	} else {
		printDiff(w, result)
	}

	if exitCode && !result.Empty() {
		return errTopologiesDiffer
	}
	return nil
}

func printDiff(w io.Writer, result *differ.Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No differences.")
		return
	}
	for _, e := range result.Diff.Added {
		fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Kind)
	}
	for _, e := range result.Diff.Removed {
		fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Kind)
	}
	for _, e := range result.Diff.Modified {
		fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Kind)
		for _, c := range e.Changes {
			fmt.Fprintf(w, "    %s\n", c)
		}
	}
	for _, o := range result.Diff.Outputs {
		fmt.Fprintf(w, "output %s\n", o)
	}
	s := result.Summary
	fmt.Fprintf(w, "\n%d added, %d removed, %d modified, %d outputs changed\n", s.Added, s.Removed, s.Modified, s.Outputs)
}
