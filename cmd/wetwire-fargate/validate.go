package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wetwire "github.com/lex00/wetwire-fargate-go"
	"github.com/lex00/wetwire-fargate-go/internal/config"
	"github.com/lex00/wetwire-fargate-go/internal/validation"
)

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		cfnLint    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and topology invariants",
		Long: `Validate loads the configuration, synthesizes the topology and checks its
invariants: two public and two private subnets in distinct availability zones,
common tags, paired security group rules, listeners matching the listener mode,
outputs and acyclicity.

With --cfn-lint the CloudFormation rendering is also checked with cfn-lint-go.

Examples:
    wetwire-fargate validate
    wetwire-fargate validate --cfn-lint --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd.OutOrStdout(), cfnLint, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&cfnLint, "cfn-lint", false, "Also lint the rendered CloudFormation template")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")

	return cmd
}

var errValidationFailed = errors.New("validation failed")

func runValidate(opts *globalOptions, w io.Writer, cfnLint, jsonOutput bool) error {
	_, topo, err := opts.synthesize()
	if err != nil {
		var cerr *config.Error
		if !errors.As(err, &cerr) {
			return err
		}
		result := wetwire.ValidateResult{Success: false, Errors: configErrorLines(cerr)}
		if jsonOutput {
			if werr := writeJSON(w, result); werr != nil {
				return werr
			}
		} else {
			printValidateResult(w, result)
		}
		return errValidationFailed
	}

	vr, err := validation.Validate(topo, validation.Options{CfnLint: cfnLint})
	if err != nil {
		return err
	}
	result := vr.Summary(topo.Len())

	if jsonOutput {
		if err := writeJSON(w, result); err != nil {
			return err
		}
	} else {
		printValidateResult(w, result)
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}

func printValidateResult(w io.Writer, result wetwire.ValidateResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if result.Success {
		fmt.Fprintf(w, "OK: %d resources, %d warnings\n", result.Resources, len(result.Warnings))
	}
}
