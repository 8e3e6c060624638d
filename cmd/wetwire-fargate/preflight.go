package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-fargate-go/internal/preflight"
)

func newPreflightCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOutput bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check that the AWS credentials match AWS_ACCOUNT_ID",
		Long: `Preflight calls STS GetCallerIdentity with the default credential chain and
compares the caller account with AWS_ACCOUNT_ID, so a plan is never applied to
the wrong account.

Examples:
    wetwire-fargate preflight
    AWS_PROFILE=prod wetwire-fargate preflight --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runPreflight(ctx, opts, cmd.OutOrStdout(), nil, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "STS call timeout")

	return cmd
}

// runPreflight checks the caller identity. A nil client is built from the
// default AWS configuration for the configured region.
func runPreflight(ctx context.Context, opts *globalOptions, w io.Writer, client preflight.IdentityClient, jsonOutput bool) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if client == nil {
		stsClient, err := preflight.NewClient(ctx, cfg.Region)
		if err != nil {
			return err
		}
		client = stsClient
	}

	result, checkErr := preflight.Check(ctx, client, cfg.AccountID)
	if jsonOutput {
		if err := writeJSON(w, result); err != nil {
			return err
		}
		return checkErr
	}

	if checkErr != nil {
		return checkErr
	}
	fmt.Fprintf(w, "OK: account %s (%s)\n", result.CallerAccount, result.CallerARN)
	return nil
}
