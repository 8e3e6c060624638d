// Command wetwire-fargate synthesizes a two-tier VPC with an ALB-fronted ECS
// Fargate service from environment variables and renders it as Terraform JSON
// or CloudFormation.
//
// Usage:
//
//	wetwire-fargate synth                     Render main.tf.json to stdout
//	wetwire-fargate synth -t cfn -f yaml      Render a CloudFormation template
//	wetwire-fargate validate --cfn-lint       Check invariants and lint
//	wetwire-fargate graph -f mermaid          Dependency graph
//	wetwire-fargate version                   Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wetwire-fargate",
		Short: "Synthesize an ECS Fargate service topology",
		Long: `wetwire-fargate turns environment configuration into a resource graph:
a VPC with public and private subnets across two availability zones, a NAT
gateway, an application load balancer, an ECS Fargate service, a log group and
a CPU alarm.

Variables are read from the process environment and from an env file
(--env-file, ENV_FILE or .env). Variables already set in the environment win.

    AWS_REGION=us-east-1 APP_CLUSTER_NAME=demo ... wetwire-fargate synth -o main.tf.json`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Env file to load (default: $ENV_FILE or .env)")
	rootCmd.PersistentFlags().StringVar(&opts.imageTagPolicy, "image-tag-policy", "required", "APP_IMAGE_TAG policy: required or default-latest")
	rootCmd.PersistentFlags().CountVarP(&opts.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")

	rootCmd.AddCommand(
		newSynthCmd(opts),
		newValidateCmd(opts),
		newGraphCmd(opts),
		newOutputsCmd(opts),
		newDiffCmd(opts),
		newOptimizeCmd(opts),
		newWatchCmd(opts),
		newPreflightCmd(opts),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wetwire-fargate %s\n", getVersion())
		},
	}
}
