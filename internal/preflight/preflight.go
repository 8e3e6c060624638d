// Package preflight confirms that the active AWS credentials belong to the
// account the topology is synthesized for.
package preflight

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	wetwire "github.com/lex00/wetwire-fargate-go"
)

// IdentityClient is the subset of the STS client used here.
type IdentityClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ErrAccountMismatch is returned when the caller account differs from the
// expected one.
var ErrAccountMismatch = errors.New("caller account does not match AWS_ACCOUNT_ID")

// NewClient builds an STS client from the default credential chain.
func NewClient(ctx context.Context, region string) (*sts.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return sts.NewFromConfig(cfg), nil
}

// Check compares the caller identity with expectedAccount. The result is
// always populated; err is non-nil when the check did not pass.
func Check(ctx context.Context, client IdentityClient, expectedAccount string) (wetwire.PreflightResult, error) {
	result := wetwire.PreflightResult{ExpectedAccount: expectedAccount}

	identity, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		err = fmt.Errorf("getting AWS identity: %w", err)
		result.Error = err.Error()
		return result, err
	}

	result.CallerAccount = aws.ToString(identity.Account)
	result.CallerARN = aws.ToString(identity.Arn)
	if result.CallerAccount != expectedAccount {
		err = fmt.Errorf("%w: caller %s, expected %s", ErrAccountMismatch, result.CallerAccount, expectedAccount)
		result.Error = err.Error()
		return result, err
	}

	result.Success = true
	return result, nil
}
