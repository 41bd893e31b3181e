package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// resolveAWSSecretsManager fetches a secret string from AWS Secrets Manager,
// for `${AWS_SM:secret-name}` references in the source or destination
// credentials. Region and credentials come from the default AWS chain (env,
// shared config, instance role).
func resolveAWSSecretsManager(ref string) (string, error) {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("loading AWS config: %w", err)
	}

	sm := secretsmanager.NewFromConfig(awsCfg)
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return "", fmt.Errorf("fetching secret %q: %w", ref, err)
	}

	if out.SecretString == nil {
		return "", fmt.Errorf("secret %q is binary; store credentials must be string secrets", ref)
	}
	return *out.SecretString, nil
}
