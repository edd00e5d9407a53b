package gateway

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/pkg/errors"
	"github.com/viant/scy"
	saws "github.com/viant/scy/auth/aws"
	"github.com/viant/scy/cred"
)

// credentialStrategy builds an AWS config from a single credential source
type credentialStrategy interface {
	Name() string
	// Applies checks if strategy can serve supplied config
	Applies(config *Config) bool
	Load(ctx context.Context, config *Config) (*aws.Config, error)
}

// credentialStrategies returns strategies in resolution order,
// profile takes precedence over explicit keys when both are supplied
func credentialStrategies() []credentialStrategy {
	return []credentialStrategy{
		secretsStrategy{},
		profileStrategy{},
		staticStrategy{},
		defaultStrategy{},
	}
}

func resolveStrategy(config *Config) credentialStrategy {
	for _, strategy := range credentialStrategies() {
		if strategy.Applies(config) {
			return strategy
		}
	}
	return defaultStrategy{}
}

// secretsStrategy loads AWS credentials from a secret resource
type secretsStrategy struct{}

func (s secretsStrategy) Name() string {
	return "secrets"
}

func (s secretsStrategy) Applies(config *Config) bool {
	return config.Secrets != nil
}

func (s secretsStrategy) Load(ctx context.Context, config *Config) (*aws.Config, error) {
	srv := scy.New()
	secret, err := srv.Load(ctx, scy.NewResource(&cred.Aws{}, config.Secrets.URL, config.Secrets.Key))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS credentials from %v", config.Secrets.URL)
	}
	awsCred, ok := secret.Target.(*cred.Aws)
	if !ok {
		return nil, errors.Errorf("expected %T, but had %T", awsCred, secret.Target)
	}
	cfg, err := saws.NewConfig(ctx, awsCred)
	if err != nil {
		return nil, err
	}
	if config.Region != "" {
		cfg.Region = config.Region
	}
	return cfg, nil
}

// profileStrategy uses an AWS shared config profile
type profileStrategy struct{}

func (s profileStrategy) Name() string {
	return "profile"
}

func (s profileStrategy) Applies(config *Config) bool {
	return config.Profile != ""
}

func (s profileStrategy) Load(ctx context.Context, config *Config) (*aws.Config, error) {
	options := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithSharedConfigProfile(config.Profile),
	}
	if config.Region != "" {
		options = append(options, awsconfig.WithRegion(config.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// staticStrategy uses explicit access keys with an optional session token
type staticStrategy struct{}

func (s staticStrategy) Name() string {
	return "static"
}

func (s staticStrategy) Applies(config *Config) bool {
	return config.AccessKey != "" && config.SecretAccessKey != ""
}

func (s staticStrategy) Load(ctx context.Context, config *Config) (*aws.Config, error) {
	provider := credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretAccessKey, config.SessionToken)
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(provider),
		awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// defaultStrategy uses the ambient credential chain (env, shared config, instance role)
type defaultStrategy struct{}

func (s defaultStrategy) Name() string {
	return "default"
}

func (s defaultStrategy) Applies(config *Config) bool {
	return true
}

func (s defaultStrategy) Load(ctx context.Context, config *Config) (*aws.Config, error) {
	var options []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		options = append(options, awsconfig.WithRegion(config.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
