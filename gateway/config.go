package gateway

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/scy"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

// DefaultRegion is used when no region was supplied
const DefaultRegion = "us-east-1"

// Config represents gateway manager configuration
type (
	Config struct {
		Profile         string        // AWS shared config profile name
		AccessKey       string        // explicit AWS access key
		SecretAccessKey string        // explicit AWS secret access key
		SessionToken    string        // optional session token used with explicit keys
		Region          string
		Secrets         *scy.Resource // optional secret resource holding AWS credentials
		AuditURL        string        // optional operation audit stream URL
		MetricPort      int           // if specified HTTP endpoint port to expose metrics
	}
)

// Init applies defaults
func (c *Config) Init() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks if config is valid
func (c *Config) Validate() error {
	if (c.AccessKey != "") != (c.SecretAccessKey != "") {
		return errors.New("please provide both access key and secret access key")
	}
	if c.AccessKey != "" && c.Region == "" {
		return errors.New("please provide a region with AWS credentials")
	}
	return nil
}

// NewConfigFromURL creates a config from YAML or JSON document at supplied URL
func NewConfigFromURL(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download config %v", URL)
	}
	aMap := map[string]interface{}{}
	if err = yaml.Unmarshal(data, &aMap); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %v", URL)
	}
	config := &Config{}
	if err = toolbox.DefaultConverter.AssignConverted(config, aMap); err != nil {
		return nil, err
	}
	config.Init()
	return config, config.Validate()
}
