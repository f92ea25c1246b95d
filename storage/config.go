package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envNamespace prefixes every environment variable read by LoadConfig,
// e.g. URIFS_S3_REGION.
const envNamespace = "URIFS"

// Config carries process-wide backend defaults. Per-URI query parameters
// (region, endpoint) override these where a backend supports them.
type Config struct {
	// S3Region is the default AWS region for s3:// URIs.
	S3Region string `envconfig:"S3_REGION" yaml:"s3_region" default:"us-east-1"`

	// S3Endpoint overrides the S3 endpoint, for S3-compatible stores.
	S3Endpoint string `envconfig:"S3_ENDPOINT" yaml:"s3_endpoint"`

	// S3ForcePathStyle enables path-style addressing, required by most
	// S3-compatible stores.
	S3ForcePathStyle bool `envconfig:"S3_FORCE_PATH_STYLE" yaml:"s3_force_path_style"`

	// SNSRegion is the default AWS region for sns:// URIs that carry a bare
	// topic name instead of a full ARN.
	SNSRegion string `envconfig:"SNS_REGION" yaml:"sns_region" default:"us-east-1"`

	// HTTPTimeout bounds each request made by the HTTP backend.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" yaml:"http_timeout" default:"30s"`

	// IPFSAddr is the IPFS node API address for ipfs:// URIs.
	IPFSAddr string `envconfig:"IPFS_ADDR" yaml:"ipfs_addr" default:"127.0.0.1:5001"`

	// VaultTimeout bounds each request made by the Vault backend.
	VaultTimeout time.Duration `envconfig:"VAULT_TIMEOUT" yaml:"vault_timeout" default:"30s"`
}

// LoadConfig reads configuration from URIFS_* environment variables,
// falling back to the struct defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envNamespace, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads configuration from the environment and overlays
// values from a YAML file. File values win over environment values.
func LoadConfigFile(path string) (Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
