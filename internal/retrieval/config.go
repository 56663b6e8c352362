package retrieval

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds FastGPT connection settings, loaded from a YAML file
type ProviderConfig struct {
	APIURL   string `yaml:"api_url"`
	APIKey   string `yaml:"api_key"`
	PageSize int    `yaml:"page_size"`

	// Requests per second against the provider API; 0 disables throttling
	RateLimit float64 `yaml:"rate_limit"`

	Timeout time.Duration `yaml:"timeout"`

	// API paths, overridable for self-hosted deployments
	RetrievePath           string `yaml:"retrieve_path"`
	ListPath               string `yaml:"list_path"`
	CollectionDataListPath string `yaml:"collection_data_list_path"`
	DataDetailPath         string `yaml:"data_detail_path"`
	CollectionDetailPath   string `yaml:"collection_detail_path"`
}

// LoadProviderConfig reads provider settings from a YAML file and applies
// defaults
func LoadProviderConfig(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider config: %w", err)
	}

	var cfg ProviderConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse provider config: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ProviderConfig) applyDefaults() error {
	if c.APIURL == "" {
		return fmt.Errorf("provider config: api_url is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("provider config: api_key is required")
	}

	// Trailing slashes double up when joined with API paths
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetrievePath == "" {
		c.RetrievePath = "/api/core/dataset/retrieve"
	}
	if c.ListPath == "" {
		c.ListPath = "/api/core/dataset/list"
	}
	if c.CollectionDataListPath == "" {
		c.CollectionDataListPath = "/api/core/dataset/data/v2/list"
	}
	if c.DataDetailPath == "" {
		c.DataDetailPath = "/api/core/dataset/data/detail"
	}
	if c.CollectionDetailPath == "" {
		c.CollectionDetailPath = "/api/core/dataset/collection/detail"
	}
	return nil
}
