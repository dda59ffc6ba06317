// Package config loads project-level settings from shopsplit.yml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service settings loaded from shopsplit.yml.
type Config struct {
	ListenAddr            string   `yaml:"listenAddr,omitempty"`
	MerchantURLs          []string `yaml:"merchantUrls,omitempty"`
	DiscoveryTimeoutSecs  int      `yaml:"discoveryTimeoutSecs,omitempty"`
	SearchTimeoutSecs     int      `yaml:"searchTimeoutSecs,omitempty"`
	CheckoutTimeoutSecs   int      `yaml:"checkoutTimeoutSecs,omitempty"`
	MaxResultsPerMerchant int      `yaml:"maxResultsPerMerchant,omitempty"`
	Verbose               bool     `yaml:"verbose,omitempty"`
}

// Load attempts to read shopsplit.yml or shopsplit.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	for _, name := range []string{"shopsplit.yml", "shopsplit.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &Config{}, nil
}

// Defaults fills in zero-valued fields.
func (c *Config) Defaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8020"
	}
	if c.DiscoveryTimeoutSecs <= 0 {
		c.DiscoveryTimeoutSecs = 10
	}
	if c.SearchTimeoutSecs <= 0 {
		c.SearchTimeoutSecs = 30
	}
	if c.CheckoutTimeoutSecs <= 0 {
		c.CheckoutTimeoutSecs = 60
	}
	if c.MaxResultsPerMerchant <= 0 {
		c.MaxResultsPerMerchant = 10
	}
}

// DiscoveryTimeout returns the manifest fetch timeout as a duration.
func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.DiscoveryTimeoutSecs) * time.Second
}

// SearchTimeout returns the catalog search timeout as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSecs) * time.Second
}

// CheckoutTimeout returns the per-merchant checkout timeout as a duration.
func (c *Config) CheckoutTimeout() time.Duration {
	return time.Duration(c.CheckoutTimeoutSecs) * time.Second
}
