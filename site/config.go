// CLAUDE:SUMMARY Service configuration struct, defaults, and YAML loader.
package site

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all site service configuration.
type Config struct {
	// DBPath is the SQLite snapshot database. Empty disables persistence:
	// the tree lives in memory only.
	DBPath string `yaml:"db_path"`

	// SiteName labels the service in logs, events, and MCP metadata.
	SiteName string `yaml:"site_name"`

	// RootTitle is the title given to the root page of a fresh tree.
	RootTitle string `yaml:"root_title"`

	// SearchLimit caps search_pages results when the caller gives none.
	SearchLimit int `yaml:"search_limit"`

	// AutosaveInterval drives the periodic snapshot guard in cmd/arbo.
	// The Service itself saves after every successful mutation.
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

func (c *Config) defaults() {
	if c.SiteName == "" {
		c.SiteName = "arbo"
	}
	if c.RootTitle == "" {
		c.RootTitle = "Home"
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = 20
	}
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = 5 * time.Minute
	}
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
