// Package config loads the slackcli configuration file.
//
// The config lives at ~/.config/slackcli/config.toml:
//
//	default_org = "acme"
//
//	[orgs.acme]
//	token = "xoxp-..."
//
// SLACKCLI_TOKEN overrides the selected org's token, which keeps tokens out
// of the config file in CI-style use.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Org is the configuration of a single Slack workspace.
type Org struct {
	Name  string
	Token string `mapstructure:"token"`
}

// Config is the parsed configuration file.
type Config struct {
	DefaultOrg string         `mapstructure:"default_org"`
	Orgs       map[string]Org `mapstructure:"orgs"`

	// CacheRoot overrides the cache directory, mainly for tests.
	CacheRoot string `mapstructure:"cache_root"`
}

// DefaultPath returns ~/.config/slackcli/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "slackcli", "config.toml"), nil
}

// Load parses the config file at path, or the default location when path is
// empty.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf(
			"config file not found: %s\ncreate it with your Slack token(s), for example:\n\n[orgs.myworkspace]\ntoken = \"xoxp-...\"",
			path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("SLACKCLI")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	for name, org := range cfg.Orgs {
		if org.Token == "" {
			return nil, fmt.Errorf("missing 'token' for org %q in %s", name, path)
		}
		org.Name = name
		cfg.Orgs[name] = org
	}

	if override := os.Getenv("SLACKCLI_TOKEN"); override != "" {
		for name, org := range cfg.Orgs {
			org.Token = override
			cfg.Orgs[name] = org
		}
	}

	return &cfg, nil
}

// GetOrg selects an org by name, falling back to default_org, or to the only
// configured org when there is exactly one.
func (c *Config) GetOrg(name string) (Org, error) {
	if name == "" {
		name = c.DefaultOrg
	}

	if name == "" {
		if len(c.Orgs) == 1 {
			for _, org := range c.Orgs {
				return org, nil
			}
		}
		return Org{}, fmt.Errorf(
			"no organization specified and no default configured; use --org=<name> or set default_org in config")
	}

	org, ok := c.Orgs[name]
	if !ok {
		names := make([]string, 0, len(c.Orgs))
		for n := range c.Orgs {
			names = append(names, n)
		}
		sort.Strings(names)
		available := strings.Join(names, ", ")
		if available == "" {
			available = "(none)"
		}
		return Org{}, fmt.Errorf("organization %q not found, available: %s", name, available)
	}
	return org, nil
}
