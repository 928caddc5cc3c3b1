// Package file loads server configuration from a TOML file in the dcgraph
// config directory, with DC_* environment variables taking precedence over
// file values.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DC type values.
const (
	DCTypeBase   = "base"
	DCTypeCustom = "custom"
)

// Config holds the full server configuration.
type Config struct {
	// APIKey authenticates against the public Data Commons API.
	APIKey string `toml:"api_key"`

	// DCType selects the deployment shape: "base" for the public instance
	// only, "custom" to layer a self-hosted instance on top of it.
	DCType string `toml:"dc_type"`

	// BaseURL is the root URL of the custom instance (custom type only).
	BaseURL string `toml:"base_url"`

	// SearchScope routes taxonomy searches: base_only, custom_only, or
	// base_and_custom.
	SearchScope string `toml:"search_scope"`

	// BaseIndex and CustomIndex name the vector-search indexes.
	BaseIndex   string `toml:"base_index"`
	CustomIndex string `toml:"custom_index"`

	// RootTopicDCIDs seed the custom instance's topic-store build.
	RootTopicDCIDs []string `toml:"root_topic_dcids"`

	// SVSearchBaseURL overrides the vector-search endpoint base URL.
	SVSearchBaseURL string `toml:"sv_search_base_url"`

	// TopicCachePath points at a bundled node-cache JSON for the base
	// instance, or a snapshot location for the custom build.
	TopicCachePath string `toml:"topic_cache_path"`

	// CustomSearchThreshold is the minimum score for a custom-instance
	// search hit to win over the base instance's.
	CustomSearchThreshold float64 `toml:"custom_search_threshold"`

	// Verbose enables debug logging to stderr.
	Verbose bool `toml:"verbose"`
}

// DefaultPath returns ~/.dcgraph/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dcgraph", "config.toml"), nil
}

// Load reads configuration from the given TOML file (or the default path
// when empty), applies DC_* environment overrides, fills defaults, and
// validates the result. A missing file is not an error: environment
// variables alone can carry a full configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	cfg := &Config{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Environment-only configuration.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(target *string, key string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	setString(&cfg.APIKey, "DC_API_KEY")
	setString(&cfg.DCType, "DC_TYPE")
	setString(&cfg.BaseURL, "DC_BASE_URL")
	setString(&cfg.SearchScope, "DC_SEARCH_SCOPE")
	setString(&cfg.BaseIndex, "DC_BASE_INDEX")
	setString(&cfg.CustomIndex, "DC_CUSTOM_INDEX")
	setString(&cfg.SVSearchBaseURL, "DC_SV_SEARCH_BASE_URL")
	setString(&cfg.TopicCachePath, "DC_TOPIC_CACHE_PATH")

	if v := os.Getenv("DC_ROOT_TOPIC_DCIDS"); v != "" {
		var dcids []string
		for _, dcid := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(dcid); trimmed != "" {
				dcids = append(dcids, trimmed)
			}
		}
		cfg.RootTopicDCIDs = dcids
	}
	if v := os.Getenv("DC_CUSTOM_SEARCH_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CustomSearchThreshold = threshold
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DCType == "" {
		cfg.DCType = DCTypeBase
	}
	if cfg.SearchScope == "" {
		cfg.SearchScope = "base_and_custom"
	}
}

// Validate checks cross-field constraints, naming the offending keys.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set it in the config file or via DC_API_KEY)")
	}

	switch c.DCType {
	case DCTypeBase:
		if c.BaseURL != "" {
			return fmt.Errorf("base_url is only valid with dc_type %q", DCTypeCustom)
		}
	case DCTypeCustom:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required with dc_type %q", DCTypeCustom)
		}
	default:
		return fmt.Errorf("dc_type must be %q or %q, got %q", DCTypeBase, DCTypeCustom, c.DCType)
	}

	switch c.SearchScope {
	case "base_only", "custom_only", "base_and_custom":
	default:
		return fmt.Errorf(
			"search_scope must be one of base_only, custom_only, base_and_custom, got %q", c.SearchScope)
	}
	if c.SearchScope == "custom_only" && c.DCType != DCTypeCustom {
		return fmt.Errorf("search_scope custom_only requires dc_type %q", DCTypeCustom)
	}

	if c.CustomSearchThreshold < 0 || c.CustomSearchThreshold > 1 {
		return fmt.Errorf("custom_search_threshold must be between 0 and 1, got %v", c.CustomSearchThreshold)
	}
	return nil
}
