// Package config loads tracker configuration and pattern tables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPattern indicates a malformed pattern table. Detection cannot
// proceed meaningfully with a broken table, so this is fatal at startup,
// before any persisted state is touched.
var ErrInvalidPattern = errors.New("invalid pattern config")

// Config is the full tracker configuration. Zero values are filled from
// Default(), so a partial YAML file only overrides what it names.
type Config struct {
	GitHub    GitHubConfig    `yaml:"github"`
	Search    SearchConfig    `yaml:"search"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Weights   WeightsConfig   `yaml:"weight_detection"`
	Promises  []PromisePat    `yaml:"promises"`
	Venues    VenuesConfig    `yaml:"venues"`
	Cache     CacheConfig     `yaml:"cache"`
}

// GitHubConfig holds API access settings.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// SearchConfig controls the search client.
type SearchConfig struct {
	Queries           []string `yaml:"queries"`
	MinStars          int      `yaml:"min_stars"`
	MaxPerQuery       int      `yaml:"max_results_per_query"`
	YearFilter        string   `yaml:"year_filter"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	RateLimitBuffer   int      `yaml:"rate_limit_buffer"`
	MaxRetries        int      `yaml:"max_retries"`
}

// RelevanceConfig holds the keyword-match policy lists.
type RelevanceConfig struct {
	Strong           []string `yaml:"strong_keywords"`
	Weak             []string `yaml:"weak_keywords"`
	Exclude          []string `yaml:"exclude_keywords"`
	ExcludeNameTerms []string `yaml:"exclude_name_terms"`
}

// WeightsConfig holds the ordered weight detection tables. Priority lists
// category names in match order; "extension" selects the model extension
// rule rather than a regexp list.
type WeightsConfig struct {
	Priority        []string `yaml:"priority"`
	Hub             []string `yaml:"hub"`
	Release         []string `yaml:"release"`
	Cloud           []string `yaml:"cloud"`
	ModelExtensions []string `yaml:"model_extensions"`
	WeightKeywords  []string `yaml:"weight_keywords"`
}

// PromisePat is one "coming soon" phrasing.
type PromisePat struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
}

// VenuesConfig holds the ordered venue table and the arXiv id pattern.
type VenuesConfig struct {
	Patterns     []VenuePat `yaml:"patterns"`
	ArxivPattern string     `yaml:"arxiv_pattern"`
}

// VenuePat maps literal keywords to one venue name. Keywords are compiled
// with an optional trailing year capture group.
type VenuePat struct {
	Venue    string   `yaml:"venue"`
	Keywords []string `yaml:"keywords"`
}

// CacheConfig controls the README cache.
type CacheConfig struct {
	Path    string `yaml:"path"`
	TTLDays int    `yaml:"ttl_days"`
}

// Load reads a YAML config file layered over the defaults and applies
// environment overrides. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if v := os.Getenv("WW_MIN_STARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MinStars = n
		}
	}
	if v := os.Getenv("WW_YEAR"); v != "" {
		cfg.Search.YearFilter = v
	}
}

func (c *Config) validate() error {
	if len(c.Search.Queries) == 0 {
		return fmt.Errorf("config must define at least one search query")
	}
	if c.Search.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	// Compiling the tables is the real validation; a malformed pattern
	// aborts the run before any persisted state is touched.
	if _, err := c.Tables(); err != nil {
		return err
	}
	return nil
}
