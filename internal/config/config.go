package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// GitHub API access
	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`

	// Fetch behavior (pagination, concurrency, timeouts)
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`

	// Report shaping
	Report ReportConfig `mapstructure:"report" yaml:"report"`
}

type GitHubConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`     // Override for GitHub Enterprise / tests
}

type FetchConfig struct {
	Workers        int           `mapstructure:"workers" yaml:"workers"`                 // Detail-fetch worker pool size
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Single-resource lookups
	TreeTimeout    time.Duration `mapstructure:"tree_timeout" yaml:"tree_timeout"`       // Bulk tree/listing calls
	MaxBranches    int           `mapstructure:"max_branches" yaml:"max_branches"`       // 0 = unlimited
	MaxPatchBytes  int           `mapstructure:"max_patch_bytes" yaml:"max_patch_bytes"` // Per-file patch text cap
	PullWindow     time.Duration `mapstructure:"pull_window" yaml:"pull_window"`         // Recency window for merged PRs
}

type ReportConfig struct {
	RecentCommits int `mapstructure:"recent_commits" yaml:"recent_commits"` // Size of the most-recent list
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Fetch: FetchConfig{
			Workers:        8,
			RequestTimeout: 30 * time.Second,
			TreeTimeout:    60 * time.Second,
			MaxPatchBytes:  16 * 1024,
			PullWindow:     30 * 24 * time.Hour,
		},
		Report: ReportConfig{
			RecentCommits: 20,
		},
	}
}

// Load loads configuration from an optional YAML file, with environment
// variables (and a .env file, if present) taking precedence for secrets.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("fetch", cfg.Fetch)
	v.SetDefault("report", cfg.Report)

	v.SetEnvPrefix("GITPULSE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".gitpulse")
		v.AddConfigPath(".")
		// Missing default config is fine; defaults apply.
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Secrets come from the environment, never the config file.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}

	return cfg, cfg.Validate()
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.GitHub.RateLimit <= 0 {
		return fmt.Errorf("github.rate_limit must be positive, got %d", c.GitHub.RateLimit)
	}
	if c.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch.workers must be positive, got %d", c.Fetch.Workers)
	}
	if c.Fetch.RequestTimeout <= 0 || c.Fetch.TreeTimeout <= 0 {
		return fmt.Errorf("fetch timeouts must be positive")
	}
	if c.Report.RecentCommits < 0 {
		return fmt.Errorf("report.recent_commits must not be negative")
	}
	return nil
}
