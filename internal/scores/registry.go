package scores

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all upstream score sources.
type Registry struct {
	Default string         `yaml:"default"`
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Default: 10
	UserAgent      string `yaml:"user_agent,omitempty"`
	UseColly       bool   `yaml:"use_colly,omitempty"`
}

// SourceConfig defines a single upstream score source.
type SourceConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Strategy Strategy `yaml:"strategy"` // "html" or "api"
	BaseURL  string   `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the upstream API key.
	// The key itself never lives in the registry file.
	APIKeyEnv string      `yaml:"api_key_env,omitempty"`
	Active    bool        `yaml:"active"`
	Fetch     FetchConfig `yaml:"fetch,omitempty"`
}

// APIKey resolves the configured key from the environment.
func (c SourceConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// LoadRegistry reads the embedded source registry. CRICFEED_SOURCE overrides
// the default source id so deployments can flip strategies without a rebuild.
func LoadRegistry() (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded sources.yaml: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse sources.yaml: %w", err)
	}

	if override := os.Getenv("CRICFEED_SOURCE"); override != "" {
		reg.Default = override
	}

	return &reg, nil
}

// Source returns the config with the given id.
func (r *Registry) Source(id string) (SourceConfig, bool) {
	for _, s := range r.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// DefaultSource returns the config selected by the registry's default id.
func (r *Registry) DefaultSource() (SourceConfig, error) {
	cfg, ok := r.Source(r.Default)
	if !ok {
		return SourceConfig{}, fmt.Errorf("default source %q is not defined in sources.yaml", r.Default)
	}
	if !cfg.Active {
		return SourceConfig{}, fmt.Errorf("default source %q is not active", r.Default)
	}
	return cfg, nil
}

// Build constructs the ScoreSource for a config.
func Build(cfg SourceConfig) (ScoreSource, error) {
	var fetcher Fetcher
	if cfg.Fetch.UseColly {
		fetcher = NewCollyFetcher(cfg.Fetch)
	} else {
		fetcher = NewHTTPFetcher(cfg.Fetch)
	}

	switch cfg.Strategy {
	case StrategyHTML:
		return NewPrepScoresSource(cfg, fetcher), nil
	case StrategyAPI:
		return NewMatchAPISource(cfg, fetcher), nil
	default:
		return nil, fmt.Errorf("unknown source strategy %q", cfg.Strategy)
	}
}
