package config

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/mods-enricher/internal/fetch"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

const (
	EnvRetryDelay  = "MODS_ENRICHER_RETRY_DELAY"
	EnvMaxAttempts = "MODS_ENRICHER_MAX_ATTEMPTS"
	EnvHTTPTimeout = "MODS_ENRICHER_HTTP_TIMEOUT"
	EnvCache       = "MODS_ENRICHER_CACHE"

	defaultUserAgent = "mods-enricher/0.1"
)

// Config holds run settings. Zero values in a YAML file leave the defaults
// in place.
type Config struct {
	Retry        Retry                         `yaml:"retry"`
	HTTPTimeout  time.Duration                 `yaml:"http_timeout"`
	UserAgent    string                        `yaml:"user_agent"`
	Cache        string                        `yaml:"cache"`
	Concurrency  int                           `yaml:"concurrency"`
	Vocabularies map[string]VocabularyOverride `yaml:"vocabularies"`
}

// Retry mirrors fetch.RetryPolicy
type Retry struct {
	Delay       time.Duration `yaml:"delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// VocabularyOverride changes endpoints of a built-in vocabulary or adds
// dictionary entries to it
type VocabularyOverride struct {
	QueryURL     string            `yaml:"query_url"`
	BasePath     string            `yaml:"base_path"`
	AuthorityURI string            `yaml:"authority_uri"`
	RecordBase   string            `yaml:"record_base"`
	Dictionary   map[string]string `yaml:"dictionary"`
}

// Default returns the settings the tool runs with when nothing is configured
func Default() Config {
	p := fetch.DefaultRetryPolicy()
	return Config{
		Retry:       Retry{Delay: p.Delay, MaxAttempts: p.MaxAttempts},
		HTTPTimeout: 60 * time.Second,
		UserAgent:   defaultUserAgent,
		Concurrency: 1,
	}
}

// Load applies the YAML file at path (if any) and then environment
// overrides on top of the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvRetryDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRetryDelay, err)
		}
		c.Retry.Delay = d
	}
	if v := os.Getenv(EnvMaxAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxAttempts, err)
		}
		c.Retry.MaxAttempts = n
	}
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHTTPTimeout, err)
		}
		c.HTTPTimeout = d
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.Cache = v
	}
	return nil
}

// Validate rejects settings that cannot be run
func (c Config) Validate() error {
	if c.Retry.Delay < 0 {
		return fmt.Errorf("retry delay must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative (0 retries until answered)")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	for name := range c.Vocabularies {
		if _, err := vocabulary.ParseDomain(name); err != nil {
			return err
		}
	}
	return nil
}

// Registry builds the vocabularies with overrides applied
func (c Config) Registry() (*vocabulary.Registry, error) {
	defs := vocabulary.Defaults()
	for i := range defs {
		o, ok := c.Vocabularies[string(defs[i].Domain)]
		if !ok {
			continue
		}
		if o.QueryURL != "" {
			defs[i].QueryURL = o.QueryURL
		}
		if o.BasePath != "" {
			defs[i].BasePath = o.BasePath
		}
		if o.AuthorityURI != "" {
			defs[i].AuthorityURI = o.AuthorityURI
		}
		if o.RecordBase != "" {
			defs[i].RecordBase = o.RecordBase
		}
		if len(o.Dictionary) > 0 {
			merged := make(map[string]string, len(defs[i].Dictionary)+len(o.Dictionary))
			for k, v := range defs[i].Dictionary {
				merged[k] = v
			}
			for k, v := range o.Dictionary {
				merged[k] = v
			}
			defs[i].Dictionary = merged
		}
	}

	reg, err := vocabulary.NewRegistry(defs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build vocabularies: %w", err)
	}
	return reg, nil
}

// FetchOptions configures a fetcher from the settings. The name vocabulary's
// query host is treated as the name authority.
func (c Config) FetchOptions(reg *vocabulary.Registry) []fetch.Option {
	opts := []fetch.Option{
		fetch.WithHTTPClient(&http.Client{Timeout: c.HTTPTimeout}),
		fetch.WithRetryPolicy(fetch.RetryPolicy{Delay: c.Retry.Delay, MaxAttempts: c.Retry.MaxAttempts}),
		fetch.WithUserAgent(c.UserAgent),
	}
	if v, ok := reg.Get(vocabulary.Name); ok {
		if u, err := url.Parse(v.QueryURL()); err == nil && u.Host != "" {
			opts = append(opts, fetch.WithNameAuthorityHosts(u.Host))
		}
	}
	return opts
}
