package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lehigh-university-libraries/mods-enricher/internal/authority"
	"github.com/lehigh-university-libraries/mods-enricher/internal/config"
	"github.com/lehigh-university-libraries/mods-enricher/internal/fetch"
	"github.com/lehigh-university-libraries/mods-enricher/internal/storage"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

// stack is everything a command needs to resolve terms
type stack struct {
	cfg      config.Config
	registry *vocabulary.Registry
	resolver *authority.Resolver
	metrics  *prometheus.Registry
	closer   io.Closer
}

func (s *stack) Close() error {
	return s.closer.Close()
}

// buildStack loads configuration, lets the caller apply flag overrides and
// wires fetcher, cache and resolver together
func buildStack(configPath string, override func(*config.Config)) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	fetchMetrics, err := fetch.NewMetrics(promReg)
	if err != nil {
		return nil, fmt.Errorf("failed to register fetch metrics: %w", err)
	}
	resolverMetrics, err := authority.NewMetrics(promReg)
	if err != nil {
		return nil, fmt.Errorf("failed to register resolver metrics: %w", err)
	}

	cache, closer, err := storage.Open(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	fetcher := fetch.New(append(cfg.FetchOptions(reg), fetch.WithMetrics(fetchMetrics))...)
	opts := []authority.Option{authority.WithMetrics(resolverMetrics)}
	if cache != nil {
		opts = append(opts, authority.WithCache(cache))
	}

	policy := fetcher.Policy()
	slog.Debug("Resolver ready",
		"vocabularies", len(reg.Domains()),
		"retry_delay", policy.Delay,
		"max_attempts", policy.MaxAttempts,
		"cache", cfg.Cache,
	)

	return &stack{
		cfg:      cfg,
		registry: reg,
		resolver: authority.New(reg, fetcher, opts...),
		metrics:  promReg,
		closer:   closer,
	}, nil
}
