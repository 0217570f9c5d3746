package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/iparuby/internal/annotate"
	"github.com/dgallion1/iparuby/internal/cache"
	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/dictionary"
	"github.com/dgallion1/iparuby/internal/lookup"
)

// Setup holds the long-lived collaborators built from configuration and
// shared by every engine.
type Setup struct {
	Deps
	Lookups *lookup.Fetcher
	Store   cache.Store

	closers []func()
}

// NewSetup opens the phrase cache, the lookup provider and the rules file
// selected by cfg.
func NewSetup(cfg config.Config, log *slog.Logger) (*Setup, error) {
	rules, err := RulesFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := dictionary.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := cache.FromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	fetcher := lookup.NewFetcher(provider,
		lookup.WithStats(lookup.NewStats(time.Hour)),
		lookup.WithLogger(log.With("component", "lookup")))

	s := &Setup{
		Deps:    Deps{Fetcher: fetcher, Cache: store, Rules: &rules},
		Lookups: fetcher,
		Store:   store,
		closers: []func(){func() { store.Close() }},
	}
	if c, ok := provider.(interface{ Close() }); ok {
		s.closers = append(s.closers, c.Close)
	}
	return s, nil
}

// Close releases the cache and provider connections.
func (s *Setup) Close() {
	for _, c := range s.closers {
		c()
	}
}

// RulesFromConfig loads RULES_FILE over the defaults and applies HEIGHT_RULE.
func RulesFromConfig(cfg config.Config) (annotate.Rules, error) {
	rules := annotate.DefaultRules()
	if cfg.RulesFile != "" {
		r, err := annotate.LoadRules(cfg.RulesFile)
		if err != nil {
			return annotate.Rules{}, err
		}
		rules = r
	}
	if cfg.HeightRule != "" {
		rules.HeightRule = annotate.HeightRule(cfg.HeightRule)
	}
	return rules, rules.Validate()
}
