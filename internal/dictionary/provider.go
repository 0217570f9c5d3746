package dictionary

import (
	"fmt"

	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/lookup"
)

// FromConfig builds the lookup provider selected by LOOKUP_PROVIDER.
func FromConfig(cfg config.Config) (lookup.Lookup, error) {
	switch cfg.LookupProvider {
	case config.ProviderBing:
		return NewBing(cfg.BingBaseURL, cfg.BingAppID, cfg.BingMarket, cfg.LookupTimeout), nil
	case config.ProviderMetaphone:
		return Metaphone{}, nil
	default:
		return nil, fmt.Errorf("unknown lookup provider %q", cfg.LookupProvider)
	}
}
