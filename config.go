package bookmarker

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config holds the per collection paging policy. It is usually loaded from
// the service configuration:
//
//	paging:
//	  default_limit: 20
//	  max_limit: 200
//	  lookahead: true
type Config struct {
	// DefaultLimit is used when a request asks for no or a non-positive limit.
	DefaultLimit int `mapstructure:"default_limit" json:"defaultLimit"`
	// MaxLimit caps the requested limit.
	MaxLimit int `mapstructure:"max_limit" json:"maxLimit"`
	// Lookahead makes pagers fetch one extra row to detect the last page.
	Lookahead bool `mapstructure:"lookahead" json:"lookahead"`
	// NullsFirst sorts nulls before every value in both directions.
	NullsFirst bool `mapstructure:"nulls_first" json:"nullsFirst"`
	// StrictValidation type-checks coalesce and association positions too.
	StrictValidation bool `mapstructure:"strict_validation" json:"strictValidation"`
}

func DefaultConfig() Config {
	return Config{
		DefaultLimit: DefaultLimit,
		MaxLimit:     MaxLimit,
	}
}

// DecodeConfig reads a Config from a generic map (viper sub-tree, parsed
// YAML or JSON). Missing keys keep their DefaultConfig values.
func DecodeConfig(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("cannot build config decoder: %w", err)
	}

	if err = decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("cannot decode paging config: %w", err)
	}

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// NormalizeLimit applies the config limits to a requested limit.
func (c Config) NormalizeLimit(limit int) int {
	ret, _ := c.IsNormalizedLimit(limit)
	return ret
}

// IsNormalizedLimit is NormalizeLimit that also reports whether limit was
// kept as is.
func (c Config) IsNormalizedLimit(limit int) (int, bool) {
	return IsNormalizedLimitWith(limit, c.DefaultLimit, c.MaxLimit)
}

func (c Config) validate() error {
	if c.MaxLimit <= 0 {
		return fmt.Errorf("max_limit must be positive, got %d", c.MaxLimit)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}

	return nil
}
