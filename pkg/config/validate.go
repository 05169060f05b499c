package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Validate checks the configuration for invalid or conflicting values.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if c.Input.MaxResponseSize <= 0 {
		errs = append(errs, fmt.Errorf("input.max_response_size must be positive, got %d", c.Input.MaxResponseSize))
	}
	if c.Input.Dedup && c.Input.DedupTTL <= 0 {
		errs = append(errs, fmt.Errorf("input.dedup_ttl must be positive when dedup is enabled, got %s", c.Input.DedupTTL))
	}

	switch c.Output.Format {
	case FormatConsole, FormatJSONL:
	default:
		errs = append(errs, fmt.Errorf("output.format must be %q or %q, got %q", FormatConsole, FormatJSONL, c.Output.Format))
	}

	if !c.Parsers.Anthropic.Enabled && !c.Parsers.OpenAI.Enabled {
		errs = append(errs, errors.New("parsers: at least one parser must be enabled"))
	}
	errs = append(errs, validateModels("parsers.anthropic", c.Parsers.Anthropic)...)
	errs = append(errs, validateModels("parsers.openai", c.Parsers.OpenAI)...)

	return errors.Join(errs...)
}

func validateModels(path string, pc ProviderConfig) []error {
	var errs []error
	for i, model := range pc.Models {
		if model == "" {
			errs = append(errs, fmt.Errorf("%s.models[%d] is empty", path, i))
		}
	}
	for i, model := range pc.ExtraModels {
		if model == "" {
			errs = append(errs, fmt.Errorf("%s.extra_models[%d] is empty", path, i))
		}
	}
	return errs
}
