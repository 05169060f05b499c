package main

import (
	"github.com/alex-ilgayev/adaptogen/pkg/config"
	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/llm/providers"
)

// newRegistry registers the enabled provider parsers. Anthropic is
// registered first, so an identifier configured for both is served by
// the OpenAI-compatible parser.
func newRegistry(cfg config.ParsersConfig, opts ...llm.RegistryOption) *llm.Registry {
	registry := llm.NewRegistry(opts...)

	if cfg.Anthropic.Enabled {
		registry.Register(providers.NewAnthropicParser(providerModels(cfg.Anthropic, providers.DefaultAnthropicModels)...))
	}
	if cfg.OpenAI.Enabled {
		registry.Register(providers.NewOpenAIParser(providerModels(cfg.OpenAI, providers.DefaultOpenAIModels)...))
	}

	return registry
}

// providerModels returns the configured models, or defaults when none are
// configured, followed by the extra models.
func providerModels(pc config.ProviderConfig, defaults []string) []string {
	base := pc.Models
	if len(base) == 0 {
		base = defaults
	}

	models := make([]string, 0, len(base)+len(pc.ExtraModels))
	models = append(models, base...)
	models = append(models, pc.ExtraModels...)
	return models
}
