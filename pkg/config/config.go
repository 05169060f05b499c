// Package config holds the adaptogen CLI configuration.
package config

import "time"

// Config is the top-level configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Parsers ParsersConfig `yaml:"parsers"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	// Level is a logrus level name.
	Level string `yaml:"level"`
}

// InputConfig controls how responses are read.
type InputConfig struct {
	// JSONL reads one response per line instead of one per input.
	JSONL bool `yaml:"jsonl"`
	// MaxResponseSize bounds a single response in bytes.
	MaxResponseSize int `yaml:"max_response_size"`
	// Dedup drops identical responses seen within DedupTTL.
	Dedup    bool          `yaml:"dedup"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type OutputConfig struct {
	// Format is "console" or "jsonl".
	Format string `yaml:"format"`
	// File additionally receives JSONL records when set.
	File string `yaml:"file"`
	// ShowRaw prints the payload of failed responses in console format.
	ShowRaw bool `yaml:"show_raw"`
}

// ParsersConfig selects the provider parsers and the model identifiers
// each one serves.
type ParsersConfig struct {
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`
}

type ProviderConfig struct {
	Enabled bool `yaml:"enabled"`
	// Models replaces the parser's default identifiers when non-empty.
	Models []string `yaml:"models"`
	// ExtraModels are served in addition to Models or the defaults.
	ExtraModels []string `yaml:"extra_models"`
}

type MetricsConfig struct {
	// Addr enables the Prometheus /metrics endpoint when set, e.g. ":9090".
	Addr string `yaml:"addr"`
}

const (
	FormatConsole = "console"
	FormatJSONL   = "jsonl"
)

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
		},
		Input: InputConfig{
			MaxResponseSize: 16 * 1024 * 1024,
			DedupTTL:        5 * time.Minute,
		},
		Output: OutputConfig{
			Format: FormatConsole,
		},
		Parsers: ParsersConfig{
			Anthropic: ProviderConfig{Enabled: true},
			OpenAI:    ProviderConfig{Enabled: true},
		},
	}
}
