package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, ADAPTOGEN_CONFIG env, ./adaptogen.yaml)
//  3. ADAPTOGEN_* environment variables
//  4. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile returns the explicit path, then ADAPTOGEN_CONFIG,
// then ./adaptogen.yaml if it exists. Returns empty string if none applies.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("ADAPTOGEN_CONFIG"); envPath != "" {
		return envPath
	}

	if _, err := os.Stat("adaptogen.yaml"); err == nil {
		return "adaptogen.yaml"
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
// Unknown keys are rejected. An empty file is not an error.
func loadYAMLFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnvOverrides maps ADAPTOGEN_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ADAPTOGEN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ADAPTOGEN_JSONL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ADAPTOGEN_JSONL: %w", err)
		}
		cfg.Input.JSONL = b
	}
	if v := os.Getenv("ADAPTOGEN_DEDUP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ADAPTOGEN_DEDUP: %w", err)
		}
		cfg.Input.Dedup = b
	}
	if v := os.Getenv("ADAPTOGEN_DEDUP_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ADAPTOGEN_DEDUP_TTL: %w", err)
		}
		cfg.Input.DedupTTL = d
	}
	if v := os.Getenv("ADAPTOGEN_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("ADAPTOGEN_OUTPUT_FILE"); v != "" {
		cfg.Output.File = v
	}
	if v := os.Getenv("ADAPTOGEN_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	// Comma-separated identifiers served in addition to the defaults.
	if v := os.Getenv("ADAPTOGEN_ANTHROPIC_MODELS"); v != "" {
		cfg.Parsers.Anthropic.ExtraModels = append(cfg.Parsers.Anthropic.ExtraModels, splitList(v)...)
	}
	if v := os.Getenv("ADAPTOGEN_OPENAI_MODELS"); v != "" {
		cfg.Parsers.OpenAI.ExtraModels = append(cfg.Parsers.OpenAI.ExtraModels, splitList(v)...)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
