package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alex-ilgayev/adaptogen/pkg/config"
	"github.com/alex-ilgayev/adaptogen/pkg/ingest"
	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	claudeLine = `{"id": "msg_1", "model": "claude", "content": [{"type": "text", "text": "Hello from Claude!"}]}`
	qwenLine   = `{"id": "chatcmpl-1", "model": "qwen", "choices": [{"message": {"content": "<think>hm</think>Hello from Qwen!"}}]}`
	llamaLine  = `{"id": "x", "model": "llama-3", "choices": []}`
)

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "responses.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ADAPTOGEN_CONFIG", "")

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRun_JSONL(t *testing.T) {
	input := writeInput(t, claudeLine, qwenLine)

	out, err := execute(t, "--jsonl", "--format", "jsonl", "--log-level", "error", input)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"event":"frame"`)
	assert.Contains(t, lines[0], `"id":"msg_1"`)
	assert.Contains(t, lines[1], `"id":"chatcmpl-1"`)
	assert.Contains(t, lines[1], `{"type":"thinking","thinking":"hm"}`)
}

func TestRun_FailuresSetExitStatus(t *testing.T) {
	input := writeInput(t, claudeLine, llamaLine, qwenLine)

	out, err := execute(t, "-j", "-f", "jsonl", "-l", "error", input)
	require.Error(t, err)
	assert.Equal(t, "1 of 3 responses failed to parse", err.Error())

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"event":"parse_failure"`)
	assert.Contains(t, lines[1], `"kind":"unsupported_model"`)
}

func TestRun_Console(t *testing.T) {
	input := writeInput(t, claudeLine, llamaLine)

	out, err := execute(t, "-j", "-l", "error", "--raw", input)
	require.Error(t, err)

	assert.Contains(t, out, "adaptogen")
	assert.Contains(t, out, "responses.jsonl:1")
	assert.Contains(t, out, "Hello from Claude!")
	assert.Contains(t, out, "[unsupported_model] unsupported model: llama-3")
	assert.Contains(t, out, "┌────")
	assert.Contains(t, out, "Statistics:")
}

func TestRun_OutputFileAndDedup(t *testing.T) {
	input := writeInput(t, claudeLine, claudeLine, qwenLine)
	outputFile := filepath.Join(t.TempDir(), "frames.jsonl")

	_, err := execute(t, "-j", "-l", "error", "--dedup", "-o", outputFile, input)
	require.NoError(t, err)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}

func TestRun_JSONLToStdoutAndFile(t *testing.T) {
	input := writeInput(t, claudeLine, llamaLine, qwenLine)
	outputFile := filepath.Join(t.TempDir(), "frames.jsonl")

	out, err := execute(t, "-j", "-f", "jsonl", "-l", "error", "-o", outputFile, input)
	require.Error(t, err)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestRun_DeeplyNestedResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.json")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("["), 1<<20), 0o644))

	out, err := execute(t, "-f", "jsonl", "-l", "error", path)
	require.Error(t, err)
	assert.Equal(t, "1 of 1 responses failed to parse", err.Error())
	assert.Contains(t, out, `"kind":"invalid_json"`)
}

func TestExitError(t *testing.T) {
	tests := []struct {
		name        string
		stats       ingest.Stats
		readErrors  int
		writeErrors int
		want        string
	}{
		{name: "clean run", stats: ingest.Stats{Parsed: 3}},
		{name: "parse failures", stats: ingest.Stats{Parsed: 2, Failed: 1}, want: "1 of 3 responses failed to parse"},
		{name: "read errors", readErrors: 2, want: "2 inputs could not be read"},
		{name: "write errors", stats: ingest.Stats{Parsed: 1}, writeErrors: 1, want: "1 records could not be written"},
		{
			name:        "everything",
			stats:       ingest.Stats{Parsed: 1, Failed: 1},
			readErrors:  1,
			writeErrors: 1,
			want:        "1 inputs could not be read; 1 of 2 responses failed to parse; 1 records could not be written",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exitError(tt.stats, tt.readErrors, tt.writeErrors)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestRun_DocumentMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"id\": \"msg_1\",\n  \"model\": \"claude\",\n  \"content\": []\n}\n"), 0o644))

	out, err := execute(t, "-f", "jsonl", "-l", "error", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"blocks":[]`)
}

func TestRun_MissingInput(t *testing.T) {
	_, err := execute(t, "-l", "error", filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.Equal(t, "1 inputs could not be read", err.Error())
}

func TestRun_InvalidFlags(t *testing.T) {
	_, err := execute(t, "-f", "xml", writeInput(t, claudeLine))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")

	_, err = execute(t, "-l", "loud", writeInput(t, claudeLine))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestModelsCommand(t *testing.T) {
	out, err := execute(t, "models", "-l", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "MODEL")
	assert.Contains(t, out, "claude-sonnet-4-20250514")
	assert.Contains(t, out, "accounts/fireworks/models/qwen3-30b-a3b")
	assert.Contains(t, out, "anthropic")
	assert.Contains(t, out, "openai")
}

func TestNewRegistry(t *testing.T) {
	cfg := config.Defaults().Parsers
	cfg.OpenAI.Models = []string{"qwen"}
	cfg.OpenAI.ExtraModels = []string{"claude"}

	registry := newRegistry(cfg)

	p, ok := registry.Lookup("qwen")
	require.True(t, ok)
	assert.Equal(t, "openai", llm.ParserName(p))

	// Registered later, the OpenAI-compatible parser takes over "claude".
	p, ok = registry.Lookup("claude")
	require.True(t, ok)
	assert.Equal(t, "openai", llm.ParserName(p))

	_, ok = registry.Lookup("deepseek-chat")
	assert.False(t, ok)

	cfg.Anthropic.Enabled = false
	_, ok = newRegistry(cfg).Lookup("claude-opus-4-20250514")
	assert.False(t, ok)
}

func TestProviderModels(t *testing.T) {
	defaults := providers.DefaultOpenAIModels

	assert.Equal(t, defaults, providerModels(config.ProviderConfig{}, defaults))
	assert.Equal(t, []string{"a", "b"}, providerModels(config.ProviderConfig{Models: []string{"a"}, ExtraModels: []string{"b"}}, defaults))

	withExtra := providerModels(config.ProviderConfig{ExtraModels: []string{"z"}}, defaults)
	assert.Len(t, withExtra, len(defaults)+1)
	assert.Equal(t, "z", withExtra[len(withExtra)-1])
}
