package llm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractModel(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		want     string
		wantKind ErrorKind
	}{
		{
			name:    "model present",
			payload: `{"id": "123", "model": "test_model", "content": "test"}`,
			want:    "test_model",
		},
		{
			name:    "model with slashes",
			payload: `{"model": "accounts/fireworks/models/qwen3-30b-a3b"}`,
			want:    "accounts/fireworks/models/qwen3-30b-a3b",
		},
		{
			name:    "empty model string",
			payload: `{"model": ""}`,
			want:    "",
		},
		{
			name:     "model missing",
			payload:  `{"id": "123", "content": "test"}`,
			wantKind: ErrKindMissingField,
		},
		{
			name:     "model is a number",
			payload:  `{"model": 42}`,
			wantKind: ErrKindMissingField,
		},
		{
			name:     "model is null",
			payload:  `{"model": null}`,
			wantKind: ErrKindMissingField,
		},
		{
			name:     "nested model only",
			payload:  `{"message": {"model": "claude"}}`,
			wantKind: ErrKindMissingField,
		},
		{
			name:     "top-level array",
			payload:  `[{"model": "claude"}]`,
			wantKind: ErrKindMissingField,
		},
		{
			name:     "not json",
			payload:  `not json`,
			wantKind: ErrKindInvalidJSON,
		},
		{
			name:     "truncated json",
			payload:  `{"model": "claude"`,
			wantKind: ErrKindInvalidJSON,
		},
		{
			name:     "empty payload",
			payload:  ``,
			wantKind: ErrKindInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractModel([]byte(tt.payload))

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractModel_MissingFieldName(t *testing.T) {
	_, err := ExtractModel([]byte(`{"id":"x"}`))

	perr, ok := AsParseError(err)
	require.True(t, ok)
	assert.Equal(t, "model", perr.Field)
	assert.Equal(t, "missing field: model", perr.Error())
}

func TestExtractModel_DeepNesting(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"16MiB of open brackets", bytes.Repeat([]byte("["), 16<<20)},
		{"nesting past the limit", append(append([]byte(`{"model":"claude","x":`), bytes.Repeat([]byte("["), 10001)...), bytes.Repeat([]byte("]"), 10001)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractModel(tt.payload)

			require.Error(t, err)
			assert.Equal(t, ErrKindInvalidJSON, KindOf(err))
		})
	}
}

func TestValidJSON(t *testing.T) {
	assert.True(t, ValidJSON([]byte(`{"model": "claude"}`)))
	assert.True(t, ValidJSON(append(append([]byte{}, bytes.Repeat([]byte("["), 100)...), bytes.Repeat([]byte("]"), 100)...)))
	assert.False(t, ValidJSON([]byte(`{"model": `)))
	assert.False(t, ValidJSON(nil))
}
