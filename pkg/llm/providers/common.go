// Package providers contains response parsers for concrete LLM provider APIs.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/tidwall/gjson"
)

// parseRoot validates raw and returns the top-level object.
func parseRoot(parser string, raw []byte) (gjson.Result, error) {
	if !llm.ValidJSON(raw) {
		err := llm.InvalidJSON(nil)
		err.Parser = parser
		return gjson.Result{}, err
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return gjson.Result{}, llm.Structural(parser, "response is not a JSON object")
	}
	return root, nil
}

// requireString returns the string at key inside obj.
// field is the full path reported when the value is absent or not a string.
func requireString(parser string, obj gjson.Result, key, field string) (string, error) {
	v := obj.Get(key)
	if v.Type != gjson.String {
		return "", missingField(parser, field)
	}
	return v.String(), nil
}

func missingField(parser, field string) *llm.ParseError {
	err := llm.MissingField(field)
	err.Parser = parser
	return err
}

// rawJSON copies a gjson value's raw text so the frame does not alias the input.
func rawJSON(v gjson.Result) json.RawMessage {
	if !v.Exists() {
		return nil
	}
	return json.RawMessage(v.Raw)
}

// finish validates the frame. Empty required values are reported as
// missing fields.
func finish(parser string, frame *normalized.ContentFrame) (*normalized.ContentFrame, error) {
	if err := frame.Validate(); err != nil {
		var verr *normalized.ValidationError
		if errors.As(err, &verr) {
			return nil, missingField(parser, verr.Field)
		}
		return nil, fmt.Errorf("%s parser: %w", parser, err)
	}
	return frame, nil
}

func copyModels(models []string, defaults []string) []string {
	if len(models) == 0 {
		models = defaults
	}
	out := make([]string, len(models))
	copy(out, models)
	return out
}

func structural(parser, format string, args ...interface{}) *llm.ParseError {
	return llm.Structural(parser, format, args...)
}
