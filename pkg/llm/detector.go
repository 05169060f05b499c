package llm

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ExtractModel returns the "model" field of a raw response.
// Fails with ErrKindInvalidJSON when raw is not valid JSON and with
// ErrKindMissingField when the field is absent or not a string.
func ExtractModel(raw []byte) (string, error) {
	if !ValidJSON(raw) {
		return "", InvalidJSON(nil)
	}

	model := gjson.GetBytes(raw, "model")
	if model.Type != gjson.String {
		return "", MissingField("model")
	}

	return model.String(), nil
}

// ValidJSON reports whether raw is a single valid JSON value nested at most
// 10000 levels deep. It must pass before raw is handed to gjson, whose
// validator recurses per nesting level and can exhaust the stack.
func ValidJSON(raw []byte) bool {
	return json.Valid(raw)
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
