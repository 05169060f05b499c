package normalized

import "fmt"

// ValidationError reports the first field of a frame that violates the
// normalized shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid frame: %s %s", e.Field, e.Reason)
}

// Validate checks that the frame is fully populated. Parsers call it before
// handing a frame out; nothing downstream repairs a frame.
func (f *ContentFrame) Validate() error {
	if f.ID == "" {
		return &ValidationError{Field: "id", Reason: "is empty"}
	}
	if f.Model == "" {
		return &ValidationError{Field: "model", Reason: "is empty"}
	}

	for i, block := range f.Blocks {
		field := func(name string) string {
			return fmt.Sprintf("blocks.%d.%s", i, name)
		}

		switch b := block.(type) {
		case nil:
			return &ValidationError{Field: fmt.Sprintf("blocks.%d", i), Reason: "is nil"}
		case ToolUseBlock:
			if b.ID == "" {
				return &ValidationError{Field: field("id"), Reason: "is empty"}
			}
			if b.Name == "" {
				return &ValidationError{Field: field("name"), Reason: "is empty"}
			}
		case ToolResultBlock:
			if b.ToolUseID == "" {
				return &ValidationError{Field: field("tool_use_id"), Reason: "is empty"}
			}
		}
	}

	return nil
}
