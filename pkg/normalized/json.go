package normalized

import (
	"encoding/json"
	"fmt"
)

// Wire shapes. Every block is encoded as an object tagged with "type".
type (
	textJSON struct {
		Type BlockType `json:"type"`
		Text string    `json:"text"`
	}

	toolUseJSON struct {
		Type  BlockType       `json:"type"`
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	}

	toolResultJSON struct {
		Type      BlockType       `json:"type"`
		ToolUseID string          `json:"tool_use_id"`
		Content   json.RawMessage `json:"content"`
		IsError   bool            `json:"is_error"`
	}

	thinkingJSON struct {
		Type     BlockType `json:"type"`
		Thinking string    `json:"thinking"`
	}
)

func (b TextBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(textJSON{Type: BlockTypeText, Text: b.Text})
}

func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolUseJSON{
		Type:  BlockTypeToolUse,
		ID:    b.ID,
		Name:  b.Name,
		Input: nullIfEmpty(b.Input),
	})
}

func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(toolResultJSON{
		Type:      BlockTypeToolResult,
		ToolUseID: b.ToolUseID,
		Content:   nullIfEmpty(b.Content),
		IsError:   b.IsError,
	})
}

func (b ThinkingBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(thinkingJSON{Type: BlockTypeThinking, Thinking: b.Text})
}

// UnmarshalJSON decodes a frame previously encoded with json.Marshal.
// Unknown block types are rejected.
func (f *ContentFrame) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     string            `json:"id"`
		Model  string            `json:"model"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	blocks := make([]ContentBlock, 0, len(raw.Blocks))
	for i, rawBlock := range raw.Blocks {
		block, err := DecodeBlock(rawBlock)
		if err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}

	f.ID = raw.ID
	f.Model = raw.Model
	f.Blocks = blocks
	return nil
}

// DecodeBlock decodes a single type-tagged block.
func DecodeBlock(data []byte) (ContentBlock, error) {
	var typeCheck struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &typeCheck); err != nil {
		return nil, err
	}

	switch typeCheck.Type {
	case BlockTypeText:
		var b textJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return TextBlock{Text: b.Text}, nil
	case BlockTypeToolUse:
		var b toolUseJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return ToolUseBlock{ID: b.ID, Name: b.Name, Input: b.Input}, nil
	case BlockTypeToolResult:
		var b toolResultJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return ToolResultBlock{ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError}, nil
	case BlockTypeThinking:
		var b thinkingJSON
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return ThinkingBlock{Text: b.Thinking}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", typeCheck.Type)
	}
}

func nullIfEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
