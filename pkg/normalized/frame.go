// Package normalized defines the provider-independent representation of an
// LLM response: a ContentFrame holding an ordered list of ContentBlocks.
package normalized

import (
	"encoding/json"
	"strings"
)

// BlockType is the discriminator of a ContentBlock variant.
type BlockType string

const (
	BlockTypeText       BlockType = "text"
	BlockTypeToolUse    BlockType = "tool_use"
	BlockTypeToolResult BlockType = "tool_result"
	BlockTypeThinking   BlockType = "thinking"
)

// ContentFrame is the normalized result of parsing one raw response.
// Blocks keep the order in which the provider generated them.
type ContentFrame struct {
	ID     string         `json:"id"`
	Model  string         `json:"model"`
	Blocks []ContentBlock `json:"blocks"`
}

// ContentBlock is one unit of content within a frame. The set of
// implementations is closed: TextBlock, ToolUseBlock, ToolResultBlock and
// ThinkingBlock.
type ContentBlock interface {
	Type() BlockType
	contentBlock()
}

// TextBlock holds literal generated text.
type TextBlock struct {
	Text string
}

func (TextBlock) Type() BlockType { return BlockTypeText }
func (TextBlock) contentBlock()   {}

// ToolUseBlock is a tool invocation requested by the model.
// Input is the provider's argument value, passed through unmodified.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (ToolUseBlock) Type() BlockType { return BlockTypeToolUse }
func (ToolUseBlock) contentBlock()   {}

// ToolResultBlock is the result of executing a prior tool use.
// Content is either a JSON string or a structured JSON value.
type ToolResultBlock struct {
	ToolUseID string
	Content   json.RawMessage
	IsError   bool
}

func (ToolResultBlock) Type() BlockType { return BlockTypeToolResult }
func (ToolResultBlock) contentBlock()   {}

// Text renders the result content as plain text. String content is returned
// as is, an array of {"type":"text"} parts is joined with newlines, and any
// other value is returned as raw JSON.
func (b ToolResultBlock) Text() string {
	if len(b.Content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(b.Content, &s); err == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(b.Content, &parts); err == nil {
		var texts []string
		for _, part := range parts {
			if part.Type == "text" {
				texts = append(texts, part.Text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}

	return string(b.Content)
}

// ThinkingBlock holds internal reasoning surfaced by the provider.
type ThinkingBlock struct {
	Text string
}

func (ThinkingBlock) Type() BlockType { return BlockTypeThinking }
func (ThinkingBlock) contentBlock()   {}

// StringContent encodes s as a JSON string, for use as ToolResultBlock content.
func StringContent(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}
