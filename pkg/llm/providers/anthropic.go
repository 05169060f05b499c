package providers

import (
	"fmt"
	"strings"

	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/tidwall/gjson"
)

const anthropicName = "anthropic"

// AnthropicContentBlockType represents content block types of the
// Anthropic Messages API.
type AnthropicContentBlockType string

const (
	// Example: {"type":"text","text":"Hello from Claude!"}
	AnthropicContentBlockTypeText AnthropicContentBlockType = "text"

	// Extended thinking. The signature is not carried over.
	//
	// Example: {"type":"thinking","thinking":"Let me work through this...","signature":"EqQBCgIYAhIM..."}
	AnthropicContentBlockTypeThinking AnthropicContentBlockType = "thinking"

	// Thinking flagged by safety systems. Only encrypted data is returned,
	// so it becomes an empty thinking block.
	//
	// Example: {"type":"redacted_thinking","data":"EmwKAhgBEgy3va3pzix/LafPsn4a..."}
	AnthropicContentBlockTypeRedactedThinking AnthropicContentBlockType = "redacted_thinking"

	// Example: {"type":"tool_use","id":"toolu_01A09q90qw90lq917835lq9","name":"get_weather","input":{"location":"San Francisco, CA"}}
	AnthropicContentBlockTypeToolUse AnthropicContentBlockType = "tool_use"

	// Tool executed by Anthropic (web search, code execution).
	//
	// Example: {"type":"server_tool_use","id":"srvtoolu_01WYG3ziw53XMcoyKL4XcZmE","name":"web_search","input":{"query":"claude shannon birth date"}}
	AnthropicContentBlockTypeServerToolUse AnthropicContentBlockType = "server_tool_use"

	// Example: {"type":"tool_result","tool_use_id":"toolu_01A09q90qw90lq917835lq9","content":"15 degrees","is_error":false}
	AnthropicContentBlockTypeToolResult AnthropicContentBlockType = "tool_result"
)

// DefaultAnthropicModels are the identifiers served by AnthropicParser
// when none are configured.
var DefaultAnthropicModels = []string{
	"claude",
	"claude-opus-4-1-20250805",
	"claude-opus-4-20250514",
	"claude-sonnet-4-5-20250929",
	"claude-sonnet-4-20250514",
	"claude-haiku-4-5-20251001",
	"claude-3-7-sonnet-20250219",
	"claude-3-5-haiku-20241022",
}

// AnthropicParser parses Anthropic Messages API responses.
//
// Example: {"id":"msg_01HiWiRka7cogGJfB43zxyci","type":"message","role":"assistant","model":"claude-haiku-4-5-20251001","content":[{"type":"text","text":"Hey"}],"stop_reason":"end_turn"}
type AnthropicParser struct {
	models []string
}

// NewAnthropicParser creates a parser serving models, or
// DefaultAnthropicModels when models is empty.
func NewAnthropicParser(models ...string) *AnthropicParser {
	return &AnthropicParser{
		models: copyModels(models, DefaultAnthropicModels),
	}
}

func (p *AnthropicParser) Name() string { return anthropicName }

func (p *AnthropicParser) SupportedModels() []string {
	return append([]string(nil), p.models...)
}

// Parse converts a Messages API response into a frame. A missing content
// array yields an empty frame; an unknown block type is a structural error.
func (p *AnthropicParser) Parse(raw []byte) (*normalized.ContentFrame, error) {
	resp, err := parseRoot(anthropicName, raw)
	if err != nil {
		return nil, err
	}

	id, err := requireString(anthropicName, resp, "id", "id")
	if err != nil {
		return nil, err
	}
	model, err := requireString(anthropicName, resp, "model", "model")
	if err != nil {
		return nil, err
	}

	frame := &normalized.ContentFrame{
		ID:     id,
		Model:  model,
		Blocks: []normalized.ContentBlock{},
	}

	content := resp.Get("content")
	if content.Exists() && content.Type != gjson.Null {
		if !content.IsArray() {
			return nil, structural(anthropicName, "content is not an array")
		}

		for i, item := range content.Array() {
			block, err := p.parseBlock(item, fmt.Sprintf("content.%d", i))
			if err != nil {
				return nil, err
			}
			frame.Blocks = append(frame.Blocks, block)
		}
	}

	return finish(anthropicName, frame)
}

func (p *AnthropicParser) parseBlock(item gjson.Result, path string) (normalized.ContentBlock, error) {
	if !item.IsObject() {
		return nil, structural(anthropicName, "%s is not an object", path)
	}

	blockType, err := requireString(anthropicName, item, "type", path+".type")
	if err != nil {
		return nil, err
	}

	switch AnthropicContentBlockType(blockType) {
	case AnthropicContentBlockTypeText:
		text, err := requireString(anthropicName, item, "text", path+".text")
		if err != nil {
			return nil, err
		}
		return normalized.TextBlock{Text: text}, nil

	case AnthropicContentBlockTypeThinking:
		thinking, err := requireString(anthropicName, item, "thinking", path+".thinking")
		if err != nil {
			return nil, err
		}
		return normalized.ThinkingBlock{Text: thinking}, nil

	case AnthropicContentBlockTypeRedactedThinking:
		return normalized.ThinkingBlock{}, nil

	case AnthropicContentBlockTypeToolUse, AnthropicContentBlockTypeServerToolUse:
		id, err := requireString(anthropicName, item, "id", path+".id")
		if err != nil {
			return nil, err
		}
		name, err := requireString(anthropicName, item, "name", path+".name")
		if err != nil {
			return nil, err
		}
		input := item.Get("input")
		if !input.Exists() {
			return nil, missingField(anthropicName, path+".input")
		}
		return normalized.ToolUseBlock{ID: id, Name: name, Input: rawJSON(input)}, nil

	case AnthropicContentBlockTypeToolResult:
		toolUseID, err := requireString(anthropicName, item, "tool_use_id", path+".tool_use_id")
		if err != nil {
			return nil, err
		}
		return normalized.ToolResultBlock{
			ToolUseID: toolUseID,
			Content:   rawJSON(item.Get("content")),
			IsError:   item.Get("is_error").Bool(),
		}, nil
	}

	// Server tool results: web_search_tool_result, web_fetch_tool_result,
	// code_execution_tool_result, ...
	if strings.HasSuffix(blockType, "_tool_result") {
		toolUseID, err := requireString(anthropicName, item, "tool_use_id", path+".tool_use_id")
		if err != nil {
			return nil, err
		}
		content := item.Get("content")
		return normalized.ToolResultBlock{
			ToolUseID: toolUseID,
			Content:   rawJSON(content),
			IsError:   strings.HasSuffix(content.Get("type").String(), "_error"),
		}, nil
	}

	return nil, structural(anthropicName, "unknown content block type %q at %s", blockType, path)
}
