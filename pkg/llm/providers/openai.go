package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/tidwall/gjson"
)

const (
	openAIName = "openai"

	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
)

// DefaultOpenAIModels are the identifiers served by OpenAIParser when none
// are configured. Any backend speaking the chat-completions format (Qwen,
// DeepSeek, Fireworks, vLLM) can be added through configuration.
var DefaultOpenAIModels = []string{
	"qwen",
	"accounts/fireworks/models/qwen3-30b-a3b",
	"qwen-plus",
	"qwen-max",
	"qwen3-235b-a22b",
	"deepseek-chat",
	"deepseek-reasoner",
	"gpt-4o",
	"gpt-4o-mini",
}

// OpenAIParser parses OpenAI-compatible chat completion responses.
// Only the first choice is normalized.
//
// Reasoning is taken from message.reasoning_content (DeepSeek, DashScope),
// message.reasoning (vLLM, OpenRouter) or a leading <think>...</think>
// section of message.content (Qwen3, DeepSeek-R1 distills).
//
// Example: {"id":"chatcmpl-123","object":"chat.completion","model":"qwen","choices":[{"index":0,"message":{"role":"assistant","content":"Hello!"},"finish_reason":"stop"}]}
type OpenAIParser struct {
	models []string
}

// NewOpenAIParser creates a parser serving models, or DefaultOpenAIModels
// when models is empty.
func NewOpenAIParser(models ...string) *OpenAIParser {
	return &OpenAIParser{
		models: copyModels(models, DefaultOpenAIModels),
	}
}

func (p *OpenAIParser) Name() string { return openAIName }

func (p *OpenAIParser) SupportedModels() []string {
	return append([]string(nil), p.models...)
}

// Parse converts a chat completion into a frame ordered as thinking, text,
// then tool calls.
func (p *OpenAIParser) Parse(raw []byte) (*normalized.ContentFrame, error) {
	resp, err := parseRoot(openAIName, raw)
	if err != nil {
		return nil, err
	}

	id, err := requireString(openAIName, resp, "id", "id")
	if err != nil {
		return nil, err
	}
	model, err := requireString(openAIName, resp, "model", "model")
	if err != nil {
		return nil, err
	}

	choices := resp.Get("choices")
	if !choices.Exists() {
		return nil, missingField(openAIName, "choices")
	}
	if !choices.IsArray() {
		return nil, structural(openAIName, "choices is not an array")
	}

	frame := &normalized.ContentFrame{
		ID:     id,
		Model:  model,
		Blocks: []normalized.ContentBlock{},
	}

	first := choices.Get("0")
	if !first.Exists() {
		return finish(openAIName, frame)
	}

	message := first.Get("message")
	if !message.IsObject() {
		return nil, missingField(openAIName, "choices.0.message")
	}

	blocks, err := p.parseMessage(message, "choices.0.message")
	if err != nil {
		return nil, err
	}
	frame.Blocks = append(frame.Blocks, blocks...)

	return finish(openAIName, frame)
}

func (p *OpenAIParser) parseMessage(message gjson.Result, path string) ([]normalized.ContentBlock, error) {
	var blocks []normalized.ContentBlock

	for _, key := range []string{"reasoning_content", "reasoning"} {
		if reasoning := strings.TrimSpace(message.Get(key).String()); reasoning != "" {
			blocks = append(blocks, normalized.ThinkingBlock{Text: reasoning})
			break
		}
	}

	content := message.Get("content")
	switch {
	case !content.Exists() || content.Type == gjson.Null:
	case content.Type == gjson.String:
		thinking, text := splitThinking(content.String())
		if thinking != "" {
			blocks = append(blocks, normalized.ThinkingBlock{Text: thinking})
		}
		if text != "" {
			blocks = append(blocks, normalized.TextBlock{Text: text})
		}
	case content.IsArray():
		for i, part := range content.Array() {
			partPath := fmt.Sprintf("%s.content.%d", path, i)
			partType, err := requireString(openAIName, part, "type", partPath+".type")
			if err != nil {
				return nil, err
			}
			switch partType {
			case "text":
				text, err := requireString(openAIName, part, "text", partPath+".text")
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, normalized.TextBlock{Text: text})
			case "refusal":
				refusal, err := requireString(openAIName, part, "refusal", partPath+".refusal")
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, normalized.TextBlock{Text: refusal})
			default:
				return nil, structural(openAIName, "unknown content part type %q at %s", partType, partPath)
			}
		}
	default:
		return nil, structural(openAIName, "%s.content is neither a string nor an array", path)
	}

	if refusal := message.Get("refusal"); refusal.Type == gjson.String && refusal.String() != "" {
		blocks = append(blocks, normalized.TextBlock{Text: refusal.String()})
	}

	toolCalls := message.Get("tool_calls")
	if toolCalls.Exists() && toolCalls.Type != gjson.Null {
		if !toolCalls.IsArray() {
			return nil, structural(openAIName, "%s.tool_calls is not an array", path)
		}
		for i, call := range toolCalls.Array() {
			block, err := parseToolCall(call, fmt.Sprintf("%s.tool_calls.%d", path, i))
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}

func parseToolCall(call gjson.Result, path string) (normalized.ContentBlock, error) {
	if callType := call.Get("type"); callType.Exists() && callType.String() != "function" {
		return nil, structural(openAIName, "unknown tool call type %q at %s", callType.String(), path)
	}

	id, err := requireString(openAIName, call, "id", path+".id")
	if err != nil {
		return nil, err
	}
	name, err := requireString(openAIName, call, "function.name", path+".function.name")
	if err != nil {
		return nil, err
	}

	return normalized.ToolUseBlock{
		ID:    id,
		Name:  name,
		Input: toolArguments(call.Get("function.arguments")),
	}, nil
}

// toolArguments decodes function.arguments. Most backends send a JSON
// encoded string; some send the object itself. Strings that are not valid
// JSON are kept as {"raw": "<arguments>"}.
func toolArguments(args gjson.Result) json.RawMessage {
	switch {
	case !args.Exists() || args.Type == gjson.Null:
		return json.RawMessage(`{}`)
	case args.Type == gjson.String:
		s := args.String()
		if strings.TrimSpace(s) == "" {
			return json.RawMessage(`{}`)
		}
		if encodableArguments(s) {
			return json.RawMessage(s)
		}
		data, _ := json.Marshal(map[string]string{"raw": s})
		return data
	default:
		return rawJSON(args)
	}
}

// encodableArguments reports whether s can be stored as tool input.
// The encoded block nests the input one level deeper, so s must validate
// with a level to spare.
func encodableArguments(s string) bool {
	return llm.ValidJSON([]byte("[" + s + "]"))
}

// splitThinking separates a leading <think>...</think> section from the
// answer text. The opening tag is optional since some chat templates emit
// it as part of the prompt.
func splitThinking(content string) (thinking, text string) {
	trimmed := strings.TrimSpace(content)
	end := strings.Index(trimmed, thinkCloseTag)
	if end == -1 {
		if strings.HasPrefix(trimmed, thinkOpenTag) {
			// Truncated before the closing tag.
			return strings.TrimSpace(strings.TrimPrefix(trimmed, thinkOpenTag)), ""
		}
		return "", trimmed
	}

	thinking = strings.TrimSpace(strings.TrimPrefix(trimmed[:end], thinkOpenTag))
	text = strings.TrimSpace(trimmed[end+len(thinkCloseTag):])
	return thinking, text
}
