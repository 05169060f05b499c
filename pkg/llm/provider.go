package llm

import "github.com/alex-ilgayev/adaptogen/pkg/normalized"

// ResponseParser defines the interface for provider-specific response parsers.
type ResponseParser interface {
	// SupportedModels returns the model identifiers this parser handles.
	// The result must not change between calls; it is read once at registration.
	SupportedModels() []string

	// Parse converts one raw response body into a normalized frame.
	// Malformed input is reported as a *ParseError, never a panic.
	// Implementations must not perform I/O or mutate shared state.
	Parse(raw []byte) (*normalized.ContentFrame, error)
}

// Named is implemented by parsers that report a human-readable name.
type Named interface {
	Name() string
}

// ParserName returns the parser's name, or its Go type when it has none.
func ParserName(p ResponseParser) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return typeName(p)
}
