package llm

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// ErrKindInvalidJSON: the raw response is not syntactically valid JSON.
	ErrKindInvalidJSON ErrorKind = "invalid_json"
	// ErrKindMissingField: a required field is absent or has the wrong type.
	ErrKindMissingField ErrorKind = "missing_field"
	// ErrKindUnsupportedModel: no parser is registered for the model.
	ErrKindUnsupportedModel ErrorKind = "unsupported_model"
	// ErrKindStructure: the model is known but its payload shape is not,
	// e.g. an unrecognized block type tag.
	ErrKindStructure ErrorKind = "structure"
)

// Sentinels for errors.Is. They match any *ParseError of the same kind.
var (
	ErrInvalidJSON      = &ParseError{Kind: ErrKindInvalidJSON}
	ErrMissingField     = &ParseError{Kind: ErrKindMissingField}
	ErrUnsupportedModel = &ParseError{Kind: ErrKindUnsupportedModel}
	ErrStructure        = &ParseError{Kind: ErrKindStructure}
)

// ParseError is the typed failure returned by the registry and by parsers.
type ParseError struct {
	Kind ErrorKind

	// Field is the offending field path for ErrKindMissingField.
	Field string
	// Model is the model identifier, when known.
	Model string
	// Parser names the parser that produced the error, empty for registry errors.
	Parser string

	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case ErrKindInvalidJSON:
		msg = "invalid JSON"
	case ErrKindMissingField:
		msg = fmt.Sprintf("missing field: %s", e.Field)
	case ErrKindUnsupportedModel:
		msg = fmt.Sprintf("unsupported model: %s", e.Model)
	default:
		msg = "parsing error"
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Parser != "" {
		return fmt.Sprintf("%s parser: %s", e.Parser, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Is matches another *ParseError by kind. Field and Model take part in the
// comparison only when set on the target.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Field != "" && t.Field != e.Field {
		return false
	}
	if t.Model != "" && t.Model != e.Model {
		return false
	}
	return true
}

func InvalidJSON(cause error) *ParseError {
	return &ParseError{Kind: ErrKindInvalidJSON, Cause: cause}
}

func MissingField(field string) *ParseError {
	return &ParseError{Kind: ErrKindMissingField, Field: field}
}

func UnsupportedModel(model string) *ParseError {
	return &ParseError{Kind: ErrKindUnsupportedModel, Model: model}
}

// Structural reports a payload shape the named parser does not understand.
func Structural(parser, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Kind:    ErrKindStructure,
		Parser:  parser,
		Message: fmt.Sprintf(format, args...),
	}
}

func AsParseError(err error) (*ParseError, bool) {
	var e *ParseError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of a *ParseError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	if e, ok := AsParseError(err); ok {
		return e.Kind
	}
	return ""
}
