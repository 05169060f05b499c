package event

import (
	"time"

	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/sirupsen/logrus"
)

// Position identifies where a response came from: the input name ("-" for
// stdin) and its 1-based line number in JSONL mode, 0 otherwise.
type Position struct {
	Source string `json:"source"`
	Line   int    `json:"line,omitempty"`
}

// RawResponseEvent carries one unparsed response body.
type RawResponseEvent struct {
	Position
	Timestamp time.Time `json:"timestamp"`
	Payload   []byte    `json:"-"`
}

func (e *RawResponseEvent) Type() EventType { return EventTypeRawResponse }

func (e *RawResponseEvent) LogFields() logrus.Fields {
	return logrus.Fields{
		"source": e.Source,
		"line":   e.Line,
		"size":   len(e.Payload),
	}
}

// FrameEvent carries a successfully normalized response.
type FrameEvent struct {
	Position
	Timestamp time.Time                `json:"timestamp"`
	Frame     *normalized.ContentFrame `json:"frame"`
}

func (e *FrameEvent) Type() EventType { return EventTypeFrame }

func (e *FrameEvent) LogFields() logrus.Fields {
	return logrus.Fields{
		"source": e.Source,
		"line":   e.Line,
		"id":     e.Frame.ID,
		"model":  e.Frame.Model,
		"blocks": len(e.Frame.Blocks),
	}
}

// ParseFailureEvent carries a response the registry rejected.
type ParseFailureEvent struct {
	Position
	Timestamp time.Time     `json:"timestamp"`
	Kind      llm.ErrorKind `json:"kind,omitempty"`
	Error     string        `json:"error"`
	Raw       []byte        `json:"-"`
}

func (e *ParseFailureEvent) Type() EventType { return EventTypeParseFailure }

func (e *ParseFailureEvent) LogFields() logrus.Fields {
	return logrus.Fields{
		"source": e.Source,
		"line":   e.Line,
		"kind":   e.Kind,
		"error":  e.Error,
	}
}

// NewParseFailureEvent builds a failure event from a registry error.
func NewParseFailureEvent(pos Position, raw []byte, err error) *ParseFailureEvent {
	return &ParseFailureEvent{
		Position:  pos,
		Timestamp: time.Now(),
		Kind:      llm.KindOf(err),
		Error:     err.Error(),
		Raw:       raw,
	}
}
