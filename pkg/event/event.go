package event

type EventType uint8

const (
	// A raw response body was read from an input source.
	EventTypeRawResponse EventType = 1
	// A raw response was normalized into a frame.
	EventTypeFrame EventType = 2
	// A raw response could not be normalized.
	EventTypeParseFailure EventType = 3
)

func (e EventType) String() string {
	switch e {
	case EventTypeRawResponse:
		return "raw_response"
	case EventTypeFrame:
		return "frame"
	case EventTypeParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// AllEventTypes lists every event type published by the pipeline.
var AllEventTypes = []EventType{
	EventTypeRawResponse,
	EventTypeFrame,
	EventTypeParseFailure,
}

// Event is the interface for all events
type Event interface {
	Type() EventType
}
