package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/event"
	"github.com/sirupsen/logrus"
)

// JSONLDisplay handles JSONL output formatting.
// Every frame and failure becomes one JSON object per line, tagged with
// "event": "frame" or "parse_failure". Records that cannot be encoded or
// written are counted in WriteErrors.
type JSONLDisplay struct {
	mu          sync.Mutex
	writer      io.Writer
	eventBus    bus.EventBus
	stats       *Stats
	writeErrors int
}

type frameRecord struct {
	Event string `json:"event"`
	*event.FrameEvent
}

type failureRecord struct {
	Event string `json:"event"`
	*event.ParseFailureEvent
}

// NewJSONLDisplay creates a new display handler for JSONL output with custom writer
func NewJSONLDisplay(writer io.Writer, eventBus bus.EventBus) (*JSONLDisplay, error) {
	j := &JSONLDisplay{
		writer:   writer,
		eventBus: eventBus,
		stats:    NewStats(),
	}

	if err := eventBus.SubscribeSync(event.EventTypeFrame, j.handleEvent); err != nil {
		return nil, err
	}
	if err := eventBus.SubscribeSync(event.EventTypeParseFailure, j.handleEvent); err != nil {
		j.Close()
		return nil, err
	}

	return j, nil
}

// PrintHeader does nothing for JSONL output (no header needed)
func (j *JSONLDisplay) PrintHeader() {}

// Stats returns the counters collected from written events.
func (j *JSONLDisplay) Stats() *Stats {
	return j.stats
}

// PrintStats logs a summary instead of writing it, so stdout stays a
// stream of records.
func (j *JSONLDisplay) PrintStats(stats *Stats) {
	for _, ms := range stats.Models() {
		logrus.WithFields(logrus.Fields{
			"model":  ms.Model,
			"frames": ms.Frames,
		}).Info("Frames written")
	}
	for kind, count := range stats.Failures() {
		logrus.WithFields(logrus.Fields{
			"kind":  kind,
			"count": count,
		}).Info("Parse failures")
	}
	if n := j.WriteErrors(); n > 0 {
		logrus.WithField("count", n).Warn("Records not written")
	}
}

// PrintInfo logs the message; it never goes to the record stream.
func (j *JSONLDisplay) PrintInfo(format string, args ...interface{}) {
	logrus.Infof(format, args...)
}

// WriteErrors returns how many records could not be encoded or written.
func (j *JSONLDisplay) WriteErrors() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writeErrors
}

func (j *JSONLDisplay) handleEvent(e event.Event) {
	switch evt := e.(type) {
	case *event.FrameEvent:
		if j.writeRecord(frameRecord{Event: evt.Type().String(), FrameEvent: evt}) {
			j.stats.AddFrame(evt.Frame)
		}
	case *event.ParseFailureEvent:
		if j.writeRecord(failureRecord{Event: evt.Type().String(), ParseFailureEvent: evt}) {
			j.stats.AddFailure(evt.Kind)
		}
	}
}

// writeRecord writes one line and reports whether it succeeded.
func (j *JSONLDisplay) writeRecord(record interface{}) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		j.writeErrors++
		logrus.WithError(err).Error("failed to marshal record")
		return false
	}

	if _, err := fmt.Fprintf(j.writer, "%s\n", string(data)); err != nil {
		j.writeErrors++
		logrus.WithError(err).Error("failed to write record")
		return false
	}
	return true
}

// Close unsubscribes the display. The bus matches handlers by method, so
// a bus carries at most one JSONLDisplay; use io.MultiWriter to write the
// same records to several destinations.
func (j *JSONLDisplay) Close() {
	j.eventBus.Unsubscribe(event.EventTypeFrame, j.handleEvent)
	j.eventBus.Unsubscribe(event.EventTypeParseFailure, j.handleEvent)
}
