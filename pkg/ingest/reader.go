// Package ingest reads raw LLM responses from files or streams and turns
// them into frame or failure events on the bus.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/event"
	"github.com/sirupsen/logrus"
)

// StdinSource is the source name that selects standard input.
const StdinSource = "-"

// DefaultMaxResponseSize bounds a single response body.
const DefaultMaxResponseSize = 16 * 1024 * 1024

// Reader publishes a RawResponseEvent for every response found in its inputs.
type Reader struct {
	eventBus bus.EventBus

	// jsonl treats every non-blank line as a separate response.
	// Otherwise a whole input is one response.
	jsonl   bool
	maxSize int
}

func NewReader(eventBus bus.EventBus, jsonl bool, maxSize int) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxResponseSize
	}
	return &Reader{
		eventBus: eventBus,
		jsonl:    jsonl,
		maxSize:  maxSize,
	}
}

// ReadFile opens path (or stdin for "-") and reads it.
// Returns the number of responses published.
func (r *Reader) ReadFile(ctx context.Context, path string) (int, error) {
	if path == StdinSource {
		return r.Read(ctx, StdinSource, os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	return r.Read(ctx, path, f)
}

// Read publishes the responses read from in, named source.
// Returns the number of responses published.
func (r *Reader) Read(ctx context.Context, source string, in io.Reader) (int, error) {
	if r.jsonl {
		return r.readLines(ctx, source, in)
	}
	return r.readDocument(ctx, source, in)
}

func (r *Reader) readLines(ctx context.Context, source string, in io.Reader) (int, error) {
	initial := 64 * 1024
	if initial > r.maxSize {
		initial = r.maxSize
	}
	scanner := bufio.NewScanner(in)
	// Lines over maxSize fail with bufio.ErrTooLong.
	scanner.Buffer(make([]byte, 0, initial), r.maxSize)

	published := 0
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return published, err
		}

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		// The scanner reuses its buffer.
		payload := make([]byte, len(data))
		copy(payload, data)

		r.publish(event.Position{Source: source, Line: line}, payload)
		published++
	}
	if err := scanner.Err(); err != nil {
		return published, fmt.Errorf("failed to read %s line %d: %w", source, line+1, err)
	}

	return published, nil
}

func (r *Reader) readDocument(ctx context.Context, source string, in io.Reader) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := io.ReadAll(io.LimitReader(in, int64(r.maxSize)+1))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(data) > r.maxSize {
		return 0, fmt.Errorf("failed to read %s: response exceeds %d bytes", source, r.maxSize)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		logrus.WithField("source", source).Debug("Skipping empty input")
		return 0, nil
	}

	r.publish(event.Position{Source: source}, data)
	return 1, nil
}

func (r *Reader) publish(pos event.Position, payload []byte) {
	r.eventBus.Publish(&event.RawResponseEvent{
		Position:  pos,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
