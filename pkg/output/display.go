package output

import (
	"sort"
	"sync"

	"github.com/alex-ilgayev/adaptogen/pkg/llm"
	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
)

// OutputHandler defines the interface for different output formats
type OutputHandler interface {
	PrintHeader()
	Stats() *Stats
	PrintStats(stats *Stats)
	PrintInfo(format string, args ...interface{})
	Close()
}

// ModelRow is one line of the registered models listing.
type ModelRow struct {
	Model  string
	Parser string
}

// ModelStats counts what was normalized for one model.
type ModelStats struct {
	Model  string
	Frames int
	Blocks map[normalized.BlockType]int
}

// Stats aggregates frames per model and failures per error kind.
// Safe for concurrent use.
type Stats struct {
	mu       sync.Mutex
	models   map[string]*ModelStats
	failures map[llm.ErrorKind]int
}

func NewStats() *Stats {
	return &Stats{
		models:   make(map[string]*ModelStats),
		failures: make(map[llm.ErrorKind]int),
	}
}

func (s *Stats) AddFrame(frame *normalized.ContentFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms, ok := s.models[frame.Model]
	if !ok {
		ms = &ModelStats{Model: frame.Model, Blocks: make(map[normalized.BlockType]int)}
		s.models[frame.Model] = ms
	}
	ms.Frames++
	for _, block := range frame.Blocks {
		ms.Blocks[block.Type()]++
	}
}

func (s *Stats) AddFailure(kind llm.ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == "" {
		kind = "other"
	}
	s.failures[kind]++
}

// Models returns a snapshot of per-model counts sorted by model.
func (s *Stats) Models() []ModelStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ModelStats, 0, len(s.models))
	for _, ms := range s.models {
		blocks := make(map[normalized.BlockType]int, len(ms.Blocks))
		for k, v := range ms.Blocks {
			blocks[k] = v
		}
		out = append(out, ModelStats{Model: ms.Model, Frames: ms.Frames, Blocks: blocks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Failures returns a snapshot of failure counts per kind.
func (s *Stats) Failures() map[llm.ErrorKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[llm.ErrorKind]int, len(s.failures))
	for k, v := range s.failures {
		out[k] = v
	}
	return out
}

func (s *Stats) TotalFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, v := range s.failures {
		total += v
	}
	return total
}
