package llm

import (
	"sort"
	"sync"
	"time"

	"github.com/alex-ilgayev/adaptogen/pkg/normalized"
	"github.com/alex-ilgayev/adaptogen/pkg/observability"
	"github.com/sirupsen/logrus"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMetrics records parse counts and durations in the
// observability package's collectors.
func WithMetrics() RegistryOption {
	return func(r *Registry) {
		r.metrics = true
	}
}

// Registry maps model identifiers to the parser responsible for them and
// dispatches raw responses accordingly.
//
// Lookup is an exact, case-sensitive match on the response's "model" field.
// When two parsers declare the same identifier, the one registered last wins.
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]ResponseParser
	metrics bool
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		parsers: make(map[string]ResponseParser),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates every identifier in p.SupportedModels() with p,
// replacing any parser previously registered for that identifier.
// A parser with no supported models is a no-op.
func (r *Registry) Register(p ResponseParser) {
	if p == nil {
		return
	}

	models := p.SupportedModels()
	name := ParserName(p)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, model := range models {
		if prev, ok := r.parsers[model]; ok {
			logrus.WithFields(logrus.Fields{
				"model":    model,
				"previous": ParserName(prev),
				"parser":   name,
			}).Debug("Replacing registered parser for model")
		}
		r.parsers[model] = p
	}

	logrus.WithFields(logrus.Fields{
		"parser": name,
		"models": models,
	}).Debug("Registered parser")
}

// Unregister removes the parser associated with model, if any.
func (r *Registry) Unregister(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.parsers, model)
}

// Lookup returns the parser registered for model.
func (r *Registry) Lookup(model string) (ResponseParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[model]
	return p, ok
}

// Models returns the registered model identifiers in sorted order.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.parsers))
	for model := range r.parsers {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// Parse dispatches raw to the parser registered for its "model" field.
// The parser receives the original bytes; its frame or error is returned
// unchanged.
func (r *Registry) Parse(raw []byte) (*normalized.ContentFrame, error) {
	start := time.Now()

	model, err := ExtractModel(raw)
	if err != nil {
		r.observe("", start, err)
		return nil, err
	}

	p, ok := r.Lookup(model)
	if !ok {
		err := UnsupportedModel(model)
		// Unknown identifiers are not used as label values.
		r.observe("", start, err)
		return nil, err
	}

	frame, err := p.Parse(raw)
	r.observe(model, start, err)
	return frame, err
}

func (r *Registry) observe(model string, start time.Time, err error) {
	if !r.metrics {
		return
	}

	result := "ok"
	if err != nil {
		result = string(KindOf(err))
		if result == "" {
			result = "error"
		}
	}

	observability.ParsesTotal.WithLabelValues(model, result).Inc()
	observability.ParseDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
}
