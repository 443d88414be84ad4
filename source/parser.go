package source

import (
	"context"
	"iter"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
)

// Parser reads one source as a lazy stream of raw properties.
// The stream is consumed once; an error item ends it.
type Parser interface {
	Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error]
}

// ParserFunc adapts a function to Parser
type ParserFunc func(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error]

// Parse implements Parser
func (f ParserFunc) Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error] {
	return f(ctx, id)
}

// Mux routes each source to the parser registered for its scheme
type Mux struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewMux creates an empty mux
func NewMux() *Mux {
	return &Mux{parsers: make(map[string]Parser)}
}

// NewDefaultMux creates a mux with the file and env parsers registered
func NewDefaultMux() *Mux {
	return NewMux().
		Handle(SchemeFile, NewFileParser()).
		Handle(SchemeEnv, NewEnvParser())
}

// Handle registers p for scheme, replacing any earlier one
func (m *Mux) Handle(scheme string, p Parser) *Mux {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsers[scheme] = p
	return m
}

// Schemes returns the registered schemes, sorted
func (m *Mux) Schemes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	schemes := make([]string, 0, len(m.parsers))
	for s := range m.parsers {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Parse implements Parser
func (m *Mux) Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error] {
	m.mu.RLock()
	p, ok := m.parsers[id.Scheme()]
	m.mu.RUnlock()

	if !ok {
		return fail(errdef.ErrParse.
			WithMsgf("no parser for source %s", id).
			WithData("source", string(id)))
	}
	return p.Parse(ctx, id)
}

// fail returns a stream holding a single error
func fail(err error) iter.Seq2[property.RawProperty, error] {
	return func(yield func(property.RawProperty, error) bool) {
		yield(property.RawProperty{}, err)
	}
}

// emit streams values in sorted key order
func emit(id SourceID, values map[string]any) iter.Seq2[property.RawProperty, error] {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return func(yield func(property.RawProperty, error) bool) {
		for _, k := range keys {
			if !yield(property.NewRawProperty(string(id), k, values[k]), nil) {
				return
			}
		}
	}
}

// flattenMap flattens nested maps into dot separated keys:
// {"grpc": {"server": {"port": 9002}}} -> {"grpc.server.port": 9002}
func flattenMap(prefix string, data map[string]any, result map[string]any) {
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			flattenMap(fullKey, v, result)
		default:
			result[fullKey] = value
		}
	}
}
