package source

import (
	"context"
	"iter"
	"os"
	"strings"

	"github.com/KOMKZ/go-yogan-confres/property"
)

// EnvParser reads environment variables. For "env:APP", APP_GRPC_SERVER_PORT
// becomes grpc.server.port. Bindings map keys the underscore rule cannot
// express, e.g. "api_server.port" -> "API_SERVER_PORT".
type EnvParser struct {
	bindings map[string]string
	environ  func() []string
}

// EnvOption configures EnvParser
type EnvOption func(*EnvParser)

// WithBinding maps key to envKey. envKey gets the source prefix prepended
// unless it already carries it.
func WithBinding(key, envKey string) EnvOption {
	return func(p *EnvParser) {
		p.bindings[key] = envKey
	}
}

// NewEnvParser creates an environment parser
func NewEnvParser(opts ...EnvOption) *EnvParser {
	p := &EnvParser{
		bindings: make(map[string]string),
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse implements Parser. Explicit bindings win over prefix matches.
// The environment is read when the stream is iterated, not when Parse is
// called.
func (p *EnvParser) Parse(ctx context.Context, id SourceID) iter.Seq2[property.RawProperty, error] {
	return func(yield func(property.RawProperty, error) bool) {
		for raw, err := range emit(id, p.read(id.Location())) {
			if !yield(raw, err) {
				return
			}
		}
	}
}

func (p *EnvParser) read(prefix string) map[string]any {
	result := make(map[string]any)

	vars := make(map[string]string)
	for _, env := range p.environ() {
		if key, value, ok := strings.Cut(env, "="); ok {
			vars[key] = value
		}
	}

	if prefix != "" {
		scan := prefix + "_"
		for key, value := range vars {
			if strings.HasPrefix(key, scan) {
				result[envKeyToConfigKey(strings.TrimPrefix(key, scan))] = value
			}
		}
	}

	for key, envKey := range p.bindings {
		fullEnvKey := envKey
		if prefix != "" && !strings.HasPrefix(envKey, prefix+"_") {
			fullEnvKey = prefix + "_" + envKey
		}
		if value := vars[fullEnvKey]; value != "" {
			// drop the underscore-derived twin of a bound variable
			if prefix != "" {
				delete(result, envKeyToConfigKey(strings.TrimPrefix(fullEnvKey, prefix+"_")))
			}
			result[key] = value
		}
	}

	return result
}

// envKeyToConfigKey converts GRPC_SERVER_PORT to grpc.server.port
func envKeyToConfigKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}
