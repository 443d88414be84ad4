package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/KOMKZ/go-yogan-confres/errdef"
)

// Discoverer yields the ordered list of sources for one resolution.
// Later sources override earlier ones.
type Discoverer interface {
	Discover(ctx context.Context) ([]SourceID, error)
}

// DiscovererFunc adapts a function to Discoverer
type DiscovererFunc func(ctx context.Context) ([]SourceID, error)

// Discover implements Discoverer
func (f DiscovererFunc) Discover(ctx context.Context) ([]SourceID, error) {
	return f(ctx)
}

// Static returns a discoverer yielding ids exactly as given
func Static(ids ...SourceID) Discoverer {
	fixed := append([]SourceID(nil), ids...)
	return DiscovererFunc(func(ctx context.Context) ([]SourceID, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return append([]SourceID(nil), fixed...), nil
	})
}

// Layer one source with its priority. Higher priority overrides lower.
//
// Suggested priorities:
//   - base file (config.yaml): 10
//   - environment file (dev.yaml): 20
//   - drop-in files (conf.d/*.yaml): 30
//   - environment variables: 50
//   - redis: 60
//   - etcd: 70
type Layer struct {
	ID       SourceID
	Priority int
}

type layerEntry struct {
	Layer
	glob string
}

// Layered orders sources by priority, ascending. Sources sharing a
// priority keep the order they were added in; glob matches are sorted.
type Layered struct {
	entries []layerEntry
}

// NewLayered creates an empty layered discoverer
func NewLayered() *Layered {
	return &Layered{}
}

// AddLayer adds a single source
func (l *Layered) AddLayer(layer Layer) *Layered {
	l.entries = append(l.entries, layerEntry{Layer: layer})
	return l
}

// AddGlob adds every file matching pattern at discovery time
func (l *Layered) AddGlob(pattern string, priority int) *Layered {
	l.entries = append(l.entries, layerEntry{Layer: Layer{Priority: priority}, glob: pattern})
	return l
}

// Discover implements Discoverer
func (l *Layered) Discover(ctx context.Context) ([]SourceID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var layers []Layer
	for _, entry := range l.entries {
		if entry.glob == "" {
			layers = append(layers, entry.Layer)
			continue
		}

		matches, err := filepath.Glob(entry.glob)
		if err != nil {
			return nil, errdef.ErrSourceDiscovery.
				WithMsgf("bad source pattern %q", entry.glob).
				WithData("pattern", entry.glob).
				Wrap(err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			layers = append(layers, Layer{ID: FileID(match), Priority: entry.Priority})
		}
	}

	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Priority < layers[j].Priority
	})

	ids := make([]SourceID, len(layers))
	for i, layer := range layers {
		ids[i] = layer.ID
	}
	return ids, nil
}

// CurrentEnv returns the running environment (priority: APP_ENV > ENV > default dev)
func CurrentEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
