package property

import (
	"sort"
)

// ResolvedSet the merged result of one resolution, keyed by property name.
// Later Set calls overwrite earlier ones. Not safe for concurrent use: each
// request owns its set.
type ResolvedSet struct {
	entries map[string]ValidatedProperty
}

// NewResolvedSet creates an empty set
func NewResolvedSet() *ResolvedSet {
	return &ResolvedSet{entries: make(map[string]ValidatedProperty)}
}

// Set inserts or overwrites the entry for p.PropertyName.
// It reports whether an earlier entry was replaced.
func (r *ResolvedSet) Set(p ValidatedProperty) (replaced bool) {
	_, replaced = r.entries[p.PropertyName]
	r.entries[p.PropertyName] = p
	return replaced
}

// Get returns the entry for a property name
func (r *ResolvedSet) Get(property string) (ValidatedProperty, bool) {
	p, ok := r.entries[property]
	return p, ok
}

// Has reports whether a property was resolved
func (r *ResolvedSet) Has(property string) bool {
	_, ok := r.entries[property]
	return ok
}

// Len returns the number of resolved properties
func (r *ResolvedSet) Len() int {
	return len(r.entries)
}

// Keys returns the property names, sorted
func (r *ResolvedSet) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values flattens the set to property name -> coerced value
func (r *ResolvedSet) Values() map[string]any {
	values := make(map[string]any, len(r.entries))
	for k, p := range r.entries {
		values[k] = p.Coerced
	}
	return values
}

// Sources maps each property name to the source its value came from
func (r *ResolvedSet) Sources() map[string]string {
	sources := make(map[string]string, len(r.entries))
	for k, p := range r.entries {
		sources[k] = p.Source
	}
	return sources
}
