// Package property holds the records that flow through a resolution:
// member descriptors of the target type, raw properties read from sources,
// validated properties and the per-request resolved set.
package property

import (
	"fmt"
	"reflect"
	"strings"
)

// RawProperty one entry read from a source, before matching.
//
// For the key "myapp.server.port": Namespace "myapp", ClassName "server",
// PropertyName "port", FullName "myapp.server.port".
type RawProperty struct {
	Source       string // id of the source the entry came from
	Namespace    string
	ClassName    string
	PropertyName string // unqualified key, the merge key
	FullName     string // dotted path used for matching
	Value        any
}

// NewRawProperty splits a dotted key into its parts. The key is trimmed and
// lower-cased, empty segments are dropped.
func NewRawProperty(source, fullName string, value any) RawProperty {
	segments := splitKey(fullName)
	raw := RawProperty{
		Source:   source,
		FullName: strings.Join(segments, "."),
		Value:    value,
	}

	switch n := len(segments); {
	case n == 0:
	case n == 1:
		raw.PropertyName = segments[0]
	default:
		raw.PropertyName = segments[n-1]
		raw.ClassName = segments[n-2]
		raw.Namespace = strings.Join(segments[:n-2], ".")
	}
	return raw
}

// String renders key=value with the source for logs
func (p RawProperty) String() string {
	return fmt.Sprintf("%s=%v (%s)", p.FullName, p.Value, p.Source)
}

// ValidatedProperty a raw property coerced to the type of the member it matched
type ValidatedProperty struct {
	RawProperty
	MemberType reflect.Type
	Coerced    any // assignable to MemberType
}

// splitKey lower-cases a dotted key and drops empty segments
func splitKey(key string) []string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), ".")
	segments := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// JoinKey joins non-empty segments with dots, lower-cased
func JoinKey(segments ...string) string {
	return strings.Join(splitKey(strings.Join(segments, ".")), ".")
}
