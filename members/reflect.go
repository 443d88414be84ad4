// Package members lists the members a configuration type accepts.
//
// Struct fields become members named "<namespace>.<section>.<property>":
//
//	package myapp
//
//	type ServerConfig struct {
//	    Port    int           `config:"port,required"`
//	    Timeout time.Duration // property "timeout"
//	    Secret  string        `config:"-"`
//	}
//
// yields myapp.server.port and myapp.server.timeout.
package members

import (
	"path"
	"reflect"
	"strings"

	"github.com/KOMKZ/go-yogan-confres/coerce"
	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
)

// TagName struct tag read by the resolver
const TagName = "config"

// Resolver produces the eligible members of a type
type Resolver interface {
	Members(t reflect.Type) (*property.MemberSet, error)
}

// Sectioner lets a type name its own section
type Sectioner interface {
	ConfigSection() string
}

// Reflect resolves members from struct fields
type Reflect struct {
	registry  *Registry
	namespace string
}

// Option configures Reflect
type Option func(*Reflect)

// WithRegistry consults registry before reflecting
func WithRegistry(registry *Registry) Option {
	return func(r *Reflect) {
		r.registry = registry
	}
}

// WithNamespace replaces the package name as the leading name segment
func WithNamespace(namespace string) Option {
	return func(r *Reflect) {
		r.namespace = property.JoinKey(namespace)
	}
}

// NewReflect creates a reflection based resolver
func NewReflect(opts ...Option) *Reflect {
	r := &Reflect{}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = NewRegistry()
	}
	return r
}

// Registry returns the registry the resolver consults
func (r *Reflect) Registry() *Registry {
	return r.registry
}

// Members implements Resolver
func (r *Reflect) Members(t reflect.Type) (*property.MemberSet, error) {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errdef.ErrInvalidMember.WithMsgf("configuration type must be a struct, got %v", t)
	}

	entry, _ := r.registry.Lookup(t)
	if len(entry.Table) > 0 {
		return property.NewMemberSet(entry.Table...)
	}

	prefix := property.JoinKey(r.namespaceOf(t), r.sectionOf(t, entry))

	var candidates []candidate
	if err := collect(t, nil, prefix, &candidates); err != nil {
		return nil, err
	}
	return property.NewMemberSet(promote(candidates)...)
}

func (r *Reflect) namespaceOf(t reflect.Type) string {
	if r.namespace != "" {
		return r.namespace
	}
	return path.Base(t.PkgPath())
}

func (r *Reflect) sectionOf(t reflect.Type, entry Entry) string {
	if s, ok := reflect.New(t).Interface().(Sectioner); ok {
		if name := s.ConfigSection(); name != "" {
			return name
		}
	}
	if entry.Section != "" {
		return entry.Section
	}
	return SectionName(t.Name())
}

// SectionName derives a section from a type name: ServerConfig -> server
func SectionName(typeName string) string {
	name := typeName
	for _, suffix := range []string{"Config", "Settings"} {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != "" {
			name = trimmed
		}
	}
	return strings.ToLower(name)
}

// candidate a member found at some embedding depth
type candidate struct {
	property.MemberDescriptor
	key string
}

func collect(t reflect.Type, index []int, prefix string, out *[]candidate) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldIndex := append(append([]int(nil), index...), i)

		tag := field.Tag.Get(TagName)
		if tag == "-" {
			continue
		}

		// embedded structs contribute their fields to the outer section
		if field.Anonymous && field.Type.Kind() == reflect.Struct && tag == "" {
			if err := collect(field.Type, fieldIndex, prefix, out); err != nil {
				return err
			}
			continue
		}

		if !field.IsExported() || !coerce.Supports(field.Type) {
			continue
		}

		name, required := parseTag(tag)
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if strings.Contains(name, ".") {
			return errdef.ErrInvalidMember.
				WithMsgf("field %s: property name %q must not contain dots", field.Name, name).
				WithData("member", name)
		}

		*out = append(*out, candidate{
			MemberDescriptor: property.MemberDescriptor{
				Name:     property.JoinKey(prefix, name),
				Type:     field.Type,
				Required: required,
				Field:    fieldIndex,
			},
			key: name,
		})
	}
	return nil
}

// promote keeps, per property name, the candidates at the shallowest
// embedding depth, the way Go promotes fields. Candidates tied at that depth
// are all kept so the member set reports them as duplicates.
func promote(candidates []candidate) []property.MemberDescriptor {
	shallowest := make(map[string]int, len(candidates))
	for _, c := range candidates {
		if d, ok := shallowest[c.key]; !ok || len(c.Field) < d {
			shallowest[c.key] = len(c.Field)
		}
	}

	out := make([]property.MemberDescriptor, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Field) == shallowest[c.key] {
			out = append(out, c.MemberDescriptor)
		}
	}
	return out
}

func parseTag(tag string) (name string, required bool) {
	parts := strings.Split(tag, ",")
	name = strings.ToLower(strings.TrimSpace(parts[0]))
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "required" {
			required = true
		}
	}
	return name, required
}

// For resolves the members of T
func For[T any](r Resolver) (*property.MemberSet, error) {
	return r.Members(reflect.TypeOf((*T)(nil)).Elem())
}
