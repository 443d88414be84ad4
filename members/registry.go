package members

import (
	"reflect"
	"strings"
	"sync"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
)

// Entry explicit registration for one type
type Entry struct {
	Section string                      // overrides the section derived from the type name
	Table   []property.MemberDescriptor // replaces reflection when non-empty
}

// Registry explicit section names and member tables keyed by type.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]Entry
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[reflect.Type]Entry)}
}

// RegisterSection sets the section name used for t
func (r *Registry) RegisterSection(t reflect.Type, section string) error {
	t = indirect(t)
	section = strings.ToLower(strings.TrimSpace(section))
	if t == nil || section == "" {
		return errdef.ErrInvalidMember.WithMsg("section registration needs a type and a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entries[t]
	if entry.Section != "" && entry.Section != section {
		return errdef.ErrInvalidMember.
			WithMsgf("type %s already registered with section %q", t, entry.Section).
			WithData("type", t.String())
	}
	entry.Section = section
	r.entries[t] = entry
	return nil
}

// RegisterTable sets an explicit member table for t. The table is validated
// with property.NewMemberSet at registration time.
func (r *Registry) RegisterTable(t reflect.Type, members ...property.MemberDescriptor) error {
	t = indirect(t)
	if t == nil || len(members) == 0 {
		return errdef.ErrInvalidMember.WithMsg("table registration needs a type and members")
	}
	if _, err := property.NewMemberSet(members...); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entries[t]
	if len(entry.Table) > 0 {
		return errdef.ErrInvalidMember.
			WithMsgf("type %s already has a member table", t).
			WithData("type", t.String())
	}
	entry.Table = append([]property.MemberDescriptor(nil), members...)
	r.entries[t] = entry
	return nil
}

// Lookup returns the entry registered for t
func (r *Registry) Lookup(t reflect.Type) (Entry, bool) {
	t = indirect(t)
	if t == nil {
		return Entry{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[t]
	return entry, ok
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
