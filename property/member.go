package property

import (
	"reflect"
	"sort"
	"strings"

	"github.com/KOMKZ/go-yogan-confres/errdef"
)

// MemberDescriptor one eligible member of a target type
type MemberDescriptor struct {
	Name     string       // qualified dotted name, e.g. "myapp.server.port"
	Property string       // last segment of Name, filled by NewMemberSet
	Type     reflect.Type // declared type
	Required bool         // the builder fails when the member stays unresolved
	Field    []int        // struct field index path, nil for dynamic members
}

// MemberSet the eligible members of one target type.
// Names and property names are unique within a set.
type MemberSet struct {
	members    []MemberDescriptor
	byProperty map[string]int
}

// NewMemberSet validates and indexes descriptors.
// Names are normalized (trimmed, lower-cased); duplicate names or duplicate
// property names fail with errdef.ErrInvalidMember.
func NewMemberSet(members ...MemberDescriptor) (*MemberSet, error) {
	set := &MemberSet{
		members:    make([]MemberDescriptor, 0, len(members)),
		byProperty: make(map[string]int, len(members)),
	}
	names := make(map[string]struct{}, len(members))

	for _, m := range members {
		segments := splitKey(m.Name)
		if len(segments) == 0 {
			return nil, errdef.ErrInvalidMember.WithMsg("member name is empty")
		}
		if m.Type == nil {
			return nil, errdef.ErrInvalidMember.WithMsgf("member %q has no type", m.Name).
				WithData("member", m.Name)
		}

		m.Name = strings.Join(segments, ".")
		m.Property = segments[len(segments)-1]

		if _, dup := names[m.Name]; dup {
			return nil, errdef.ErrInvalidMember.WithMsgf("duplicate member %q", m.Name).
				WithData("member", m.Name)
		}
		if prev, dup := set.byProperty[m.Property]; dup {
			return nil, errdef.ErrInvalidMember.
				WithMsgf("members %q and %q share property name %q", set.members[prev].Name, m.Name, m.Property).
				WithData("member", m.Name)
		}

		names[m.Name] = struct{}{}
		set.byProperty[m.Property] = len(set.members)
		set.members = append(set.members, m)
	}

	return set, nil
}

// Len returns the number of members
func (s *MemberSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Members returns a copy of the descriptors in declaration order
func (s *MemberSet) Members() []MemberDescriptor {
	if s == nil {
		return nil
	}
	out := make([]MemberDescriptor, len(s.members))
	copy(out, s.members)
	return out
}

// Lookup returns the member owning a property name
func (s *MemberSet) Lookup(property string) (MemberDescriptor, bool) {
	if s == nil {
		return MemberDescriptor{}, false
	}
	i, ok := s.byProperty[strings.ToLower(property)]
	if !ok {
		return MemberDescriptor{}, false
	}
	return s.members[i], true
}

// Required returns the names of required members, sorted
func (s *MemberSet) Required() []string {
	var out []string
	for _, m := range s.Members() {
		if m.Required {
			out = append(out, m.Property)
		}
	}
	sort.Strings(out)
	return out
}

// Match finds the member a raw property belongs to.
//
// A member matches when its name equals the property's full name or ends
// with "." + full name. ok is false when nothing matches, and also when
// more than one member would match (ambiguous).
func (s *MemberSet) Match(raw RawProperty) (member MemberDescriptor, ok bool, ambiguous bool) {
	if s == nil || raw.FullName == "" {
		return MemberDescriptor{}, false, false
	}

	full := strings.ToLower(raw.FullName)
	suffix := "." + full
	found := 0
	for _, m := range s.members {
		if m.Name == full || strings.HasSuffix(m.Name, suffix) {
			if found == 0 {
				member = m
			}
			found++
		}
	}

	switch found {
	case 0:
		return MemberDescriptor{}, false, false
	case 1:
		return member, true, false
	default:
		return MemberDescriptor{}, false, true
	}
}
