package members

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
)

var typeNames = map[string]reflect.Type{
	"string":   reflect.TypeOf(""),
	"bool":     reflect.TypeOf(false),
	"int":      reflect.TypeOf(0),
	"int64":    reflect.TypeOf(int64(0)),
	"uint":     reflect.TypeOf(uint(0)),
	"float":    reflect.TypeOf(float64(0)),
	"duration": reflect.TypeOf(time.Duration(0)),
	"time":     reflect.TypeOf(time.Time{}),
	"strings":  reflect.TypeOf([]string(nil)),
	"ints":     reflect.TypeOf([]int(nil)),
	"map":      reflect.TypeOf(map[string]string(nil)),
	"object":   reflect.TypeOf(map[string]any(nil)),
	"any":      reflect.TypeOf((*any)(nil)).Elem(),
}

// TypeNames lists the type names ParseDescriptor accepts
func TypeNames() []string {
	names := make([]string, 0, len(typeNames))
	for name := range typeNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseDescriptor parses "name:type[:required]", e.g. "myapp.app.port:int:required".
// The type defaults to string when omitted.
func ParseDescriptor(decl string) (property.MemberDescriptor, error) {
	parts := strings.Split(strings.TrimSpace(decl), ":")
	if len(parts) > 3 || parts[0] == "" {
		return property.MemberDescriptor{}, errdef.ErrInvalidMember.
			WithMsgf("member %q must look like name:type[:required]", decl).
			WithData("member", decl)
	}

	typeName := "string"
	if len(parts) > 1 && parts[1] != "" {
		typeName = strings.ToLower(parts[1])
	}
	t, ok := typeNames[typeName]
	if !ok {
		return property.MemberDescriptor{}, errdef.ErrInvalidMember.
			WithMsgf("member %q: unknown type %q (valid: %s)", parts[0], typeName, strings.Join(TypeNames(), ", ")).
			WithData("member", parts[0])
	}

	var required bool
	if len(parts) == 3 {
		if parts[2] != "required" {
			return property.MemberDescriptor{}, errdef.ErrInvalidMember.
				WithMsgf("member %q: unknown flag %q", parts[0], parts[2]).
				WithData("member", parts[0])
		}
		required = true
	}

	return property.MemberDescriptor{Name: parts[0], Type: t, Required: required}, nil
}

// ParseMemberSet parses every declaration into one member set
func ParseMemberSet(decls ...string) (*property.MemberSet, error) {
	descriptors := make([]property.MemberDescriptor, 0, len(decls))
	for _, decl := range decls {
		d, err := ParseDescriptor(decl)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return property.NewMemberSet(descriptors...)
}
