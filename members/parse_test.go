package members

import (
	"reflect"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		decl     string
		name     string
		typ      reflect.Type
		required bool
	}{
		{"myapp.app.port:int:required", "myapp.app.port", reflect.TypeOf(0), true},
		{"myapp.app.timeout:Duration", "myapp.app.timeout", reflect.TypeOf(time.Duration(0)), false},
		{"app.name", "app.name", reflect.TypeOf(""), false},
		{"app.name:", "app.name", reflect.TypeOf(""), false},
		{"app.hosts:strings", "app.hosts", reflect.TypeOf([]string(nil)), false},
		{" app.raw:any ", "app.raw", reflect.TypeOf((*any)(nil)).Elem(), false},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			d, err := ParseDescriptor(tt.decl)
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name)
			assert.Equal(t, tt.typ, d.Type)
			assert.Equal(t, tt.required, d.Required)
		})
	}
}

func TestParseDescriptor_Invalid(t *testing.T) {
	for _, decl := range []string{"", ":int", "app.port:number", "app.port:int:optional", "a:b:c:d"} {
		t.Run(decl, func(t *testing.T) {
			_, err := ParseDescriptor(decl)
			assert.ErrorIs(t, err, errdef.ErrInvalidMember)
		})
	}
}

func TestParseMemberSet(t *testing.T) {
	set, err := ParseMemberSet("myapp.app.port:int:required", "myapp.app.timeout:duration")
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"port"}, set.Required())

	_, err = ParseMemberSet("a.port:int", "b.port:int")
	assert.ErrorIs(t, err, errdef.ErrInvalidMember)

	_, err = ParseMemberSet("a.port:bogus")
	assert.ErrorIs(t, err, errdef.ErrInvalidMember)
}

func TestTypeNames(t *testing.T) {
	names := TypeNames()
	assert.Contains(t, names, "duration")
	assert.IsIncreasing(t, names)
}
