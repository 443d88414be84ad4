package coerce

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-confres/errcode"
	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

type port uint16

func TestCaster_Validate(t *testing.T) {
	caster := NewCaster()

	tests := []struct {
		name   string
		value  any
		target reflect.Type
		want   any
	}{
		{"string to int", "8080", reflect.TypeOf(0), 8080},
		{"int to int", 30, reflect.TypeOf(0), 30},
		{"int to int64", 30, reflect.TypeOf(int64(0)), int64(30)},
		{"float to float32", 1.5, reflect.TypeOf(float32(0)), float32(1.5)},
		{"string to bool", "true", reflect.TypeOf(false), true},
		{"int to string", 42, reflect.TypeOf(""), "42"},
		{"duration string", "1m30s", reflect.TypeOf(time.Duration(0)), 90 * time.Second},
		{"duration int", 5, reflect.TypeOf(time.Duration(0)), time.Duration(5)},
		{"csv to strings", "a b", reflect.TypeOf([]string(nil)), []string{"a", "b"}},
		{"list to strings", []any{"a", "b"}, reflect.TypeOf([]string(nil)), []string{"a", "b"}},
		{"list to ints", []any{1, "2"}, reflect.TypeOf([]int(nil)), []int{1, 2}},
		{"map to string map", map[string]any{"a": 1}, reflect.TypeOf(map[string]string(nil)), map[string]string{"a": "1"}},
		{"map to any map", map[string]any{"a": 1}, reflect.TypeOf(map[string]any(nil)), map[string]any{"a": 1}},
		{"named string", "debug", reflect.TypeOf(level("")), level("debug")},
		{"named uint", "9000", reflect.TypeOf(port(0)), port(9000)},
		{"leading zero is decimal", "010", reflect.TypeOf(0), 10},
		{"padded decimal", "0080", reflect.TypeOf(0), 80},
		{"integral float to int", 8.0, reflect.TypeOf(0), 8},
		{"string to int16", "300", reflect.TypeOf(int16(0)), int16(300)},
		{"max uint16", 65535, reflect.TypeOf(uint16(0)), uint16(65535)},
		{"any keeps value", 3.5, reflect.TypeOf((*any)(nil)).Elem(), 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := property.NewRawProperty("file:a.yaml", "app.key", tt.value)
			got, err := caster.Validate(raw, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Coerced)
			assert.Equal(t, tt.target, got.MemberType)
			assert.Equal(t, raw, got.RawProperty)
		})
	}
}

func TestCaster_Validate_Invalid(t *testing.T) {
	caster := NewCaster()

	tests := []struct {
		name   string
		value  any
		target reflect.Type
	}{
		{"not a number", "notanumber", reflect.TypeOf(0)},
		{"not a bool", "maybe", reflect.TypeOf(false)},
		{"bad duration", "soon", reflect.TypeOf(time.Duration(0))},
		{"unsupported kind", "x", reflect.TypeOf(make(chan int))},
		{"non-empty interface", "x", reflect.TypeOf((*error)(nil)).Elem()},
		{"nil type", "x", nil},
		{"string overflows int8", "300", reflect.TypeOf(int8(0))},
		{"string overflows uint16", "70000", reflect.TypeOf(uint16(0))},
		{"int overflows uint16", 70000, reflect.TypeOf(uint16(0))},
		{"int overflows named port", 70000, reflect.TypeOf(port(0))},
		{"fraction to int", 1.5, reflect.TypeOf(0)},
		{"float overflows int64", 1e20, reflect.TypeOf(int64(0))},
		{"uint64 overflows int64", uint64(math.MaxUint64), reflect.TypeOf(int64(0))},
		{"negative to uint", -1, reflect.TypeOf(uint(0))},
		{"negative string to uint", "-1", reflect.TypeOf(uint(0))},
		{"hex string to int", "0x10", reflect.TypeOf(0)},
		{"float overflows float32", 1e40, reflect.TypeOf(float32(0))},
		{"fraction in int list", []any{1, 1.5}, reflect.TypeOf([]int(nil))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := property.NewRawProperty("file:a.yaml", "app.port", tt.value)
			_, err := caster.Validate(raw, tt.target)
			require.Error(t, err)
			assert.ErrorIs(t, err, errdef.ErrValidation)
		})
	}
}

func TestCaster_ErrorData(t *testing.T) {
	raw := property.NewRawProperty("file:a.yaml", "app.port", "notanumber")
	_, err := NewCaster().Validate(raw, reflect.TypeOf(0))

	var layered *errcode.LayeredError
	require.ErrorAs(t, err, &layered)
	assert.Equal(t, "app.port", layered.Data()["key"])
	assert.Equal(t, "notanumber", layered.Data()["value"])
	assert.Equal(t, "int", layered.Data()["type"])
	assert.Equal(t, "file:a.yaml", layered.Data()["source"])
	assert.NotNil(t, layered.Cause())
}

func TestSupports(t *testing.T) {
	assert.True(t, Supports(reflect.TypeOf(0)))
	assert.True(t, Supports(reflect.TypeOf(level(""))))
	assert.True(t, Supports(reflect.TypeOf(time.Second)))
	assert.True(t, Supports(reflect.TypeOf([]string{})))
	assert.False(t, Supports(reflect.TypeOf(struct{}{})))
	assert.False(t, Supports(reflect.TypeOf(func() {})))
	assert.False(t, Supports(nil))
}

func TestValidatorFunc(t *testing.T) {
	var v Validator = ValidatorFunc(func(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error) {
		return property.ValidatedProperty{RawProperty: raw, MemberType: target, Coerced: "fixed"}, nil
	})
	got, err := v.Validate(property.NewRawProperty("s", "k", 1), reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "fixed", got.Coerced)
}
