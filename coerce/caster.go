// Package coerce turns raw property values into the types members declare.
package coerce

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/spf13/cast"
)

// Validator checks a raw property against a member type and returns the
// coerced value. Implementations must be pure and safe for concurrent use.
type Validator interface {
	Validate(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error)
}

// ValidatorFunc adapts a function to Validator
type ValidatorFunc func(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error)

// Validate implements Validator
func (f ValidatorFunc) Validate(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error) {
	return f(raw, target)
}

var (
	durationType  = reflect.TypeOf(time.Duration(0))
	timeType      = reflect.TypeOf(time.Time{})
	stringsType   = reflect.TypeOf([]string(nil))
	intType       = reflect.TypeOf(0)
	intsType      = reflect.TypeOf([]int(nil))
	stringMapType = reflect.TypeOf(map[string]string(nil))
	anyMapType    = reflect.TypeOf(map[string]any(nil))
)

// Caster coerces with spf13/cast, so "8080" fits an int member and
// "1m30s" fits a time.Duration.
type Caster struct{}

// NewCaster creates a Caster
func NewCaster() *Caster {
	return &Caster{}
}

// Validate implements Validator
func (c *Caster) Validate(raw property.RawProperty, target reflect.Type) (property.ValidatedProperty, error) {
	if target == nil {
		return property.ValidatedProperty{}, invalid(raw, target, fmt.Errorf("no target type"))
	}

	value, err := c.Coerce(raw.Value, target)
	if err != nil {
		return property.ValidatedProperty{}, invalid(raw, target, err)
	}

	return property.ValidatedProperty{
		RawProperty: raw,
		MemberType:  target,
		Coerced:     value,
	}, nil
}

// Coerce converts value to target. The result is assignable to target.
func (c *Caster) Coerce(value any, target reflect.Type) (any, error) {
	// exact type matches go through untouched
	if value != nil && reflect.TypeOf(value) == target {
		return value, nil
	}

	switch target {
	case durationType:
		return cast.ToDurationE(value)
	case timeType:
		return cast.ToTimeE(value)
	case stringsType:
		return cast.ToStringSliceE(value)
	case intsType:
		return toInts(value)
	case stringMapType:
		return cast.ToStringMapStringE(value)
	case anyMapType:
		return cast.ToStringMapE(value)
	}

	if target.Kind() == reflect.Interface {
		if target.NumMethod() != 0 {
			return nil, fmt.Errorf("unsupported interface type %s", target)
		}
		return value, nil
	}

	v, err := castKind(value, target)
	if err != nil {
		return nil, err
	}

	// named types (type Level string) share the kind of their underlying type
	rv := reflect.ValueOf(v)
	if rv.Type() != target {
		if !rv.Type().ConvertibleTo(target) {
			return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), target)
		}
		return rv.Convert(target).Interface(), nil
	}
	return v, nil
}

// castKind converts value to the kind of target. Numeric kinds come back
// as target itself and never wrap or truncate.
func castKind(value any, target reflect.Type) (any, error) {
	switch target.Kind() {
	case reflect.String:
		return cast.ToStringE(value)
	case reflect.Bool:
		return cast.ToBoolE(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(value)
		if err != nil {
			return nil, err
		}
		if reflect.Zero(target).OverflowInt(n) {
			return nil, fmt.Errorf("%d overflows %s", n, target)
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toUint64(value)
		if err != nil {
			return nil, err
		}
		if reflect.Zero(target).OverflowUint(n) {
			return nil, fmt.Errorf("%d overflows %s", n, target)
		}
		return reflect.ValueOf(n).Convert(target).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, err
		}
		if reflect.Zero(target).OverflowFloat(f) {
			return nil, fmt.Errorf("%g overflows %s", f, target)
		}
		return reflect.ValueOf(f).Convert(target).Interface(), nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", target.Kind())
	}
}

// toInt64 accepts integers, integral floats and base 10 strings
func toInt64(value any) (int64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f, err := integral(rv.Float())
		if err != nil {
			return 0, err
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, fmt.Errorf("%g overflows int64", f)
		}
		return int64(f), nil
	case reflect.String:
		return strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
	}
	return cast.ToInt64E(value)
}

// toUint64 is toInt64 for unsigned targets; negative values are rejected
func toUint64(value any) (uint64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return uint64(n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f, err := integral(rv.Float())
		if err != nil {
			return 0, err
		}
		if f < 0 || f >= math.MaxUint64 {
			return 0, fmt.Errorf("%g out of range for uint64", f)
		}
		return uint64(f), nil
	case reflect.String:
		return strconv.ParseUint(strings.TrimSpace(rv.String()), 10, 64)
	}
	return cast.ToUint64E(value)
}

func integral(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%g is not an integer", f)
	}
	return f, nil
}

// toInts coerces every element with the int rules above
func toInts(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return cast.ToIntSliceE(value)
	}
	out := make([]int, rv.Len())
	for i := range out {
		n, err := castKind(rv.Index(i).Interface(), intType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n.(int)
	}
	return out, nil
}

// Supports reports whether Caster can produce values of type t
func Supports(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t {
	case durationType, timeType, stringsType, intsType, stringMapType, anyMapType:
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Interface:
		return t.NumMethod() == 0
	}
	return false
}

func invalid(raw property.RawProperty, target reflect.Type, cause error) error {
	typeName := "<nil>"
	if target != nil {
		typeName = target.String()
	}
	return errdef.ErrValidation.
		WithMsgf("property %s: value %v is not a valid %s", raw.FullName, raw.Value, typeName).
		WithFields(map[string]any{
			"source": raw.Source,
			"key":    raw.FullName,
			"value":  raw.Value,
			"type":   typeName,
		}).
		Wrap(cause)
}
