// Package build assembles configuration objects from resolved properties.
package build

import (
	"reflect"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	"github.com/KOMKZ/go-yogan-confres/members"
	"github.com/KOMKZ/go-yogan-confres/property"
	"github.com/KOMKZ/go-yogan-confres/validator"
	"github.com/mitchellh/mapstructure"
)

// Builder writes resolved properties into target
type Builder interface {
	Build(eligible *property.MemberSet, set *property.ResolvedSet, target any) error
}

// StructBuilder fills a struct. Members carrying a field index are assigned
// in place, so promoted and shadowed fields follow Go's rules; the others go
// through mapstructure using the `config` tag. Fields without a resolved
// property keep the value they already had, so defaults set before Build
// survive.
type StructBuilder struct {
	validator *validator.Validator
}

// NewStructBuilder creates a struct builder
func NewStructBuilder() *StructBuilder {
	return &StructBuilder{validator: validator.New()}
}

// Build implements Builder. target must be a non-nil pointer to a struct.
func (b *StructBuilder) Build(eligible *property.MemberSet, set *property.ResolvedSet, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errdef.ErrConstruction.WithMsgf("target must be a non-nil pointer to struct, got %T", target)
	}

	// 1. required members
	if err := CheckRequired(eligible, set); err != nil {
		return err
	}

	// 2. members that know their field are set directly, the rest decode
	// by property name
	rest := make(map[string]any)
	for _, key := range set.Keys() {
		v, _ := set.Get(key)
		member, ok := eligible.Lookup(key)
		if !ok || member.Field == nil {
			rest[key] = v.Coerced
			continue
		}
		if err := setField(rv.Elem(), member, v.Coerced); err != nil {
			return err
		}
	}

	if len(rest) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: members.TagName,
			Squash:  true,
			Result:  target,
		})
		if err != nil {
			return errdef.ErrConstruction.WithMsg("create decoder failed").Wrap(err)
		}
		if err := decoder.Decode(rest); err != nil {
			return errdef.ErrConstruction.WithMsgf("decode %T failed", target).Wrap(err)
		}
	}

	// 3. struct tags and Validate()
	return b.validator.Validate(target)
}

func setField(root reflect.Value, member property.MemberDescriptor, value any) error {
	fv := root
	for _, i := range member.Field {
		if fv.Kind() != reflect.Struct || i >= fv.NumField() {
			return unsettable(root, member)
		}
		fv = fv.Field(i)
	}
	if !fv.CanSet() {
		return unsettable(root, member)
	}

	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(fv.Type()):
		fv.Set(v)
	case v.Type().ConvertibleTo(fv.Type()):
		fv.Set(v.Convert(fv.Type()))
	default:
		return errdef.ErrConstruction.
			WithMsgf("member %s: %s is not assignable to %s", member.Name, v.Type(), fv.Type()).
			WithData("member", member.Name)
	}
	return nil
}

func unsettable(root reflect.Value, member property.MemberDescriptor) error {
	return errdef.ErrConstruction.
		WithMsgf("member %s: field %v of %s cannot be set", member.Name, member.Field, root.Type()).
		WithData("member", member.Name)
}
