// Package flagx binds cobra flags to tagged struct fields.
package flagx

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var durationType = reflect.TypeOf(time.Duration(0))

// flagField one tagged struct field
type flagField struct {
	value    reflect.Value
	typ      reflect.Type
	name     string
	short    string
	usage    string
	def      string
	required bool
}

// BindFlags registers a flag for every tagged field of target
//
// Usage:
//
//	type ResolveFlags struct {
//	    Dir     string        `flag:"dir,d" usage:"configuration directory" default:"./configs"`
//	    Members []string      `flag:"member,m" usage:"member name:type[:required]" required:"true"`
//	    Timeout time.Duration `flag:"timeout" default:"10s"`
//	}
//
//	var f ResolveFlags
//	flagx.BindFlags(cmd, &f)
//
// Supported tags:
//   - flag: flag name with optional short name (mandatory)
//   - usage: help text
//   - default: default value, parsed for the field type
//   - required: "true" marks the flag required
func BindFlags(cmd *cobra.Command, target any) error {
	fields, err := collect(target)
	if err != nil {
		return err
	}

	for _, f := range fields {
		if err := register(cmd, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", f.name, err)
		}
		if f.required {
			if err := cmd.MarkFlagRequired(f.name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseFlags copies parsed flag values into the tagged fields of target
//
// Usage:
//
//	var f ResolveFlags
//	if err := flagx.ParseFlags(cmd, &f); err != nil {
//	    return err
//	}
func ParseFlags(cmd *cobra.Command, target any) error {
	fields, err := collect(target)
	if err != nil {
		return err
	}

	for _, f := range fields {
		if err := assign(cmd, f); err != nil {
			return fmt.Errorf("parse flag %s: %w", f.name, err)
		}
	}
	return nil
}

func collect(target any) ([]flagField, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a pointer to struct")
	}

	v = v.Elem()
	t := v.Type()

	var fields []flagField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("flag")
		if tag == "" || !sf.IsExported() {
			continue
		}

		name, short, _ := strings.Cut(tag, ",")
		fields = append(fields, flagField{
			value:    v.Field(i),
			typ:      sf.Type,
			name:     name,
			short:    short,
			usage:    sf.Tag.Get("usage"),
			def:      sf.Tag.Get("default"),
			required: sf.Tag.Get("required") == "true",
		})
	}
	return fields, nil
}

func register(cmd *cobra.Command, f flagField) error {
	flags := cmd.Flags()

	if f.typ == durationType {
		def, err := cast.ToDurationE(defaultOr(f.def, "0s"))
		if err != nil {
			return err
		}
		flags.DurationP(f.name, f.short, def, f.usage)
		return nil
	}

	switch f.typ.Kind() {
	case reflect.String:
		flags.StringP(f.name, f.short, f.def, f.usage)

	case reflect.Int:
		def, err := cast.ToIntE(defaultOr(f.def, "0"))
		if err != nil {
			return err
		}
		flags.IntP(f.name, f.short, def, f.usage)

	case reflect.Uint:
		def, err := cast.ToUintE(defaultOr(f.def, "0"))
		if err != nil {
			return err
		}
		flags.UintP(f.name, f.short, def, f.usage)

	case reflect.Bool:
		def, err := cast.ToBoolE(defaultOr(f.def, "false"))
		if err != nil {
			return err
		}
		flags.BoolP(f.name, f.short, def, f.usage)

	case reflect.Float64:
		def, err := cast.ToFloat64E(defaultOr(f.def, "0"))
		if err != nil {
			return err
		}
		flags.Float64P(f.name, f.short, def, f.usage)

	case reflect.Slice:
		var def []string
		if f.def != "" {
			def = strings.Split(f.def, ",")
		}
		switch f.typ.Elem().Kind() {
		case reflect.String:
			flags.StringSliceP(f.name, f.short, def, f.usage)
		case reflect.Int:
			ints, err := cast.ToIntSliceE(def)
			if err != nil {
				return err
			}
			flags.IntSliceP(f.name, f.short, ints, f.usage)
		default:
			return fmt.Errorf("unsupported slice element type: %s", f.typ.Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", f.typ.Kind())
	}

	return nil
}

func assign(cmd *cobra.Command, f flagField) error {
	flags := cmd.Flags()

	var (
		val any
		err error
	)
	if f.typ == durationType {
		val, err = flags.GetDuration(f.name)
	} else {
		switch f.typ.Kind() {
		case reflect.String:
			val, err = flags.GetString(f.name)
		case reflect.Int:
			val, err = flags.GetInt(f.name)
		case reflect.Uint:
			val, err = flags.GetUint(f.name)
		case reflect.Bool:
			val, err = flags.GetBool(f.name)
		case reflect.Float64:
			val, err = flags.GetFloat64(f.name)
		case reflect.Slice:
			switch f.typ.Elem().Kind() {
			case reflect.String:
				val, err = flags.GetStringSlice(f.name)
			case reflect.Int:
				val, err = flags.GetIntSlice(f.name)
			default:
				return fmt.Errorf("unsupported slice element type: %s", f.typ.Elem().Kind())
			}
		default:
			return fmt.Errorf("unsupported field type: %s", f.typ.Kind())
		}
	}
	if err != nil {
		return err
	}

	f.value.Set(reflect.ValueOf(val).Convert(f.typ))
	return nil
}

func defaultOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
