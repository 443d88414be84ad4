// Package validator checks built configuration objects and converts
// validation failures into LayeredError with per-field messages
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/KOMKZ/go-yogan-confres/errdef"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	playground "github.com/go-playground/validator/v10"
)

// Validatable configuration types with their own rules
type Validatable interface {
	Validate() error
}

// Validator runs `validate` struct tags, then Validate() when the
// target implements Validatable. Safe for concurrent use.
type Validator struct {
	tags *playground.Validate
}

// New creates a validator reporting fields by their `config` tag name
func New() *Validator {
	tags := playground.New(playground.WithRequiredStructEnabled())
	tags.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("config"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(field.Name)
		}
		return name
	})
	return &Validator{tags: tags}
}

// Validate checks target, a struct or pointer to struct
func (v *Validator) Validate(target any) error {
	if isStruct(target) {
		if err := v.tags.Struct(target); err != nil {
			var fieldErrs playground.ValidationErrors
			if errors.As(err, &fieldErrs) {
				return ConvertFieldErrors(fieldErrs)
			}
			return errdef.ErrConstruction.WithMsg("configuration validation failed").Wrap(err)
		}
	}

	if req, ok := target.(Validatable); ok {
		return ValidateRequest(req)
	}
	return nil
}

// ValidateRequest runs req.Validate and converts ozzo-validation errors
func ValidateRequest(req Validatable) error {
	err := req.Validate()
	if err == nil {
		return nil
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return ConvertValidationError(validationErrs)
	}

	return errdef.ErrConstruction.WithMsg("configuration validation failed").Wrap(err)
}

// ConvertValidationError converts ozzo-validation errors to ErrConstruction
// carrying field -> message under "fields"
func ConvertValidationError(validationErrs validation.Errors) error {
	fields := make(map[string]string)
	for field, fieldErr := range validationErrs {
		if fieldErr != nil {
			fields[field] = fieldErr.Error()
		}
	}
	return fieldsError(fields)
}

// ConvertFieldErrors converts go-playground errors the same way
func ConvertFieldErrors(fieldErrs playground.ValidationErrors) error {
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := "failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		fields[fe.Field()] = msg
	}
	return fieldsError(fields)
}

func fieldsError(fields map[string]string) error {
	return errdef.ErrConstruction.
		WithMsg("configuration validation failed").
		WithData("fields", fields)
}

func isStruct(target any) bool {
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
