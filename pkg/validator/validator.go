// Package validator runs go-playground struct validation for request
// payloads and reports failures by their JSON field names.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one failed rule on one field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (e ValidationError) String() string {
	if e.Param == "" {
		return e.Field + ": " + e.Tag
	}
	return e.Field + ": " + e.Tag + "=" + e.Param
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.String()
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var engine = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}
	return v
})

// ValidateStruct checks s against its validate tags. Rule failures come back
// as ValidationErrors; any other error means s could not be validated at all.
func ValidateStruct(s any) error {
	err := engine().Struct(s)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return out
}

// RegisterValidation adds a custom tag to the shared validator.
func RegisterValidation(tag string, fn validator.Func) error {
	return engine().RegisterValidation(tag, fn)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	return f.Kind() != reflect.String || strings.TrimSpace(f.String()) != ""
}
