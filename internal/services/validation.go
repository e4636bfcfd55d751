package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

// messages maps "<field path>.<tag>" to the text shown to callers. The
// path omits the top-level struct so create and update share entries.
var messages = map[string]string{
	"Name.notblank":          "Product name is required.",
	"Name.max":               "Product name must not exceed 100 characters.",
	"Description.max":        "Product description must not exceed 500 characters.",
	"Price.gt":               "Price must be greater than zero.",
	"PageNumber.gte":         "Page number must be greater than 0.",
	"PageSize.gte":           "Page size must be between 1 and 100.",
	"PageSize.lte":           "Page size must be between 1 and 100.",
	"Filter.Name.max":        "Name must not exceed 100 characters.",
	"Filter.Description.max": "Description must not exceed 500 characters.",
}

// Validator checks inputs and renders failures as readable messages.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns a Validator that understands decimal amounts and
// the notblank rule.
func NewValidator() *Validator {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &Validator{validate: v}
}

// Check validates s and returns one message per failed rule, or nil.
func (v *Validator) Check(s interface{}) []string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	path := fe.StructNamespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	if msg, ok := messages[path+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed on the '%s' rule.", fe.Field(), fe.Tag())
}
