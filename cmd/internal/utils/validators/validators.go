package validators

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

func HasDigit(fl validator.FieldLevel) bool {
	val, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	for _, ch := range val {
		if unicode.IsDigit(ch) {
			return true
		}
	}
	return false
}

// FieldName reports fields by their json or query tag, so validation
// details match what clients actually sent.
func FieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// New returns a validator with the custom tags used by the request contracts.
func New() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(FieldName)
	_ = validate.RegisterValidation("hasdigit", HasDigit)
	return validate
}
