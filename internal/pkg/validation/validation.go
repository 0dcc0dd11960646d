// Package validation builds the shared input validator.
package validation

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports json field names and registers the
// custom tags used by service inputs.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("nonnegative", nonNegative)
	_ = v.RegisterValidation("decimal", decimal)
	_ = v.RegisterValidation("maxbytes", maxBytes)

	return v
}

// nonNegative accepts numbers and numeric strings that are >= 0.
func nonNegative(fl validator.FieldLevel) bool {
	field := fl.Field()

	switch field.Kind() {
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(field.String()), 64)
		return err == nil && f >= 0
	case reflect.Float32, reflect.Float64:
		return field.Float() >= 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() >= 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// decimal accepts strings that parse as a finite float, including exponent
// forms such as "1e3".
func decimal(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(field.String()), 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// maxBytes limits the encoded length of a string. bcrypt rejects passwords
// longer than 72 bytes, which a rune-counting max does not catch.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil || fl.Field().Kind() != reflect.String {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// IsValidationError reports whether err carries field validation failures.
func IsValidationError(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}
