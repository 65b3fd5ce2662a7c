package payload

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names.
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// describe turns the first failed tag into a message naming the entry,
// e.g. "missing required field 'team_owner' in teams[1]".
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	parent := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		parent = path[:i]
	}

	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s cannot be empty", path)
	case "required":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s cannot be empty", path)
		}
		return fmt.Sprintf("missing required field '%s' in %s", fe.Field(), parent)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", path, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s: a team cannot play itself", parent)
	case "unique":
		field := fe.Param()
		if sf, ok := fe.Type().Elem().FieldByName(field); ok {
			field = jsonName(sf)
		}
		return fmt.Sprintf("%s: duplicate %s", path, field)
	}
	return fmt.Sprintf("%s failed '%s' check", path, fe.Tag())
}
