// utils/validate.go - request body validation helper
package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags over a request DTO and flattens the
// first failure into a client-readable message.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errs, ok := err.(validator.ValidationErrors); ok {
		ve = errs
	} else {
		return err
	}

	if len(ve) == 0 {
		return err
	}

	fe := ve[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email address", field)
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
