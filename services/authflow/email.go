package authflow

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidEmail applies the same "required,email" rule gin uses for bound
// request fields.
func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
