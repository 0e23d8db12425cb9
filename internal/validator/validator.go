package validator

import (
	"github.com/go-playground/validator/v10"
)

// Validator wraps validator/v10 with the service's custom tags.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

func New() *Validator {
	validate := validator.New()
	return &Validator{
		validate: validate,
		business: newBusinessValidator(validate),
	}
}

// Validate returns ValidationErrors when s breaks a tag rule, nil otherwise.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}
