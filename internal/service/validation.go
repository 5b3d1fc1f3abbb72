package service

import (
	"errors"

	"qualidoc/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// invalidRequest converts an ozzo validation result into the domain
// ValidationError carrying the field->message map the front-end renders
// inline.
func invalidRequest(err error) error {
	fields := make(map[string]string)

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
	}

	return &domain.ValidationError{
		Message: "validation failed",
		Fields:  fields,
	}
}
