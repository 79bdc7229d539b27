package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	details := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := lowerCamel(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", field))
		default:
			details = append(details, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(details, ", ")
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
