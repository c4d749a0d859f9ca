package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"finsight/internal/dataprocessing"
	apperrors "finsight/internal/errors"
)

// RequestValidator validates request contracts using struct tags
type RequestValidator struct {
	validator *validator.Validate
}

// NewRequestValidator creates a validator with the finsight custom tags registered
func NewRequestValidator() *RequestValidator {
	v := validator.New()

	// Register custom validators
	v.RegisterValidation("datestr", isDateString)
	v.RegisterValidation("dataset", isDatasetName)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{validator: v}
}

// ValidateStruct validates v and returns an INVALID_PARAMETER AppError
// listing every failing field
func (rv *RequestValidator) ValidateStruct(v interface{}) error {
	err := rv.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInvalidParameterError(err.Error())
	}

	messages := make([]string, 0, len(fieldErrs))
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatValidationError(fe))
		fields = append(fields, fe.Namespace())
	}
	return apperrors.NewInvalidParameterError(strings.Join(messages, "; ")).
		WithContext("fields", fields)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datestr":
		return fmt.Sprintf("%s must be a date such as 2024-01-31", field)
	case "dataset":
		return fmt.Sprintf("%s must be a dataset name without path separators", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// Custom validators

// isDateString accepts anything the loader's date layouts parse
func isDateString(fl validator.FieldLevel) bool {
	_, ok := dataprocessing.ParseTime(fl.Field().String())
	return ok
}

// isDatasetName rejects names that could escape the data root
func isDatasetName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" {
		return false
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return false
	}
	return len(name) <= 255
}
