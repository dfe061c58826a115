package internal

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct tag validation and converts failures into
// a single validation AppError listing the offending fields.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError("invalid request payload", ErrCodeValidationFailed).WithCause(err)
	}

	details := make(map[string]any, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		details[field] = fmt.Sprintf("failed on %q", fe.Tag())
		fields = append(fields, field)
	}

	return NewValidationError(
		fmt.Sprintf("validation failed for: %s", strings.Join(fields, ", ")),
		ErrCodeValidationFailed,
	).WithDetails(details)
}
