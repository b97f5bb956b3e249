package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GenericEchoValidator plugs go-playground/validator into echo's Context.Validate
type GenericEchoValidator struct {
	Validator *validator.Validate
}

func NewGenericEchoValidator() *GenericEchoValidator {
	return &GenericEchoValidator{Validator: validator.New()}
}

func (gv *GenericEchoValidator) Validate(i interface{}) error {
	if gv.Validator == nil {
		gv.Validator = validator.New()
	}
	if err := gv.Validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request body: %s", describeValidationError(err)))
	}
	return nil
}

// describeValidationError lists every failed field as "Field: tag=param"
func describeValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		rule := fieldError.Tag()
		if fieldError.Param() != "" {
			rule += "=" + fieldError.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fieldError.Field(), rule))
	}
	return strings.Join(parts, "; ")
}
