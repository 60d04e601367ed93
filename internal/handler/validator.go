package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to echo's Validator interface
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns the request validator
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate checks struct tags and converts failures into a 400 with
// field-level messages
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		fields := make(map[string]string, len(invalid))
		for _, fe := range invalid {
			fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed %q validation", fe.Tag())
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
}
