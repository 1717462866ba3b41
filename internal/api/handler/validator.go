package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caparizon/qa-dashboard/internal/pkg/schema"
)

// echoValidator lets Echo call c.Validate(req) with the shared validator.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() echo.Validator {
	return echoValidator{}
}

// Validate satisfies the echo.Validator interface. Failures are reported as
// 422 with one message per field.
func (echoValidator) Validate(i any) error {
	if err := schema.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
