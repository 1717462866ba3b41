// Package schema validates payloads crossing the I/O boundary (backend
// replies, stored session records) before they reach the session layer.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Identity checks the structural rules of an identity payload. Failures wrap
// domain.ErrDeserialization.
func Identity(id domain.Identity) error {
	if err := instance().Struct(id); err != nil {
		return fmt.Errorf("%w: identity: %s", domain.ErrDeserialization, describe(err))
	}
	return nil
}

// Patch checks an identity patch before it is sent to the backend. Failures
// are returned as *domain.ValidationError.
func Patch(p domain.IdentityPatch) error {
	if err := instance().Struct(p); err != nil {
		return &domain.ValidationError{Message: describe(err)}
	}
	return nil
}

// NewUser checks an account creation request before it is sent to the
// backend. Failures are returned as *domain.ValidationError.
func NewUser(u domain.NewUser) error {
	if err := instance().Struct(u); err != nil {
		return &domain.ValidationError{Message: describe(err)}
	}
	return nil
}

// Struct validates any struct carrying validate tags and flattens failures
// into a single message.
func Struct(v any) error {
	if err := instance().Struct(v); err != nil {
		return errors.New(describe(err))
	}
	return nil
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed validation (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
