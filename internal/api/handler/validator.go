package handler

import (
	"github.com/quillpress/blog-api/internal/pkg/validation"
)

// EchoValidator adapts validation.Validator so Echo can call c.Validate(req).
// Failures come back as domain VALIDATION_ERROR values.
type EchoValidator struct {
	v *validation.Validator
}

// NewValidator returns an EchoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator(v *validation.Validator) *EchoValidator {
	return &EchoValidator{v: v}
}

// Validate satisfies the echo.Validator interface.
func (ev *EchoValidator) Validate(i any) error {
	return ev.v.Struct(i)
}
