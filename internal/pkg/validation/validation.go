// Package validation checks request schemas declared with go-playground
// struct tags and reports the first failing field as a domain
// VALIDATION_ERROR.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/quillpress/blog-api/internal/core/domain"
)

// maxBcryptBytes is the longest input bcrypt accepts. Tag min/max count
// runes, so multibyte passwords need a separate byte check.
const maxBcryptBytes = 72

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	tagPattern      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Validator wraps a configured validator.Validate. It is safe for
// concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the project's custom tags registered:
//
//	username  letters, digits and underscore
//	tag       lowercase words joined by single hyphens
//	bcryptlen at most 72 bytes once UTF-8 encoded
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return tagPattern.MatchString(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxBcryptBytes
	})
	return &Validator{v: v}
}

// Struct validates s and returns a *domain.Error for the first failing field.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return domain.NewValidationError(fieldPath(fe), message(fe))
	}
	return fmt.Errorf("validate: %w", err)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return strings.ToLower(f.Name[:1]) + f.Name[1:]
	}
	return name
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read as "tags[2]" rather than "CreateArticleInput.tags[2]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "eq":
		return fmt.Sprintf("%s must be %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		switch fe.Kind() {
		case reflect.Slice:
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		case reflect.Int, reflect.Int64:
			return fmt.Sprintf("%s must be at most %s", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "username":
		return field + " may only contain letters, digits and underscores"
	case "tag":
		return field + " must be lowercase words separated by hyphens"
	case "bcryptlen":
		return fmt.Sprintf("%s must be at most %d bytes", field, maxBcryptBytes)
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
