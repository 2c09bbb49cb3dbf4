package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Error taxonomy shared by services and controllers.
var (
	ErrNotFound     = errors.New("not_found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation_failed")
	ErrUpstream     = errors.New("upstream_unavailable")
	ErrConflict     = errors.New("conflict")
)

// FieldError reports which input field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// FieldErrors is a set of field level validation failures.
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrValidation }

// Fields returns field -> message, handy for JSON responses.
func (fe FieldErrors) Fields() map[string]string {
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		out[e.Field] = e.Message
	}
	return out
}

// Invalid builds a single field validation error.
func Invalid(field, message string) error {
	return FieldErrors{{Field: field, Message: message}}
}

// NotFound wraps ErrNotFound with the resource name.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Conflict reports a request that does not fit the current state.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Upstream wraps an RPC/network failure.
func Upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUpstream, err)
}

// FromValidator converts go-playground validation errors into FieldErrors.
func FromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, v := range verrs {
		out = append(out, &FieldError{Field: jsonFieldName(v), Message: describeTag(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func jsonFieldName(v validator.FieldError) string {
	name := v.Field()
	if name == "" {
		return v.StructField()
	}
	return name
}

func describeTag(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + v.Param()
	case "max":
		return "must be at most " + v.Param()
	case "oneof":
		return "must be one of " + v.Param()
	case "url":
		return "must be a valid URL"
	case "eth_addr":
		return "must be a 0x-prefixed 20 byte hex address"
	case "numeric":
		return "must be numeric"
	default:
		return "failed '" + v.Tag() + "' validation"
	}
}

// Status maps an error to the HTTP status and error code used in responses.
func Status(err error) (int, string) {
	switch {
	case err == nil:
		return fiber.StatusOK, ""
	case errors.Is(err, ErrValidation):
		return fiber.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden, "forbidden"
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict, "conflict"
	case errors.Is(err, ErrUpstream):
		return fiber.StatusBadGateway, "upstream_unavailable"
	default:
		return fiber.StatusInternalServerError, "internal_server_error"
	}
}
