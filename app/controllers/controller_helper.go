package controllers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/TierFox/internal/pkg/apperrors"
	"github.com/ManuelReschke/TierFox/internal/pkg/logging"
	"github.com/ManuelReschke/TierFox/internal/pkg/usercontext"
	"github.com/ManuelReschke/TierFox/internal/pkg/wallet"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// respondError writes the JSON error envelope for err.
func respondError(c *fiber.Ctx, err error) error {
	status, code := apperrors.Status(err)
	body := fiber.Map{"error": code, "message": err.Error()}

	var fe apperrors.FieldErrors
	if errors.As(err, &fe) {
		body["fields"] = fe.Fields()
		body["message"] = "validation failed"
	}
	if status >= fiber.StatusInternalServerError {
		logging.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err))
		if status == fiber.StatusInternalServerError {
			body["message"] = "internal error"
		}
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes the JSON body into dst and runs struct validation.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.Invalid("body", "malformed request body")
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return apperrors.FromValidator(err)
	}
	return nil
}

// callerAddress is the verified wallet of the request, or "".
func callerAddress(c *fiber.Ctx) string {
	return usercontext.GetAddress(c)
}

// addressParam reads and normalizes an address from a route param or query.
func addressParam(field, raw string) (string, error) {
	addr := wallet.Normalize(raw)
	if addr == "" {
		return "", apperrors.Invalid(field, "must be a 0x-prefixed 20 byte hex address")
	}
	return addr, nil
}

func uintParam(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperrors.Invalid(name, "must be a positive integer")
	}
	return uint(v), nil
}

// pagination reads offset/limit query params with sane bounds.
func pagination(c *fiber.Ctx) (int, int) {
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}
