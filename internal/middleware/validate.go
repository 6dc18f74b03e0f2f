package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validator is a struct that holds the validator instance
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate validates s against its struct tags
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// fieldErrors flattens validation errors to field → failed tag
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}

// ValidateRequest parses the body into a fresh value from newBody and stores
// it under the "validated" local.
func ValidateRequest(newBody func() interface{}) fiber.Handler {
	v := NewValidator()

	return func(c *fiber.Ctx) error {
		s := newBody()
		if err := c.BodyParser(s); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
				"msg":   err.Error(),
			})
		}

		if err := v.Validate(s); err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "Validation failed",
				"fields": fieldErrors(err),
			})
		}

		c.Locals("validated", s)
		return c.Next()
	}
}

// ValidateQueryParams parses the query string into a fresh value from newParams
// and stores it under the "queryParams" local. Bad input of either kind is a 400.
func ValidateQueryParams(newParams func() interface{}) fiber.Handler {
	v := NewValidator()

	return func(c *fiber.Ctx) error {
		s := newParams()
		if err := c.QueryParser(s); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid query parameters",
				"msg":   err.Error(),
			})
		}

		if err := v.Validate(s); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Invalid query parameters",
				"fields": fieldErrors(err),
			})
		}

		c.Locals("queryParams", s)
		return c.Next()
	}
}
