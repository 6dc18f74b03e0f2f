package middleware

import (
	"errors"

	"github.com/bilgisen/newsflow/internal/collector"
	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/bilgisen/newsflow/internal/resolve"
	"github.com/bilgisen/newsflow/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	var fe *fiber.Error
	var se *resolve.StatusError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, collector.ErrNoArticles):
		return fiber.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate), errors.Is(err, collector.ErrRunInProgress):
		return fiber.StatusConflict
	case errors.Is(err, collector.ErrUnknownCategory):
		return fiber.StatusBadRequest
	case errors.Is(err, collector.ErrShutdown):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, resolve.ErrNotHTML):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &se):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler writes every handler error as {"error": message}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		logger.Get().Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("HTTP error")
		msg = fiber.ErrInternalServerError.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
