package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/bilgisen/newsflow/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// AuthConfig configures the API key middleware
type AuthConfig struct {
	// Next skips the check when it returns true
	Next func(c *fiber.Ctx) bool

	// Validator decides whether a presented key is accepted. Required.
	Validator func(key string) (bool, error)

	// ErrorHandler answers rejected requests. Default: 401 JSON error
	ErrorHandler fiber.ErrorHandler

	// ContextKey stores the accepted key in c.Locals. Default: "apiKey"
	ContextKey string

	// Header carries the key. Default: "X-API-Key"
	Header string
}

// ConfigDefault is the default config
var ConfigDefault = AuthConfig{
	Next: nil,
	ErrorHandler: func(c *fiber.Ctx, err error) error {
		logger.Get().Warn().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Err(err).
			Msg("Authentication failed")

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or missing API Key",
		})
	},
	ContextKey: "apiKey",
	Header:     "X-API-Key",
}

// NewAuth creates an API key middleware
func NewAuth(config ...AuthConfig) fiber.Handler {
	cfg := ConfigDefault

	if len(config) > 0 {
		cfg = config[0]

		if cfg.ErrorHandler == nil {
			cfg.ErrorHandler = ConfigDefault.ErrorHandler
		}
		if cfg.ContextKey == "" {
			cfg.ContextKey = ConfigDefault.ContextKey
		}
		if cfg.Header == "" {
			cfg.Header = ConfigDefault.Header
		}
	}
	if cfg.Validator == nil {
		panic("middleware: auth requires a Validator")
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		authHeader := c.Get(cfg.Header)
		if authHeader == "" {
			return cfg.ErrorHandler(c, errors.New("missing API key"))
		}

		// For "Bearer " prefixed tokens
		token := strings.TrimPrefix(authHeader, "Bearer ")

		valid, err := cfg.Validator(token)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}
		if !valid {
			return cfg.ErrorHandler(c, errors.New("invalid API key"))
		}

		c.Locals(cfg.ContextKey, token)
		return c.Next()
	}
}

// AdminOnly guards admin routes with a static key. An empty key disables the check.
func AdminOnly(adminKey string) fiber.Handler {
	return NewAuth(AuthConfig{
		Next: func(c *fiber.Ctx) bool {
			return adminKey == ""
		},
		Validator: StaticKey(adminKey),
	})
}

// StaticKey validates against a single shared key in constant time.
func StaticKey(expected string) func(string) (bool, error) {
	return func(key string) (bool, error) {
		return subtle.ConstantTimeCompare([]byte(key), []byte(expected)) == 1, nil
	}
}
