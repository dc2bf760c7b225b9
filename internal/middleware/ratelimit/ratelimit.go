// Package ratelimit throttles API requests per tenant and client address
package ratelimit

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fieldcrew/api/internal/pkg/log"
	"github.com/fieldcrew/api/internal/types"
)

// Config holds the configuration for rate limiting middleware
type Config struct {
	// Max requests per window. Default 300.
	Max int

	// Window length. Default one minute.
	Expiration time.Duration

	// Storage for counters. Default is fiber's in-memory store.
	Storage fiber.Storage

	// Next defines a function to skip this middleware when returned true
	Next func(c *fiber.Ctx) bool

	// Custom key generator (optional - uses business + IP if not provided)
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReached defines the response when rate limit is exceeded
	LimitReached func(c *fiber.Ctx) error
}

func configDefault(config Config) Config {
	if config.Max <= 0 {
		config.Max = 300
	}
	if config.Expiration <= 0 {
		config.Expiration = time.Minute
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = Key
	}
	if config.LimitReached == nil {
		retryAfter := int(config.Expiration.Seconds())
		config.LimitReached = func(c *fiber.Ctx) error {
			log.WarnWithContext(c.UserContext(), "[RateLimit] Rate limit exceeded for key %s", config.KeyGenerator(c))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code":       "RATE_LIMIT_EXCEEDED",
				"message":    "Too many requests. Please try again later.",
				"retryAfter": retryAfter,
			})
		}
	}
	return config
}

// Key identifies the caller by tenant when authenticated, and always by IP
func Key(c *fiber.Ctx) string {
	if user, ok := c.Locals(types.UserCtxName).(types.UserContext); ok {
		return user.BusinessID.String() + ":" + c.IP()
	}
	return "anonymous:" + c.IP()
}

// New creates a new rate limiting middleware handler
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return limiter.New(limiter.Config{
		Max:          cfg.Max,
		Expiration:   cfg.Expiration,
		KeyGenerator: cfg.KeyGenerator,
		LimitReached: cfg.LimitReached,
		Next:         cfg.Next,
		Storage:      cfg.Storage,
	})
}
