package dualauth

import (
	"github.com/gofiber/fiber/v2"

	authhmac "github.com/fieldcrew/api/internal/middleware/authhmac"
	authjwt "github.com/fieldcrew/api/internal/middleware/authjwt"
	"github.com/fieldcrew/api/internal/pkg/log"
	"github.com/fieldcrew/api/internal/types"
)

// Config holds the configuration needed for dual authentication middleware.
// Either method is disabled when its secret is empty.
type Config struct {
	PayloadSecret string // HMAC secret for S2S authentication
	PublicKey     string // ECDSA public key for JWT validation
	ClaimKey      string
}

// New creates dual authentication middleware for JWT + HMAC.
// A bearer token or access_token cookie is tried first; a signed
// service request is the fallback. Anything else is rejected with 401.
func New(cfg Config) (fiber.Handler, error) {
	var verifier *authjwt.Verifier
	if cfg.PublicKey != "" {
		v, err := authjwt.NewVerifier(cfg.PublicKey, cfg.ClaimKey)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	var hmacMiddleware fiber.Handler
	if cfg.PayloadSecret != "" {
		hmacMiddleware = authhmac.New(authhmac.Config{
			PayloadSecret: cfg.PayloadSecret,
		})
	}

	unauthorized := func(c *fiber.Ctx, message string) error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"code":    "UNAUTHORIZED",
			"message": message,
		})
	}

	return func(c *fiber.Ctx) error {
		if verifier != nil {
			if token := authjwt.TokenFromRequest(c); token != "" {
				userCtx, err := verifier.Validate(token)
				if err == nil {
					authjwt.Attach(c, types.UserCtxName, userCtx)
					return c.Next()
				}
				log.WarnWithContext(c.UserContext(), "JWT rejected: %v", err)
				if hmacMiddleware == nil || c.Get(types.HeaderHMACAuthenticate) == "" {
					return unauthorized(c, "Invalid token")
				}
			}
		}

		if hmacMiddleware != nil && c.Get(types.HeaderHMACAuthenticate) != "" {
			return hmacMiddleware(c)
		}

		return unauthorized(c, "Missing or invalid authentication credentials")
	}, nil
}
