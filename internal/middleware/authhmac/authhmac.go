package authhmac

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/pkg/log"
	"github.com/fieldcrew/api/internal/types"
)

// New creates a new middleware handler
func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		auth := c.Get(types.HeaderHMACAuthenticate)
		uid := c.Get(types.HeaderUID)
		businessID := c.Get(types.HeaderBusinessID)
		timestamp := c.Get(types.HeaderTimestamp)
		role := c.Get(types.HeaderRole)

		if auth == "" || uid == "" || businessID == "" || timestamp == "" {
			log.WarnWithContext(c.UserContext(), "Unauthorized! HMAC request is missing %s, %s, %s or %s header",
				types.HeaderHMACAuthenticate, types.HeaderUID, types.HeaderBusinessID, types.HeaderTimestamp)
			return cfg.Unauthorized(c)
		}

		req := Request{
			Method:     c.Method(),
			Path:       c.Path(),
			Query:      string(c.Context().URI().QueryString()),
			Body:       c.Body(),
			UID:        uid,
			BusinessID: businessID,
			Role:       role,
			Timestamp:  timestamp,
		}
		if err := cfg.Authorizer(req, auth); err != nil {
			log.ErrorWithContext(c.UserContext(), "HMAC validation failed: %v", err)
			return cfg.Unauthorized(c)
		}

		userUUID, err := uuid.FromString(uid)
		if err != nil {
			log.ErrorWithContext(c.UserContext(), "Invalid uid format: %v", err)
			return cfg.Unauthorized(c)
		}
		businessUUID, err := uuid.FromString(businessID)
		if err != nil {
			log.ErrorWithContext(c.UserContext(), "Invalid business id format: %v", err)
			return cfg.Unauthorized(c)
		}

		if role == "" {
			role = types.RoleAdmin
		}

		var createdDate int64
		if ts, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
			createdDate = ts
		}

		c.Locals(cfg.UserCtxName, types.UserContext{
			UserID:      userUUID,
			BusinessID:  businessUUID,
			Role:        role,
			DisplayName: "service",
			CreatedDate: createdDate,
		})
		c.SetUserContext(log.WithBusinessID(c.UserContext(), businessUUID.String()))

		return c.Next()
	}
}
