// Package request extracts the authenticated identity, path ids and
// partial update payloads from fiber requests.
package request

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/types"
	sharederrors "github.com/fieldcrew/api/shared/errors"
)

// User returns the identity attached by the auth middleware. A context
// without a business is rejected since every read and write is tenant scoped.
func User(c *fiber.Ctx) (types.UserContext, error) {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok || user.BusinessID == uuid.Nil {
		return types.UserContext{}, sharederrors.ErrMissingUserContext
	}
	return user, nil
}

// ID parses the uuid path parameter named param
func ID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	raw := c.Params(param)
	if raw == "" {
		return uuid.Nil, sharederrors.Validation("%s is required", param)
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", sharederrors.ErrInvalidUUID, param)
	}
	return id, nil
}

// Patch decodes a JSON object body into a record keyed by column. fields maps
// the accepted JSON names to their columns. Explicit nulls are kept so a
// field can be cleared.
func Patch(c *fiber.Ctx, fields map[string]string) (tenant.Record, error) {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return tenant.Record{}, nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, sharederrors.Validation("request body must be a JSON object")
	}

	var unknown []string
	record := make(tenant.Record, len(raw))
	for key, value := range raw {
		column, ok := fields[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		record[column] = value
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, sharederrors.Validation("unknown fields: %s", strings.Join(unknown, ", "))
	}
	return record, nil
}
