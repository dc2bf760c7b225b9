package authjwt

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"

	"github.com/fieldcrew/api/internal/pkg/log"
	"github.com/fieldcrew/api/internal/types"
)

// AccessTokenCookie is read when no Authorization header is present
const AccessTokenCookie = "access_token"

// Config defines the config for the JWT middleware.
type Config struct {
	// The EC public key for validating ES256 tokens.
	PublicKey string
	// The claim key where the UserContext is stored.
	ClaimKey string
	// The context key to store the UserContext.
	UserCtxName string
}

// Verifier validates identity provider tokens with one parsed key
type Verifier struct {
	key      *ecdsa.PublicKey
	claimKey string
}

// NewVerifier parses the PEM public key once
func NewVerifier(publicKey, claimKey string) (*Verifier, error) {
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(publicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC public key: %w", err)
	}
	if claimKey == "" {
		claimKey = "claim"
	}
	return &Verifier{key: key, claimKey: claimKey}, nil
}

// Validate checks signature, expiry and claim shape and returns the identity
func (v *Verifier) Validate(tokenString string) (types.UserContext, error) {
	var userCtx types.UserContext

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return userCtx, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return userCtx, errors.New("invalid token")
	}

	claimData, ok := claims[v.claimKey].(map[string]interface{})
	if !ok {
		return userCtx, errors.New("invalid token claim format")
	}

	userCtx, err = mapToUserContext(claimData)
	if err != nil {
		return userCtx, fmt.Errorf("invalid user context in token: %w", err)
	}
	return userCtx, nil
}

// TokenFromRequest reads the bearer token, falling back to the access_token cookie
func TokenFromRequest(c *fiber.Ctx) string {
	authHeader := c.Get(types.HeaderAuthorization)
	if strings.HasPrefix(authHeader, types.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, types.BearerPrefix))
	}
	return c.Cookies(AccessTokenCookie)
}

// New creates a new middleware handler. It panics on an unparsable key.
func New(cfg Config) fiber.Handler {
	verifier, err := NewVerifier(cfg.PublicKey, cfg.ClaimKey)
	if err != nil {
		panic(err.Error())
	}
	if cfg.UserCtxName == "" {
		cfg.UserCtxName = types.UserCtxName
	}

	return func(c *fiber.Ctx) error {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Missing or invalid JWT",
			})
		}

		userCtx, err := verifier.Validate(tokenString)
		if err != nil {
			log.WarnWithContext(c.UserContext(), "JWT rejected: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid token",
				"details": err.Error(),
			})
		}

		Attach(c, cfg.UserCtxName, userCtx)
		return c.Next()
	}
}

// Attach stores the identity in Locals and tags the log context with its business
func Attach(c *fiber.Ctx, ctxName string, userCtx types.UserContext) {
	c.Locals(ctxName, userCtx)
	c.SetUserContext(log.WithBusinessID(c.UserContext(), userCtx.BusinessID.String()))
}

func mapToUserContext(claimData map[string]interface{}) (types.UserContext, error) {
	var userCtx types.UserContext

	userIDStr, ok := claimData[types.HeaderUID].(string)
	if !ok {
		return userCtx, errors.New("missing or invalid uid in claim")
	}
	userID, err := uuid.FromString(userIDStr)
	if err != nil {
		return userCtx, fmt.Errorf("invalid user ID: %v", err)
	}
	userCtx.UserID = userID

	businessIDStr, ok := claimData["businessId"].(string)
	if !ok {
		return userCtx, errors.New("missing or invalid businessId in claim")
	}
	businessID, err := uuid.FromString(businessIDStr)
	if err != nil {
		return userCtx, fmt.Errorf("invalid business ID: %v", err)
	}
	userCtx.BusinessID = businessID

	if email, ok := claimData["email"].(string); ok {
		userCtx.Email = email
	}
	if displayName, ok := claimData["displayName"].(string); ok {
		userCtx.DisplayName = displayName
	}
	userCtx.Role = types.RoleWorker
	if role, ok := claimData["role"].(string); ok && role != "" {
		userCtx.Role = role
	}
	if createdDate, ok := claimData["createdDate"].(float64); ok {
		userCtx.CreatedDate = int64(createdDate)
	}

	return userCtx, nil
}
