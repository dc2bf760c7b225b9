package authhmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fieldcrew/api/internal/types"
)

// MaxClockSkew is the accepted distance between the signed timestamp and now
const MaxClockSkew = 5 * time.Minute

// Request holds the signed parts of a service-to-service call. Role is the
// raw X-Role header and is empty when the header is absent.
type Request struct {
	Method     string
	Path       string
	Query      string
	Body       []byte
	UID        string
	BusinessID string
	Role       string
	Timestamp  string
}

// Config defines the config for middleware.
type Config struct {
	// Next defines a function to skip this middleware when returned true.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Realm is reported in the WWW-Authenticate header.
	//
	// Optional. Default: "Restricted".
	Realm string

	// Authorizer checks the signature of a request.
	//
	// Optional. Default: canonical HMAC-SHA256 over PayloadSecret.
	Authorizer func(req Request, signature string) error

	// Unauthorized defines the response body for unauthorized responses.
	//
	// Optional. Default: 401 with a WWW-Authenticate header
	Unauthorized fiber.Handler

	// PayloadSecret is the key to validate HMAC
	PayloadSecret string

	// UserCtxName is the key to store the user context in Locals
	//
	// Optional. Default: "user"
	UserCtxName string

	// Now is the clock used for the timestamp window.
	//
	// Optional. Default: time.Now
	Now func() time.Time
}

// ConfigDefault is the default config
var ConfigDefault = Config{
	Realm:       "Restricted",
	UserCtxName: types.UserCtxName,
	Now:         time.Now,
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]
	if cfg.Realm == "" {
		cfg.Realm = ConfigDefault.Realm
	}
	if cfg.Now == nil {
		cfg.Now = ConfigDefault.Now
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = func(req Request, signature string) error {
			return Verify(req, signature, cfg.PayloadSecret, cfg.Now())
		}
	}
	if cfg.Unauthorized == nil {
		cfg.Unauthorized = func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, "HMAC realm="+cfg.Realm)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "UNAUTHORIZED",
				"message": "Invalid service signature",
			})
		}
	}
	if cfg.UserCtxName == "" {
		cfg.UserCtxName = ConfigDefault.UserCtxName
	}
	return cfg
}

// canonical builds METHOD\nPATH\nQUERY\nsha256(BODY)\nUID\nBUSINESS_ID\nROLE\nTIMESTAMP
func canonical(req Request) string {
	bodyHash := sha256.Sum256(req.Body)
	return fmt.Sprintf("%s\n%s\n%s\n%x\n%s\n%s\n%s\n%s",
		req.Method,
		req.Path,
		req.Query,
		bodyHash,
		req.UID,
		req.BusinessID,
		req.Role,
		req.Timestamp,
	)
}

// Sign returns the signature header value for req
func Sign(req Request, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical(req)))
	return types.HMACPrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature and the timestamp window of req
func Verify(req Request, encodedHash, secret string, now time.Time) error {
	if req.Method == "" || req.Path == "" || encodedHash == "" || secret == "" || req.UID == "" || req.BusinessID == "" || req.Timestamp == "" {
		return fmt.Errorf("missing required parameters for HMAC validation")
	}

	ts, err := strconv.ParseInt(req.Timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp format: %w", err)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew > MaxClockSkew || skew < -MaxClockSkew {
		return fmt.Errorf("timestamp outside valid window: %s difference", skew)
	}

	if !strings.HasPrefix(encodedHash, types.HMACPrefix) {
		return fmt.Errorf("invalid signature format, expected '%s' prefix", types.HMACPrefix)
	}
	signature, err := hex.DecodeString(strings.TrimPrefix(encodedHash, types.HMACPrefix))
	if err != nil {
		return fmt.Errorf("failed to decode hex signature: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical(req)))
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return fmt.Errorf("HMAC signature validation failed")
	}
	return nil
}
