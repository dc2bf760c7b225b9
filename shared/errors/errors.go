package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"github.com/fieldcrew/api/internal/database/tenant"
	"github.com/fieldcrew/api/internal/pkg/log"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidUUID        = errors.New("invalid uuid")
	ErrMissingUserContext = errors.New("missing user context")
	ErrForbidden          = errors.New("insufficient role for this operation")
	ErrConflict           = errors.New("record already exists")
)

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidUUID    = "INVALID_UUID"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeDatabaseError  = "DATABASE_UNAVAILABLE"
	CodeInternalError  = "INTERNAL_ERROR"
	pqUniqueViolation  = "23505"
	pqForeignKey       = "23503"
	pqCheckViolation   = "23514"
	pqInvalidTextInput = "22P02"
	pqUndefinedColumn  = "42703"
)

type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Validation wraps ErrValidation with a field level message
func Validation(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, a...))
}

// Classify maps driver errors onto the sentinel errors above
func Classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	case pqForeignKey:
		return Validation("referenced record does not exist (%s)", pqErr.Constraint)
	case pqCheckViolation:
		return Validation("constraint %s violated", pqErr.Constraint)
	case pqInvalidTextInput, pqUndefinedColumn:
		return Validation("%s", pqErr.Message)
	}
	return err
}

// HandleServiceError writes the JSON error response for err
func HandleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	err = Classify(err)

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, tenant.ErrInvalidIdentifier), errors.Is(err, tenant.ErrEmptyFilter),
		errors.Is(err, tenant.ErrPageOutOfRange):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeValidation, Message: err.Error()})
	case errors.Is(err, ErrInvalidUUID):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeInvalidUUID, Message: err.Error()})
	case errors.Is(err, ErrMissingUserContext), errors.Is(err, tenant.ErrMissingBusiness):
		return c.Status(http.StatusUnauthorized).JSON(ErrorResponse{Code: CodeUnauthorized, Message: err.Error()})
	case errors.Is(err, ErrForbidden):
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{Code: CodeForbidden, Message: err.Error()})
	case errors.Is(err, tenant.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{Code: CodeNotFound, Message: tenant.ErrNotFound.Error()})
	case errors.Is(err, ErrConflict):
		return c.Status(http.StatusConflict).JSON(ErrorResponse{Code: CodeConflict, Message: err.Error()})
	case errors.Is(err, tenant.ErrStoreUninitialized):
		return c.Status(http.StatusServiceUnavailable).JSON(ErrorResponse{Code: CodeDatabaseError, Message: err.Error()})
	default:
		log.ErrorWithContext(c.UserContext(), "%s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{Code: CodeInternalError, Message: "An unexpected error occurred"})
	}
}

func HandleValidationError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeValidation, Message: message})
}

func HandleUUIDError(c *fiber.Ctx, fieldName string) error {
	msg := fmt.Sprintf("Invalid %s format", fieldName)
	return c.Status(http.StatusBadRequest).JSON(ErrorResponse{Code: CodeInvalidUUID, Message: msg})
}
