package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	RequestIDKey contextKey = "request_id"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID         *uuid.UUID `json:"user_id,omitempty"`
	GuestID        *uuid.UUID `json:"guest_id,omitempty"`
	RoleID         uuid.UUID  `json:"role_id"`
	RoleName       string     `json:"role_name"`
	DeviceID       string     `json:"device_id"`
	TableID        *uuid.UUID `json:"table_id,omitempty"`
	TokenID        string     `json:"-"`
	TokenExpiresAt time.Time  `json:"-"`
}

// OwnerKey identifies the cart owner: a registered user or a table guest.
func (p *Principal) OwnerKey() string {
	if p.UserID != nil {
		return "user:" + p.UserID.String()
	}
	if p.GuestID != nil {
		return "guest:" + p.GuestID.String()
	}
	return ""
}

// EventTopic is the pub/sub topic the principal's event stream listens on.
func (p *Principal) EventTopic() string {
	if p.UserID != nil {
		return "user:" + p.UserID.String()
	}
	if p.TableID != nil {
		return "table:" + p.TableID.String()
	}
	return ""
}

func (p *Principal) HasRole(names ...string) bool {
	for _, n := range names {
		if strings.EqualFold(p.RoleName, n) {
			return true
		}
	}
	return false
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFromContext extracts the principal set by the auth middleware
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*Principal)
	return p, ok && p != nil
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(string(KindValidation), "Validation failed", details))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse(string(KindUnauthorized), "Unauthorized access", nil))
}

// SendAppError writes err in the error envelope. Domain errors keep their
// kind and message; anything else is logged and reported as a server error.
func SendAppError(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.JSON(StatusFor(appErr.Kind), CreateErrorResponse(string(appErr.Kind), appErr.Message, appErr.Details))
	}
	slog.ErrorContext(c.Request().Context(), "request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	return SendServerError(c, "internal server error")
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, NewValidationError(fieldName, fmt.Sprintf("%s is required", fieldName))
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, NewValidationError(fieldName, fmt.Sprintf("%s must be a valid UUID", fieldName))
	}
	return id, nil
}

// ParamUUID reads a UUID path parameter
func ParamUUID(c echo.Context, name string) (uuid.UUID, error) {
	return ValidateUUID(c.Param(name), name)
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, fmt.Sprintf("%s is required", fieldName))
	}
	return nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SanitizeSearchQuery strips LIKE wildcards from user search input
func SanitizeSearchQuery(query string) string {
	query = strings.ReplaceAll(query, "%", "")
	query = strings.ReplaceAll(query, "_", "")
	if len(query) > 100 {
		query = query[:100]
	}
	return strings.TrimSpace(query)
}

// ValidateDateRange validates date ranges to prevent abuse
func ValidateDateRange(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return NewValidationError("end", "end date cannot be before start date")
	}
	if endDate.Sub(startDate) > time.Hour*24*366 {
		return NewValidationError("end", "date range cannot exceed one year")
	}
	return nil
}
