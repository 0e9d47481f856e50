package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies an AppError. The value doubles as the error code in responses.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindConflict          ErrorKind = "CONFLICT"
	KindEmptyCart         ErrorKind = "EMPTY_CART"
	KindInvalidPromotion  ErrorKind = "INVALID_PROMOTION"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for unique index conflicts.
const pgUniqueViolation = "23505"

// pgCheckViolation is reported when a row breaks a CHECK constraint.
const pgCheckViolation = "23514"

// AppError is a typed, user-readable domain error.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports a match against the sentinel of the same kind, so callers can
// write errors.Is(err, common.ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

var (
	ErrValidation        = &AppError{Kind: KindValidation}
	ErrUnauthorized      = &AppError{Kind: KindUnauthorized}
	ErrForbidden         = &AppError{Kind: KindForbidden}
	ErrNotFound          = &AppError{Kind: KindNotFound}
	ErrConflict          = &AppError{Kind: KindConflict}
	ErrEmptyCart         = &AppError{Kind: KindEmptyCart}
	ErrInvalidPromotion  = &AppError{Kind: KindInvalidPromotion}
	ErrInsufficientStock = &AppError{Kind: KindInsufficientStock}
)

func NewValidationError(field, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Message: "Validation failed",
		Details: map[string]string{field: message},
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewEmptyCartError() *AppError {
	return &AppError{Kind: KindEmptyCart, Message: "cart is empty"}
}

func NewInvalidPromotionError(reason string) *AppError {
	return &AppError{Kind: KindInvalidPromotion, Message: reason}
}

func NewInsufficientStockError(skuValue string) *AppError {
	return &AppError{
		Kind:    KindInsufficientStock,
		Message: "insufficient stock",
		Details: map[string]string{"sku": skuValue},
	}
}

// KindOf returns the kind of the first AppError in err's chain, or "" for
// infrastructure errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// TranslateDBError maps storage errors to domain errors: missing rows become
// NotFound and unique violations become Conflict. Anything else is wrapped
// unchanged.
func TranslateDBError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource), Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &AppError{Kind: KindConflict, Message: fmt.Sprintf("%s already exists", resource), Err: err}
		case pgCheckViolation:
			return &AppError{
				Kind:    KindValidation,
				Message: "Validation failed",
				Details: map[string]string{pgErr.ConstraintName: fmt.Sprintf("%s violates a check constraint", resource)},
				Err:     err,
			}
		}
	}
	return fmt.Errorf("%s: %w", resource, err)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindValidation, KindEmptyCart, KindInvalidPromotion:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
