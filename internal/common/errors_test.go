package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateDBError(t *testing.T) {
	assert.NoError(t, TranslateDBError(nil, "dish"))

	err := TranslateDBError(pgx.ErrNoRows, "dish")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	err = TranslateDBError(&pgconn.PgError{Code: "23505"}, "promotion")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, KindConflict, KindOf(err))

	err = TranslateDBError(&pgconn.PgError{Code: "23514", ConstraintName: "promotions_usage_check"}, "promotion")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(err))
	var appErr *AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Contains(t, appErr.Details, "promotions_usage_check")
	}

	boom := errors.New("connection reset")
	err = TranslateDBError(boom, "order")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ErrorKind(""), KindOf(err))
}

func TestAppErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", NewEmptyCartError())
	assert.ErrorIs(t, wrapped, ErrEmptyCart)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, NewNotFoundError("dish"), NewNotFoundError("dish"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(KindInvalidPromotion))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(KindUnauthorized))
	assert.Equal(t, http.StatusForbidden, StatusFor(KindForbidden))
	assert.Equal(t, http.StatusConflict, StatusFor(KindInsufficientStock))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(""))
}
