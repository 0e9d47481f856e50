package handlers

import (
	"net/http"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindJSON decodes the request body, reporting malformed input as a validation error.
func bindJSON(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return common.NewValidationError("body", "invalid request format")
	}
	return nil
}

// principal returns the caller set by the JWT gate.
func principal(c echo.Context) (*common.Principal, error) {
	p := middleware.Principal(c)
	if p == nil {
		return nil, common.NewUnauthorizedError("authentication required")
	}
	return p, nil
}

// requireUser is principal restricted to registered accounts.
func requireUser(c echo.Context) (*common.Principal, uuid.UUID, error) {
	p, err := principal(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if p.UserID == nil {
		return nil, uuid.Nil, common.NewForbiddenError("a registered account is required")
	}
	return p, *p.UserID, nil
}

func optionalUUIDQuery(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalTimeQuery(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, common.NewValidationError(name, name+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func created(c echo.Context, v any) error {
	return c.JSON(http.StatusCreated, v)
}

func ok(c echo.Context, v any) error {
	return c.JSON(http.StatusOK, v)
}
