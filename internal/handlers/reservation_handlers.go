package handlers

import (
	"strconv"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/middleware"
	"dinerhub/internal/models"
	"dinerhub/internal/services"

	"github.com/labstack/echo/v4"
)

// ReservationHandlers handles table bookings
type ReservationHandlers struct {
	reservationSvc services.ReservationService
	gate           *middleware.RBACMiddleware
}

func NewReservationHandlers(reservationSvc services.ReservationService, gate *middleware.RBACMiddleware) *ReservationHandlers {
	return &ReservationHandlers{reservationSvc: reservationSvc, gate: gate}
}

// Register mounts the availability check on pub and bookings on g.
func (h *ReservationHandlers) Register(pub, g *echo.Group) {
	pub.GET("/reservations/availability", h.CheckAvailability)

	g.POST("/reservations", h.CreateReservation, h.gate.Require("reservation.create"))
	g.GET("/reservations", h.ListReservations, h.gate.Require("reservation.list"))
	g.GET("/reservations/all", h.ListAllReservations, h.gate.Require("reservation.listAll"))
	g.PATCH("/reservations/:id", h.UpdateReservation, h.gate.Require("reservation.update"))
}

// CheckAvailability lists tables free for ?party_size at ?at
func (h *ReservationHandlers) CheckAvailability(c echo.Context) error {
	partySize, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil || partySize < 1 {
		return common.SendAppError(c, common.NewValidationError("party_size", "party_size must be a positive integer"))
	}
	at, err := time.Parse(time.RFC3339, c.QueryParam("at"))
	if err != nil {
		return common.SendAppError(c, common.NewValidationError("at", "at must be an RFC 3339 timestamp"))
	}
	tables, err := h.reservationSvc.CheckAvailability(c.Request().Context(), partySize, at)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, map[string]any{"data": tables})
}

func (h *ReservationHandlers) CreateReservation(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.CreateReservationRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	reservation, err := h.reservationSvc.Create(c.Request().Context(), p, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return created(c, reservation)
}

// ListReservations shows the caller's own bookings
func (h *ReservationHandlers) ListReservations(c echo.Context) error {
	return h.list(c, false)
}

// ListAllReservations is the host stand view across every customer
func (h *ReservationHandlers) ListAllReservations(c echo.Context) error {
	return h.list(c, true)
}

func (h *ReservationHandlers) list(c echo.Context, all bool) error {
	p, err := principal(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	params, err := common.PageParamsFromQuery(c)
	if err != nil {
		return common.SendAppError(c, err)
	}
	var filter models.ReservationFilter
	if raw := c.QueryParam("status"); raw != "" {
		s := models.ReservationStatus(raw)
		if !s.Valid() {
			return common.SendAppError(c, common.NewValidationError("status", "unknown reservation status"))
		}
		filter.Status = &s
	}
	if filter.TableID, err = optionalUUIDQuery(c, "table_id"); err != nil {
		return common.SendAppError(c, err)
	}
	if filter.From, err = optionalTimeQuery(c, "from"); err != nil {
		return common.SendAppError(c, err)
	}
	if filter.To, err = optionalTimeQuery(c, "to"); err != nil {
		return common.SendAppError(c, err)
	}
	if filter.From != nil && filter.To != nil {
		if err := common.ValidateDateRange(*filter.From, *filter.To); err != nil {
			return common.SendAppError(c, err)
		}
	}
	page, err := h.reservationSvc.List(c.Request().Context(), p, filter, all, params)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, page)
}

func (h *ReservationHandlers) UpdateReservation(c echo.Context) error {
	id, err := common.ParamUUID(c, "id")
	if err != nil {
		return common.SendAppError(c, err)
	}
	var req services.UpdateReservationRequest
	if err := bindJSON(c, &req); err != nil {
		return common.SendAppError(c, err)
	}
	reservation, err := h.reservationSvc.Update(c.Request().Context(), id, req)
	if err != nil {
		return common.SendAppError(c, err)
	}
	return ok(c, reservation)
}
