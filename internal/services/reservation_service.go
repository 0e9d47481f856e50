package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CreateReservationRequest struct {
	TableID      *uuid.UUID `json:"table_id,omitempty"`
	CustomerName string     `json:"customer_name"`
	Phone        string     `json:"phone"`
	PartySize    int        `json:"party_size"`
	ReservedAt   time.Time  `json:"reserved_at"`
	Note         *string    `json:"note,omitempty"`
}

type UpdateReservationRequest struct {
	Status     *models.ReservationStatus `json:"status,omitempty"`
	TableID    *uuid.UUID                `json:"table_id,omitempty"`
	PartySize  *int                      `json:"party_size,omitempty"`
	ReservedAt *time.Time                `json:"reserved_at,omitempty"`
	Note       *string                   `json:"note,omitempty"`
}

type ReservationService interface {
	// CheckAvailability lists tables free for a party over the slot starting at.
	CheckAvailability(ctx context.Context, partySize int, at time.Time) ([]*models.RestaurantTable, error)
	Create(ctx context.Context, p *common.Principal, req CreateReservationRequest) (*models.Reservation, error)
	// List shows the caller's reservations, or everyone's when all is set.
	List(ctx context.Context, p *common.Principal, filter models.ReservationFilter, all bool, params common.PageParams) (*common.Page[*models.Reservation], error)
	Update(ctx context.Context, id uuid.UUID, req UpdateReservationRequest) (*models.Reservation, error)
	MarkNoShows(ctx context.Context, grace time.Duration) (int64, error)
}

type reservationService struct {
	reservationRepo repositories.ReservationRepository
	tableRepo       repositories.TableRepository
	slot            time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

func NewReservationService(reservationRepo repositories.ReservationRepository, tableRepo repositories.TableRepository, slot time.Duration, logger *slog.Logger) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		tableRepo:       tableRepo,
		slot:            slot,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *reservationService) CheckAvailability(ctx context.Context, partySize int, at time.Time) ([]*models.RestaurantTable, error) {
	if partySize < 1 {
		return nil, common.NewValidationError("party_size", "must be at least 1")
	}
	if at.IsZero() {
		return nil, common.NewValidationError("at", "reservation time is required")
	}
	return s.tableRepo.ListFree(ctx, partySize, at, at.Add(s.slot))
}

func (s *reservationService) Create(ctx context.Context, p *common.Principal, req CreateReservationRequest) (*models.Reservation, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if req.CustomerName == "" {
		return nil, common.NewValidationError("customer_name", "customer_name is required")
	}
	if req.PartySize < 1 {
		return nil, common.NewValidationError("party_size", "must be at least 1")
	}
	if !req.ReservedAt.After(s.now()) {
		return nil, common.NewValidationError("reserved_at", "must be in the future")
	}

	start, end := req.ReservedAt, req.ReservedAt.Add(s.slot)
	tableID, err := s.pickTable(ctx, req.TableID, req.PartySize, start, end, nil)
	if err != nil {
		return nil, err
	}

	r := &models.Reservation{
		ID:           uuid.New(),
		UserID:       p.UserID,
		TableID:      tableID,
		CustomerName: req.CustomerName,
		Phone:        strings.TrimSpace(req.Phone),
		PartySize:    req.PartySize,
		ReservedAt:   start,
		EndsAt:       end,
		Status:       models.ReservationStatusPending,
		Note:         req.Note,
	}
	if err := s.reservationRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("reservation created", "reservation_id", r.ID, "table_id", tableID, "at", start)
	return r, nil
}

// pickTable checks the requested table, or takes the smallest free one.
func (s *reservationService) pickTable(ctx context.Context, requested *uuid.UUID, partySize int, start, end time.Time, exclude *uuid.UUID) (uuid.UUID, error) {
	if requested != nil {
		table, err := s.tableRepo.GetByID(ctx, *requested, false)
		if err != nil {
			return uuid.Nil, err
		}
		if table.Capacity < partySize {
			return uuid.Nil, common.NewValidationError("party_size", "table is too small for the party")
		}
		busy, err := s.reservationRepo.HasOverlap(ctx, table.ID, start, end, exclude)
		if err != nil {
			return uuid.Nil, err
		}
		if busy {
			return uuid.Nil, common.NewConflictError("table is already reserved for that time")
		}
		return table.ID, nil
	}

	free, err := s.tableRepo.ListFree(ctx, partySize, start, end)
	if err != nil {
		return uuid.Nil, err
	}
	if len(free) == 0 {
		return uuid.Nil, common.NewConflictError("no table is available for that time")
	}
	best := lo.MinBy(free, func(a, b *models.RestaurantTable) bool { return a.Capacity < b.Capacity })
	return best.ID, nil
}

func (s *reservationService) List(ctx context.Context, p *common.Principal, filter models.ReservationFilter, all bool, params common.PageParams) (*common.Page[*models.Reservation], error) {
	if !all {
		if p.UserID == nil {
			return nil, common.NewForbiddenError("guests have no reservations")
		}
		filter.UserID = p.UserID
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, common.NewValidationError("status", "unknown reservation status")
	}
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Reservation, error) {
			return s.reservationRepo.List(ctx, filter, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.reservationRepo.Count(ctx, filter)
		},
	)
}

func (s *reservationService) Update(ctx context.Context, id uuid.UUID, req UpdateReservationRequest) (*models.Reservation, error) {
	r, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, common.NewValidationError("status", "unknown reservation status")
		}
		r.Status = *req.Status
	}
	if req.Note != nil {
		r.Note = req.Note
	}

	rebook := req.TableID != nil || req.PartySize != nil || req.ReservedAt != nil
	if rebook {
		if req.PartySize != nil {
			if *req.PartySize < 1 {
				return nil, common.NewValidationError("party_size", "must be at least 1")
			}
			r.PartySize = *req.PartySize
		}
		if req.ReservedAt != nil {
			r.ReservedAt = *req.ReservedAt
			r.EndsAt = req.ReservedAt.Add(s.slot)
		}
		tableID := r.TableID
		if req.TableID != nil {
			tableID = *req.TableID
		}
		if r.TableID, err = s.pickTable(ctx, &tableID, r.PartySize, r.ReservedAt, r.EndsAt, &r.ID); err != nil {
			return nil, err
		}
	}

	if err := s.reservationRepo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *reservationService) MarkNoShows(ctx context.Context, grace time.Duration) (int64, error) {
	n, err := s.reservationRepo.MarkNoShows(ctx, s.now().Add(-grace))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("reservations marked as no-show", "count", n)
	}
	return n, nil
}
