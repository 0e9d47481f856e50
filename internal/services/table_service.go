package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const qrImageSize = 256

type TableService interface {
	Create(ctx context.Context, table *models.RestaurantTable) error
	Get(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error)
	List(ctx context.Context, status *models.TableStatus, params common.PageParams) (*common.Page[*models.RestaurantTable], error)
	Update(ctx context.Context, table *models.RestaurantTable) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.TableStatus) (*models.RestaurantTable, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// QRCode renders the table's guest link as a PNG.
	QRCode(ctx context.Context, id uuid.UUID) ([]byte, error)
	// RotateQRCode issues a new code; printed codes stop working.
	RotateQRCode(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error)
}

type tableService struct {
	tableRepo     repositories.TableRepository
	publicBaseURL string
	logger        *slog.Logger
}

func NewTableService(tableRepo repositories.TableRepository, publicBaseURL string, logger *slog.Logger) TableService {
	return &tableService{
		tableRepo:     tableRepo,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

func validateTable(table *models.RestaurantTable) error {
	table.TableNumber = strings.TrimSpace(table.TableNumber)
	if table.TableNumber == "" {
		return common.NewValidationError("table_number", "table_number is required")
	}
	if table.Capacity < 1 {
		return common.NewValidationError("capacity", "must be at least 1")
	}
	return nil
}

func (s *tableService) Create(ctx context.Context, table *models.RestaurantTable) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}
	table.Status = models.TableStatusAvailable
	table.QRCode = generateSecureToken()
	if err := s.tableRepo.Create(ctx, table); err != nil {
		return err
	}
	s.logger.Info("table created", "table_id", table.ID, "number", table.TableNumber)
	return nil
}

func (s *tableService) Get(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error) {
	return s.tableRepo.GetByID(ctx, id, false)
}

func (s *tableService) List(ctx context.Context, status *models.TableStatus, params common.PageParams) (*common.Page[*models.RestaurantTable], error) {
	if status != nil && !status.Valid() {
		return nil, common.NewValidationError("status", "unknown table status")
	}
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.RestaurantTable, error) {
			return s.tableRepo.List(ctx, status, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.tableRepo.Count(ctx, status)
		},
	)
}

func (s *tableService) Update(ctx context.Context, table *models.RestaurantTable) error {
	if err := validateTable(table); err != nil {
		return err
	}
	return s.tableRepo.Update(ctx, table)
}

func (s *tableService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TableStatus) (*models.RestaurantTable, error) {
	if !status.Valid() {
		return nil, common.NewValidationError("status", "unknown table status")
	}
	if err := s.tableRepo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.tableRepo.GetByID(ctx, id, false)
}

func (s *tableService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tableRepo.SoftDelete(ctx, id)
}

func (s *tableService) guestURL(table *models.RestaurantTable) string {
	return fmt.Sprintf("%s/t/%s", s.publicBaseURL, table.QRCode)
}

func (s *tableService) QRCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	table, err := s.tableRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.guestURL(table), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}

func (s *tableService) RotateQRCode(ctx context.Context, id uuid.UUID) (*models.RestaurantTable, error) {
	code := generateSecureToken()
	if err := s.tableRepo.SetQRCode(ctx, id, code); err != nil {
		return nil, err
	}
	s.logger.Info("table qr code rotated", "table_id", id)
	return s.tableRepo.GetByID(ctx, id, false)
}
