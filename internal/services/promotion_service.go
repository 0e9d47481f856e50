package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type PromotionService interface {
	Create(ctx context.Context, promotion *models.Promotion) error
	Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	List(ctx context.Context, params common.PageParams) (*common.Page[*models.Promotion], error)
	Update(ctx context.Context, promotion *models.Promotion) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Preview validates and prices a code without consuming a use.
	Preview(ctx context.Context, code string, orderValue decimal.Decimal) (*models.PromotionResult, error)
	// Apply redeems a code; the use is counted atomically.
	Apply(ctx context.Context, code string, orderValue decimal.Decimal) (*models.PromotionResult, error)
	// ApplyTx redeems inside the caller's transaction.
	ApplyTx(ctx context.Context, tx repositories.DBTX, code string, orderValue decimal.Decimal) (*models.PromotionResult, error)
}

type promotionService struct {
	promotionRepo repositories.PromotionRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewPromotionService(promotionRepo repositories.PromotionRepository, logger *slog.Logger) PromotionService {
	return &promotionService{
		promotionRepo: promotionRepo,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *promotionService) Create(ctx context.Context, p *models.Promotion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if err := validatePromotionDefinition(p); err != nil {
		return err
	}
	return s.promotionRepo.Create(ctx, p)
}

func (s *promotionService) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	return s.promotionRepo.GetByID(ctx, id, false)
}

func (s *promotionService) List(ctx context.Context, params common.PageParams) (*common.Page[*models.Promotion], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Promotion, error) {
			return s.promotionRepo.List(ctx, limit, offset)
		},
		s.promotionRepo.Count,
	)
}

func (s *promotionService) Update(ctx context.Context, p *models.Promotion) error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if err := validatePromotionDefinition(p); err != nil {
		return err
	}
	current, err := s.promotionRepo.GetByID(ctx, p.ID, false)
	if err != nil {
		return err
	}
	if p.UsageLimit != nil && *p.UsageLimit < current.UsedCount {
		return common.NewValidationError("usage_limit", fmt.Sprintf("cannot be below the %d redemptions already made", current.UsedCount))
	}
	p.UsedCount = current.UsedCount
	return s.promotionRepo.Update(ctx, p)
}

func (s *promotionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.promotionRepo.SoftDelete(ctx, id)
}

func (s *promotionService) Preview(ctx context.Context, code string, orderValue decimal.Decimal) (*models.PromotionResult, error) {
	p, err := s.lookup(ctx, s.promotionRepo, code)
	if err != nil {
		return nil, err
	}
	if err := ValidatePromotion(p, orderValue, s.now()); err != nil {
		return nil, err
	}
	return resultFor(p, orderValue), nil
}

func (s *promotionService) Apply(ctx context.Context, code string, orderValue decimal.Decimal) (*models.PromotionResult, error) {
	return s.apply(ctx, s.promotionRepo, code, orderValue)
}

func (s *promotionService) ApplyTx(ctx context.Context, tx repositories.DBTX, code string, orderValue decimal.Decimal) (*models.PromotionResult, error) {
	return s.apply(ctx, s.promotionRepo.WithTx(tx), code, orderValue)
}

func (s *promotionService) apply(ctx context.Context, repo repositories.PromotionRepository, code string, orderValue decimal.Decimal) (*models.PromotionResult, error) {
	p, err := s.lookup(ctx, repo, code)
	if err != nil {
		return nil, err
	}
	if err := ValidatePromotion(p, orderValue, s.now()); err != nil {
		return nil, err
	}

	// The read above may be stale; Redeem re-checks the limit in the UPDATE itself.
	redeemed, err := repo.Redeem(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !redeemed {
		return nil, common.NewInvalidPromotionError("promotion usage limit reached")
	}

	s.logger.Info("promotion redeemed", "promotion_id", p.ID, "code", p.Code)
	return resultFor(p, orderValue), nil
}

func (s *promotionService) lookup(ctx context.Context, repo repositories.PromotionRepository, code string) (*models.Promotion, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, common.NewValidationError("code", "promotion code is required")
	}
	p, err := repo.GetByCode(ctx, code, false)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewInvalidPromotionError("promotion code not found")
	}
	return p, err
}

func resultFor(p *models.Promotion, orderValue decimal.Decimal) *models.PromotionResult {
	discount, final := ComputeDiscount(p, orderValue)
	return &models.PromotionResult{
		PromotionID:    p.ID,
		Code:           p.Code,
		IsValid:        true,
		DiscountAmount: discount,
		FinalAmount:    final,
	}
}

// ValidatePromotion checks, in order: validity window, usage limit and
// minimum order value. Existence is the caller's concern.
func ValidatePromotion(p *models.Promotion, orderValue decimal.Decimal, now time.Time) error {
	if now.Before(p.ValidFrom) || now.After(p.ValidTo) {
		return common.NewInvalidPromotionError("promotion is not active")
	}
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return common.NewInvalidPromotionError("promotion usage limit reached")
	}
	if p.MinOrderValue != nil && orderValue.LessThan(*p.MinOrderValue) {
		return common.NewInvalidPromotionError("order value below promotion minimum")
	}
	return nil
}

// ComputeDiscount returns the discount and the discounted amount, never below zero.
func ComputeDiscount(p *models.Promotion, orderValue decimal.Decimal) (discount, final decimal.Decimal) {
	switch p.Type {
	case models.PromotionTypeFixed:
		if p.Amount != nil {
			discount = decimal.Min(*p.Amount, orderValue)
		}
	case models.PromotionTypePercentage:
		if p.Percentage != nil {
			discount = orderValue.Mul(*p.Percentage).Div(hundred).Round(2)
		}
		if p.Amount != nil {
			discount = decimal.Min(discount, *p.Amount)
		}
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	final = orderValue.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	return discount, final
}

func validatePromotionDefinition(p *models.Promotion) error {
	if p.Code == "" {
		return common.NewValidationError("code", "code is required")
	}
	if !p.ValidTo.After(p.ValidFrom) {
		return common.NewValidationError("valid_to", "must be after valid_from")
	}
	if p.UsageLimit != nil && *p.UsageLimit < 1 {
		return common.NewValidationError("usage_limit", "must be at least 1")
	}
	switch p.Type {
	case models.PromotionTypeFixed:
		if p.Amount == nil || !p.Amount.IsPositive() {
			return common.NewValidationError("amount", "fixed promotions need a positive amount")
		}
	case models.PromotionTypePercentage:
		if p.Percentage == nil || !p.Percentage.IsPositive() || p.Percentage.GreaterThan(hundred) {
			return common.NewValidationError("percentage", "must be in (0, 100]")
		}
	default:
		return common.NewValidationError("type", "must be FIXED or PERCENTAGE")
	}
	return nil
}
