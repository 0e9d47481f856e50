package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/catalog"
	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"
	"dinerhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dishCacheTTL = 15 * time.Minute

type DishService interface {
	Create(ctx context.Context, dish *models.Dish) error
	// Get returns the dish localized to lang when a translation exists.
	Get(ctx context.Context, id uuid.UUID, lang string) (*models.Dish, error)
	List(ctx context.Context, filter models.DishFilter, params common.PageParams) (*common.Page[*models.Dish], error)
	Update(ctx context.Context, dish *models.Dish) error
	UpdateSKU(ctx context.Context, dishID, skuID uuid.UUID, update models.SKUUpdate) (*models.SKU, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type dishService struct {
	transactor   database.Transactor
	dishRepo     repositories.DishRepository
	categoryRepo repositories.CategoryRepository
	cacheSvc     caching.CacheService
	logger       *slog.Logger
}

func NewDishService(transactor database.Transactor, dishRepo repositories.DishRepository, categoryRepo repositories.CategoryRepository, cacheSvc caching.CacheService, logger *slog.Logger) DishService {
	return &dishService{
		transactor:   transactor,
		dishRepo:     dishRepo,
		categoryRepo: categoryRepo,
		cacheSvc:     cacheSvc,
		logger:       logger,
	}
}

func (s *dishService) Create(ctx context.Context, dish *models.Dish) error {
	dish.Name = strings.TrimSpace(dish.Name)
	if dish.Name == "" {
		return common.NewValidationError("name", "name is required")
	}
	if dish.BasePrice.IsNegative() {
		return common.NewValidationError("base_price", "cannot be negative")
	}
	if dish.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *dish.CategoryID, false); err != nil {
			return err
		}
	}

	assignDishIDs(dish)
	// A dish without variants is sold through one implicit SKU.
	if len(dish.Variants) == 0 && len(dish.SKUs) == 0 {
		dish.SKUs = []*models.SKU{{ID: uuid.New(), DishID: dish.ID, Value: "default", Price: dish.BasePrice}}
	}
	if err := catalog.ValidateSKUs(dish); err != nil {
		return err
	}

	err := s.transactor.WithinTx(ctx, func(tx pgx.Tx) error {
		return s.dishRepo.WithTx(tx).Create(ctx, dish)
	})
	if err != nil {
		return err
	}
	s.logger.Info("dish created", "dish_id", dish.ID, "skus", len(dish.SKUs))
	return nil
}

// assignDishIDs fills missing ids and back-references. Option ids supplied by
// the client are kept because SKUs refer to them.
func assignDishIDs(dish *models.Dish) {
	if dish.ID == uuid.Nil {
		dish.ID = uuid.New()
	}
	for i, v := range dish.Variants {
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		v.DishID = dish.ID
		v.Position = i
		for j, o := range v.Options {
			if o.ID == uuid.Nil {
				o.ID = uuid.New()
			}
			o.VariantID = v.ID
			o.Position = j
		}
	}
	for _, sku := range dish.SKUs {
		if sku.ID == uuid.Nil {
			sku.ID = uuid.New()
		}
		sku.DishID = dish.ID
	}
	for i := range dish.Translations {
		dish.Translations[i].DishID = dish.ID
	}
}

func (s *dishService) Get(ctx context.Context, id uuid.UUID, lang string) (*models.Dish, error) {
	dish, err := s.cacheSvc.GetDish(ctx, id)
	if err != nil {
		s.logger.Warn("dish cache read failed", "dish_id", id, "error", err)
	}
	if dish == nil {
		dish, err = s.dishRepo.GetByID(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if err := s.cacheSvc.SetDish(ctx, dish, dishCacheTTL); err != nil {
			s.logger.Warn("failed to cache dish", "dish_id", id, "error", err)
		}
	}
	if lang != "" {
		dish.Localize(lang)
	}
	return dish, nil
}

func (s *dishService) List(ctx context.Context, filter models.DishFilter, params common.PageParams) (*common.Page[*models.Dish], error) {
	page, err := common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Dish, error) {
			return s.dishRepo.List(ctx, filter, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.dishRepo.Count(ctx, filter)
		},
	)
	if err != nil {
		return nil, err
	}
	if filter.Language != "" {
		for _, d := range page.Data {
			d.Localize(filter.Language)
		}
	}
	return page, nil
}

func (s *dishService) Update(ctx context.Context, dish *models.Dish) error {
	dish.Name = strings.TrimSpace(dish.Name)
	if dish.Name == "" {
		return common.NewValidationError("name", "name is required")
	}
	if dish.BasePrice.IsNegative() {
		return common.NewValidationError("base_price", "cannot be negative")
	}
	for i := range dish.Translations {
		dish.Translations[i].DishID = dish.ID
	}
	if err := s.dishRepo.Update(ctx, dish); err != nil {
		return err
	}
	s.invalidate(ctx, dish.ID)
	return nil
}

func (s *dishService) UpdateSKU(ctx context.Context, dishID, skuID uuid.UUID, update models.SKUUpdate) (*models.SKU, error) {
	sku, err := s.dishRepo.GetSKU(ctx, skuID, false)
	if err != nil {
		return nil, err
	}
	if sku.DishID != dishID {
		return nil, common.NewNotFoundError("sku")
	}
	if update.Price != nil {
		if update.Price.IsNegative() {
			return nil, common.NewValidationError("price", "cannot be negative")
		}
		sku.Price = *update.Price
	}
	if update.Stock != nil {
		if *update.Stock < 0 {
			return nil, common.NewValidationError("stock", "cannot be negative")
		}
		sku.Stock = *update.Stock
	}
	if update.Images != nil {
		sku.Images = update.Images
	}
	if err := s.dishRepo.UpdateSKU(ctx, sku); err != nil {
		return nil, err
	}
	s.invalidate(ctx, dishID)
	return sku, nil
}

func (s *dishService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.dishRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *dishService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cacheSvc.DeleteDish(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate dish cache", "dish_id", id, "error", err)
	}
}
