package services

import (
	"context"

	"dinerhub/internal/catalog"
	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddToCartRequest names either a SKU directly or a dish plus a full set of
// variant selections to resolve.
type AddToCartRequest struct {
	SKUID      *uuid.UUID              `json:"sku_id,omitempty"`
	DishID     *uuid.UUID              `json:"dish_id,omitempty"`
	Selections map[uuid.UUID]uuid.UUID `json:"selections,omitempty"`
	Quantity   int                     `json:"quantity"`
}

type CartService interface {
	Get(ctx context.Context, ownerKey string) (*models.Cart, error)
	Add(ctx context.Context, ownerKey string, req AddToCartRequest) (*models.Cart, error)
	// Update sets a line's quantity; zero removes the line.
	Update(ctx context.Context, ownerKey string, skuID uuid.UUID, quantity int) (*models.Cart, error)
	Remove(ctx context.Context, ownerKey string, skuID uuid.UUID) (*models.Cart, error)
}

type cartService struct {
	cartRepo repositories.CartRepository
	dishRepo repositories.DishRepository
}

func NewCartService(cartRepo repositories.CartRepository, dishRepo repositories.DishRepository) CartService {
	return &cartService{cartRepo: cartRepo, dishRepo: dishRepo}
}

func (s *cartService) Get(ctx context.Context, ownerKey string) (*models.Cart, error) {
	if ownerKey == "" {
		return nil, common.NewUnauthorizedError("no cart owner")
	}
	lines, err := s.cartRepo.ListLines(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	return BuildCart(lines), nil
}

// BuildCart prices lines from live catalog data. Unavailable lines are kept
// for display but excluded from the subtotal.
func BuildCart(lines []*models.CartLine) *models.Cart {
	cart := &models.Cart{Items: lines, Subtotal: decimal.Zero}
	for _, l := range lines {
		l.UnitPrice = catalog.PriceFor(l.HasVariants, l.DishBasePrice, l.SKUPrice)
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		l.Images = catalog.ImagesFor(l.DishImages, l.SKUImages)
		cart.ItemCount += l.Quantity
		if l.Available {
			cart.Subtotal = cart.Subtotal.Add(l.LineTotal)
		}
	}
	if cart.Items == nil {
		cart.Items = []*models.CartLine{}
	}
	return cart
}

func (s *cartService) Add(ctx context.Context, ownerKey string, req AddToCartRequest) (*models.Cart, error) {
	if req.Quantity < 1 {
		return nil, common.NewValidationError("quantity", "must be at least 1")
	}
	sku, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	inCart, err := s.cartRepo.Quantity(ctx, ownerKey, sku.ID)
	if err != nil {
		return nil, err
	}
	if sku.Stock < inCart+req.Quantity {
		return nil, common.NewInsufficientStockError(sku.Value)
	}
	if _, err := s.cartRepo.AddOrIncrement(ctx, ownerKey, sku.ID, req.Quantity); err != nil {
		return nil, err
	}
	return s.Get(ctx, ownerKey)
}

func (s *cartService) resolve(ctx context.Context, req AddToCartRequest) (*models.SKU, error) {
	switch {
	case req.SKUID != nil:
		sku, err := s.dishRepo.GetSKU(ctx, *req.SKUID, false)
		if err != nil {
			return nil, err
		}
		dish, err := s.dishRepo.GetByID(ctx, sku.DishID, false)
		if err != nil {
			return nil, err
		}
		if !dish.Active {
			return nil, common.NewNotFoundError("dish")
		}
		return sku, nil
	case req.DishID != nil:
		dish, err := s.dishRepo.GetByID(ctx, *req.DishID, false)
		if err != nil {
			return nil, err
		}
		if !dish.Active {
			return nil, common.NewNotFoundError("dish")
		}
		sku := catalog.ResolveSKU(dish, req.Selections)
		if sku == nil {
			return nil, common.NewValidationError("selections", "no SKU matches the selected options")
		}
		return sku, nil
	default:
		return nil, common.NewValidationError("sku_id", "sku_id or dish_id is required")
	}
}

func (s *cartService) Update(ctx context.Context, ownerKey string, skuID uuid.UUID, quantity int) (*models.Cart, error) {
	switch {
	case quantity < 0:
		return nil, common.NewValidationError("quantity", "must not be negative")
	case quantity == 0:
		if err := s.cartRepo.Remove(ctx, ownerKey, skuID); err != nil {
			return nil, err
		}
	default:
		sku, err := s.dishRepo.GetSKU(ctx, skuID, false)
		if err != nil {
			return nil, err
		}
		if sku.Stock < quantity {
			return nil, common.NewInsufficientStockError(sku.Value)
		}
		if err := s.cartRepo.SetQuantity(ctx, ownerKey, skuID, quantity); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, ownerKey)
}

func (s *cartService) Remove(ctx context.Context, ownerKey string, skuID uuid.UUID) (*models.Cart, error) {
	if err := s.cartRepo.Remove(ctx, ownerKey, skuID); err != nil {
		return nil, err
	}
	return s.Get(ctx, ownerKey)
}
