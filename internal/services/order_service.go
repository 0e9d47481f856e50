package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dinerhub/internal/catalog"
	"dinerhub/internal/common"
	"dinerhub/internal/config"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"
	"dinerhub/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreateFromCartRequest checks out the caller's cart.
type CreateFromCartRequest struct {
	AddressID     *uuid.UUID          `json:"address_id,omitempty"`
	PromotionCode *string             `json:"promotion_code,omitempty"`
	Channel       models.OrderChannel `json:"channel,omitempty"`
	Note          *string             `json:"note,omitempty"`
}

// DirectOrderItem names a SKU directly or through variant selections.
type DirectOrderItem struct {
	DishID     uuid.UUID               `json:"dish_id"`
	SKUID      *uuid.UUID              `json:"sku_id,omitempty"`
	Selections map[uuid.UUID]uuid.UUID `json:"selections,omitempty"`
	Quantity   int                     `json:"quantity"`
}

// CreateOrderRequest is a table-side or counter order that bypasses the cart.
type CreateOrderRequest struct {
	Items   []DirectOrderItem `json:"items"`
	TableID *uuid.UUID        `json:"table_id,omitempty"`
	Note    *string           `json:"note,omitempty"`
}

type OrderService interface {
	CreateFromCart(ctx context.Context, p *common.Principal, req CreateFromCartRequest) (*models.Order, error)
	Create(ctx context.Context, p *common.Principal, req CreateOrderRequest) (*models.Order, error)
	// UpdateStatus moves a live order to any status; terminal orders are frozen.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error)
	// Cancel lets the owner withdraw an order still awaiting confirmation.
	Cancel(ctx context.Context, p *common.Principal, orderID uuid.UUID) (*models.Order, error)
	// Get returns an order with its items. Non-staff callers only see their own.
	Get(ctx context.Context, p *common.Principal, orderID uuid.UUID, staff bool) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter, params common.PageParams) (*common.Page[*models.Order], error)
	MyOrders(ctx context.Context, p *common.Principal, params common.PageParams) (*common.Page[*models.Order], error)
}

type orderService struct {
	transactor    database.Transactor
	orderRepo     repositories.OrderRepository
	orderItemRepo repositories.OrderItemRepository
	cartRepo      repositories.CartRepository
	dishRepo      repositories.DishRepository
	addressRepo   repositories.AddressRepository
	tableRepo     repositories.TableRepository
	promotions    PromotionService
	notifier      OrderNotifier
	pricing       config.PricingConfig
	logger        *slog.Logger
}

func NewOrderService(
	transactor database.Transactor,
	orderRepo repositories.OrderRepository,
	orderItemRepo repositories.OrderItemRepository,
	cartRepo repositories.CartRepository,
	dishRepo repositories.DishRepository,
	addressRepo repositories.AddressRepository,
	tableRepo repositories.TableRepository,
	promotions PromotionService,
	notifier OrderNotifier,
	pricing config.PricingConfig,
	logger *slog.Logger,
) OrderService {
	return &orderService{
		transactor:    transactor,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		cartRepo:      cartRepo,
		dishRepo:      dishRepo,
		addressRepo:   addressRepo,
		tableRepo:     tableRepo,
		promotions:    promotions,
		notifier:      notifier,
		pricing:       pricing,
		logger:        logger,
	}
}

// DeliveryFee is flat below the free-delivery threshold and zero at or above it.
func DeliveryFee(pricing config.PricingConfig, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(decimal.NewFromInt(pricing.FreeDeliveryThreshold)) {
		return decimal.Zero
	}
	return decimal.NewFromInt(pricing.FlatDeliveryFee)
}

func (s *orderService) CreateFromCart(ctx context.Context, p *common.Principal, req CreateFromCartRequest) (*models.Order, error) {
	ownerKey := p.OwnerKey()
	if ownerKey == "" {
		return nil, common.NewUnauthorizedError("no cart owner")
	}

	order := &models.Order{
		ID:      uuid.New(),
		UserID:  p.UserID,
		GuestID: p.GuestID,
		TableID: p.TableID,
		Status:  models.OrderStatusPendingConfirmation,
		Channel: req.Channel,
		Note:    req.Note,
	}
	if order.Channel == "" {
		order.Channel = models.OrderChannelWeb
		if order.TableID != nil {
			order.Channel = models.OrderChannelQR
		}
	}
	if !order.Channel.Valid() {
		return nil, common.NewValidationError("channel", "unknown order channel")
	}

	err := s.transactor.WithinTx(ctx, func(tx pgx.Tx) error {
		lines, err := s.cartRepo.WithTx(tx).ListLines(ctx, ownerKey)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return common.NewEmptyCartError()
		}
		cart := BuildCart(lines)

		if req.AddressID != nil {
			if p.UserID == nil {
				return common.NewValidationError("address_id", "guests cannot use saved addresses")
			}
			addr, err := s.addressRepo.WithTx(tx).GetForUser(ctx, *p.UserID, *req.AddressID)
			if err != nil {
				return err
			}
			order.AddressID = &addr.ID
			formatted := fmt.Sprintf("%s, %s, %s", addr.Recipient, addr.Phone, addr.Line)
			order.DeliveryAddress = &formatted
		}

		items := make([]*models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			if !line.Available {
				return common.NewValidationError("cart", fmt.Sprintf("%s is no longer available", line.DishName))
			}
			skuID := line.SKUID
			items = append(items, &models.OrderItem{
				ID:       uuid.New(),
				OrderID:  order.ID,
				SKUID:    &skuID,
				DishName: line.DishName,
				SKUValue: line.SKUValue,
				Price:    line.UnitPrice,
				Quantity: line.Quantity,
				Images:   line.Images,
			})
		}

		// Table orders are served in the room; every other checkout is priced for delivery.
		fee := decimal.Zero
		if order.TableID == nil {
			fee = DeliveryFee(s.pricing, cart.Subtotal)
		}
		if err := s.finalize(ctx, tx, order, items, cart.Subtotal, fee, req.PromotionCode); err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).Clear(ctx, ownerKey)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created from cart", "order_id", order.ID, "owner", ownerKey, "total", order.TotalAmount.String())
	s.notifier.OrderCreated(ctx, order)
	return order, nil
}

func (s *orderService) Create(ctx context.Context, p *common.Principal, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, common.NewValidationError("items", "at least one item is required")
	}

	order := &models.Order{
		ID:      uuid.New(),
		Status:  models.OrderStatusPendingConfirmation,
		Channel: models.OrderChannelPOS,
		Note:    req.Note,
	}
	if p.HasRole(models.RoleGuest) {
		// Guests always order for the table their session is bound to.
		order.GuestID = p.GuestID
		order.TableID = p.TableID
		order.Channel = models.OrderChannelQR
	} else {
		order.TableID = req.TableID
	}

	err := s.transactor.WithinTx(ctx, func(tx pgx.Tx) error {
		if order.TableID != nil {
			if _, err := s.tableRepo.WithTx(tx).GetByID(ctx, *order.TableID, false); err != nil {
				return err
			}
		}

		dishes := s.dishRepo.WithTx(tx)
		subtotal := decimal.Zero
		items := make([]*models.OrderItem, 0, len(req.Items))
		for i, in := range req.Items {
			if in.Quantity < 1 {
				return common.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
			}
			dish, err := dishes.GetByID(ctx, in.DishID, false)
			if err != nil {
				return err
			}
			if !dish.Active {
				return common.NewNotFoundError("dish")
			}
			sku, err := pickSKU(dish, in)
			if err != nil {
				return common.NewValidationError(fmt.Sprintf("items[%d]", i), err.Error())
			}
			price := catalog.UnitPrice(dish, sku)
			skuID := sku.ID
			item := &models.OrderItem{
				ID:       uuid.New(),
				OrderID:  order.ID,
				SKUID:    &skuID,
				DishName: dish.Name,
				SKUValue: sku.Value,
				Price:    price,
				Quantity: in.Quantity,
				Images:   catalog.ImagesFor(dish.Images, sku.Images),
			}
			subtotal = subtotal.Add(item.LineTotal())
			items = append(items, item)
		}
		return s.finalize(ctx, tx, order, items, subtotal, decimal.Zero, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created", "order_id", order.ID, "channel", order.Channel, "total", order.TotalAmount.String())
	s.notifier.OrderCreated(ctx, order)
	return order, nil
}

func pickSKU(dish *models.Dish, in DirectOrderItem) (*models.SKU, error) {
	if in.SKUID != nil {
		sku := dish.SKU(*in.SKUID)
		if sku == nil || sku.DeletedAt != nil {
			return nil, errors.New("sku does not belong to dish")
		}
		return sku, nil
	}
	sku := catalog.ResolveSKU(dish, in.Selections)
	if sku == nil {
		return nil, errors.New("no SKU matches the selected options")
	}
	return sku, nil
}

// finalize reserves stock, redeems the promotion and writes the order with
// its item snapshots. Any failure aborts the surrounding transaction.
func (s *orderService) finalize(ctx context.Context, tx pgx.Tx, order *models.Order, items []*models.OrderItem, subtotal, fee decimal.Decimal, code *string) error {
	dishes := s.dishRepo.WithTx(tx)
	for _, item := range items {
		ok, err := dishes.DecrementStock(ctx, *item.SKUID, item.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return common.NewInsufficientStockError(item.SKUValue)
		}
	}

	order.Subtotal = subtotal
	order.DeliveryFee = fee
	order.Discount = decimal.Zero
	if code != nil && *code != "" {
		res, err := s.promotions.ApplyTx(ctx, tx, *code, subtotal)
		if err != nil {
			return err
		}
		order.PromotionID = &res.PromotionID
		order.Discount = res.DiscountAmount
	}
	order.TotalAmount = subtotal.Add(fee).Sub(order.Discount)
	if order.TotalAmount.IsNegative() {
		order.TotalAmount = decimal.Zero
	}

	if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
		return err
	}
	if err := s.orderItemRepo.WithTx(tx).CreateBatch(ctx, items); err != nil {
		return err
	}
	order.Items = items

	if order.TableID != nil {
		return s.tableRepo.WithTx(tx).SetStatus(ctx, *order.TableID, models.TableStatusOccupied)
	}
	return nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, common.NewValidationError("status", "unknown order status")
	}
	order, err := s.orderRepo.GetByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, status)
}

func (s *orderService) Cancel(ctx context.Context, p *common.Principal, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(p.UserID, p.GuestID) {
		return nil, common.NewNotFoundError("order")
	}
	if order.Status != models.OrderStatusPendingConfirmation {
		return nil, common.NewConflictError("only orders awaiting confirmation can be cancelled")
	}
	return s.transition(ctx, order, models.OrderStatusCancelled)
}

func (s *orderService) transition(ctx context.Context, order *models.Order, status models.OrderStatus) (*models.Order, error) {
	if order.Status.Terminal() {
		return nil, common.NewConflictError(fmt.Sprintf("order is already %s", order.Status))
	}
	moved, err := s.orderRepo.UpdateStatus(ctx, order.ID, status)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, common.NewConflictError("order was closed concurrently")
	}

	from := order.Status
	order.Status = status
	s.logger.Info("order status changed", "order_id", order.ID, "from", from, "to", status)

	if status.Terminal() && order.TableID != nil {
		s.releaseTable(ctx, *order.TableID)
	}
	s.notifier.OrderUpdated(ctx, order)
	return order, nil
}

// releaseTable frees the table once its last open order is closed.
func (s *orderService) releaseTable(ctx context.Context, tableID uuid.UUID) {
	open, err := s.orderRepo.CountOpenByTable(ctx, tableID)
	if err != nil {
		s.logger.Error("failed to count open table orders", "table_id", tableID, "error", err)
		return
	}
	if open > 0 {
		return
	}
	if err := s.tableRepo.SetStatus(ctx, tableID, models.TableStatusAvailable); err != nil {
		s.logger.Error("failed to release table", "table_id", tableID, "error", err)
	}
}

func (s *orderService) Get(ctx context.Context, p *common.Principal, orderID uuid.UUID, staff bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if !staff && !order.OwnedBy(p.UserID, p.GuestID) {
		return nil, common.NewNotFoundError("order")
	}
	items, err := s.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter models.OrderFilter, params common.PageParams) (*common.Page[*models.Order], error) {
	return common.Paginate(ctx, params,
		func(ctx context.Context, limit, offset int) ([]*models.Order, error) {
			return s.orderRepo.List(ctx, filter, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.orderRepo.Count(ctx, filter)
		},
	)
}

func (s *orderService) MyOrders(ctx context.Context, p *common.Principal, params common.PageParams) (*common.Page[*models.Order], error) {
	var filter models.OrderFilter
	switch {
	case p.UserID != nil:
		filter.UserID = p.UserID
	case p.GuestID != nil:
		filter.GuestID = p.GuestID
	default:
		return nil, common.NewUnauthorizedError("no order owner")
	}
	return s.List(ctx, filter, params)
}
