package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dinerhub/internal/caching"
	"dinerhub/internal/common"
	"dinerhub/internal/models"
	"dinerhub/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(t *testing.T) (caching.CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return caching.NewCacheServiceFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

// passthroughTransactor runs fn without a real transaction.
type passthroughTransactor struct{}

func (passthroughTransactor) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// ---- cart ----

type memCartRepo struct {
	mu     sync.Mutex
	dishes *memDishRepo
	lines  map[string][]*models.CartItem
}

func newMemCartRepo(dishes *memDishRepo) *memCartRepo {
	return &memCartRepo{dishes: dishes, lines: map[string][]*models.CartItem{}}
}

func (r *memCartRepo) WithTx(tx repositories.DBTX) repositories.CartRepository { return r }

func (r *memCartRepo) AddOrIncrement(ctx context.Context, ownerKey string, skuID uuid.UUID, qty int) (*models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.lines[ownerKey] {
		if item.SKUID == skuID {
			item.Quantity += qty
			return item, nil
		}
	}
	item := &models.CartItem{ID: uuid.New(), OwnerKey: ownerKey, SKUID: skuID, Quantity: qty}
	r.lines[ownerKey] = append(r.lines[ownerKey], item)
	return item, nil
}

func (r *memCartRepo) SetQuantity(ctx context.Context, ownerKey string, skuID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.lines[ownerKey] {
		if item.SKUID == skuID {
			item.Quantity = qty
			return nil
		}
	}
	return common.NewNotFoundError("cart item")
}

func (r *memCartRepo) Quantity(ctx context.Context, ownerKey string, skuID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.lines[ownerKey] {
		if item.SKUID == skuID {
			return item.Quantity, nil
		}
	}
	return 0, nil
}

func (r *memCartRepo) Remove(ctx context.Context, ownerKey string, skuID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.lines[ownerKey]
	for i, item := range items {
		if item.SKUID == skuID {
			r.lines[ownerKey] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListLines joins cart items with the live dish data, as the SQL join does.
func (r *memCartRepo) ListLines(ctx context.Context, ownerKey string) ([]*models.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var lines []*models.CartLine
	for _, item := range r.lines[ownerKey] {
		dish, sku := r.dishes.lookupSKU(item.SKUID)
		if sku == nil {
			continue
		}
		lines = append(lines, &models.CartLine{
			CartItem:      *item,
			DishID:        dish.ID,
			DishName:      dish.Name,
			DishBasePrice: dish.BasePrice,
			DishImages:    dish.Images,
			HasVariants:   dish.HasVariants(),
			SKUValue:      sku.Value,
			SKUPrice:      sku.Price,
			SKUImages:     sku.Images,
			Stock:         sku.Stock,
			Available:     dish.Active && dish.DeletedAt == nil && sku.DeletedAt == nil,
		})
	}
	return lines, nil
}

func (r *memCartRepo) Clear(ctx context.Context, ownerKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, ownerKey)
	return nil
}

// ---- dishes ----

type memDishRepo struct {
	mu     sync.Mutex
	dishes map[uuid.UUID]*models.Dish
}

func newMemDishRepo(dishes ...*models.Dish) *memDishRepo {
	r := &memDishRepo{dishes: map[uuid.UUID]*models.Dish{}}
	for _, d := range dishes {
		r.dishes[d.ID] = d
	}
	return r
}

func (r *memDishRepo) lookupSKU(skuID uuid.UUID) (*models.Dish, *models.SKU) {
	for _, d := range r.dishes {
		if sku := d.SKU(skuID); sku != nil {
			return d, sku
		}
	}
	return nil, nil
}

func (r *memDishRepo) WithTx(tx repositories.DBTX) repositories.DishRepository { return r }

func (r *memDishRepo) Create(ctx context.Context, dish *models.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dishes[dish.ID] = dish
	return nil
}

func (r *memDishRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dishes[id]
	if !ok || (!includeDeleted && d.DeletedAt != nil) {
		return nil, common.NewNotFoundError("dish")
	}
	return d, nil
}

func (r *memDishRepo) Update(ctx context.Context, dish *models.Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dishes[dish.ID] = dish
	return nil
}

func (r *memDishRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.dishes[id]; ok {
		now := time.Now()
		d.DeletedAt = &now
	}
	return nil
}

func (r *memDishRepo) List(ctx context.Context, filter models.DishFilter, limit, offset int) ([]*models.Dish, error) {
	return nil, nil
}

func (r *memDishRepo) Count(ctx context.Context, filter models.DishFilter) (int64, error) {
	return int64(len(r.dishes)), nil
}

func (r *memDishRepo) GetSKU(ctx context.Context, skuID uuid.UUID, includeDeleted bool) (*models.SKU, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, sku := r.lookupSKU(skuID)
	if sku == nil || (!includeDeleted && sku.DeletedAt != nil) {
		return nil, common.NewNotFoundError("sku")
	}
	return sku, nil
}

func (r *memDishRepo) UpdateSKU(ctx context.Context, sku *models.SKU) error { return nil }

func (r *memDishRepo) DecrementStock(ctx context.Context, skuID uuid.UUID, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, sku := r.lookupSKU(skuID)
	if sku == nil || sku.Stock < qty {
		return false, nil
	}
	sku.Stock -= qty
	return true, nil
}

// ---- orders ----

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (r *memOrderRepo) WithTx(tx repositories.DBTX) repositories.OrderRepository { return r }

func (r *memOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *order
	stored.Items = nil
	r.orders[order.ID] = &stored
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, common.NewNotFoundError("order")
	}
	cp := *o
	return &cp, nil
}

func (r *memOrderRepo) List(ctx context.Context, filter models.OrderFilter, limit, offset int) ([]*models.Order, error) {
	return nil, nil
}

func (r *memOrderRepo) Count(ctx context.Context, filter models.OrderFilter) (int64, error) {
	return int64(len(r.orders)), nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status.Terminal() {
		return false, nil
	}
	o.Status = status
	return true, nil
}

func (r *memOrderRepo) CountOpenByTable(ctx context.Context, tableID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.TableID != nil && *o.TableID == tableID && !o.Status.Terminal() {
			n++
		}
	}
	return n, nil
}

func (r *memOrderRepo) SoftDelete(ctx context.Context, id uuid.UUID) error { return nil }

type memOrderItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID][]*models.OrderItem
}

func newMemOrderItemRepo() *memOrderItemRepo {
	return &memOrderItemRepo{items: map[uuid.UUID][]*models.OrderItem{}}
}

func (r *memOrderItemRepo) WithTx(tx repositories.DBTX) repositories.OrderItemRepository { return r }

func (r *memOrderItemRepo) CreateBatch(ctx context.Context, items []*models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		cp := *item
		r.items[item.OrderID] = append(r.items[item.OrderID], &cp)
	}
	return nil
}

func (r *memOrderItemRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

// ---- promotions ----

// memPromotionRepo redeems under a lock, mirroring the conditional UPDATE.
type memPromotionRepo struct {
	mu         sync.Mutex
	promotions map[uuid.UUID]*models.Promotion
}

func newMemPromotionRepo(promotions ...*models.Promotion) *memPromotionRepo {
	r := &memPromotionRepo{promotions: map[uuid.UUID]*models.Promotion{}}
	for _, p := range promotions {
		r.promotions[p.ID] = p
	}
	return r
}

func (r *memPromotionRepo) WithTx(tx repositories.DBTX) repositories.PromotionRepository { return r }

func (r *memPromotionRepo) Create(ctx context.Context, p *models.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions[p.ID] = p
	return nil
}

func (r *memPromotionRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promotions[id]
	if !ok {
		return nil, common.NewNotFoundError("promotion")
	}
	cp := *p
	return &cp, nil
}

func (r *memPromotionRepo) GetByCode(ctx context.Context, code string, includeDeleted bool) (*models.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.promotions {
		if p.Code == code && (includeDeleted || p.DeletedAt == nil) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.NewNotFoundError("promotion")
}

func (r *memPromotionRepo) Update(ctx context.Context, p *models.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions[p.ID] = p
	return nil
}

func (r *memPromotionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memPromotionRepo) List(ctx context.Context, limit, offset int) ([]*models.Promotion, error) {
	return nil, nil
}

func (r *memPromotionRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.promotions)), nil
}

func (r *memPromotionRepo) Redeem(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promotions[id]
	if !ok {
		return false, nil
	}
	if p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

func (r *memPromotionRepo) usedCount(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.promotions[id].UsedCount
}

// ---- tables and addresses ----

type memTableRepo struct {
	mu     sync.Mutex
	tables map[uuid.UUID]*models.RestaurantTable
}

func newMemTableRepo(tables ...*models.RestaurantTable) *memTableRepo {
	r := &memTableRepo{tables: map[uuid.UUID]*models.RestaurantTable{}}
	for _, t := range tables {
		r.tables[t.ID] = t
	}
	return r
}

func (r *memTableRepo) WithTx(tx repositories.DBTX) repositories.TableRepository { return r }

func (r *memTableRepo) Create(ctx context.Context, table *models.RestaurantTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[table.ID] = table
	return nil
}

func (r *memTableRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.RestaurantTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return nil, common.NewNotFoundError("table")
	}
	cp := *t
	return &cp, nil
}

func (r *memTableRepo) GetByQRCode(ctx context.Context, qrCode string) (*models.RestaurantTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tables {
		if t.QRCode == qrCode {
			cp := *t
			return &cp, nil
		}
	}
	return nil, common.NewNotFoundError("table")
}

func (r *memTableRepo) Update(ctx context.Context, table *models.RestaurantTable) error { return nil }

func (r *memTableRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.TableStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[id]; ok {
		t.Status = status
	}
	return nil
}

func (r *memTableRepo) SetQRCode(ctx context.Context, id uuid.UUID, qrCode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[id]
	if !ok {
		return common.NewNotFoundError("table")
	}
	t.QRCode = qrCode
	return nil
}

func (r *memTableRepo) SoftDelete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memTableRepo) List(ctx context.Context, status *models.TableStatus, limit, offset int) ([]*models.RestaurantTable, error) {
	return nil, nil
}

func (r *memTableRepo) Count(ctx context.Context, status *models.TableStatus) (int64, error) {
	return 0, nil
}

func (r *memTableRepo) ListFree(ctx context.Context, partySize int, start, end time.Time) ([]*models.RestaurantTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var free []*models.RestaurantTable
	for _, t := range r.tables {
		if t.Capacity >= partySize {
			free = append(free, t)
		}
	}
	return free, nil
}

func (r *memTableRepo) status(id uuid.UUID) models.TableStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tables[id].Status
}

type memAddressRepo struct {
	addresses map[uuid.UUID]*models.Address
}

func (r *memAddressRepo) WithTx(tx repositories.DBTX) repositories.AddressRepository { return r }

func (r *memAddressRepo) Create(ctx context.Context, address *models.Address) error {
	r.addresses[address.ID] = address
	return nil
}

func (r *memAddressRepo) GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return nil, common.NewNotFoundError("address")
	}
	return a, nil
}

func (r *memAddressRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Address, error) {
	return nil, nil
}

func (r *memAddressRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

// ---- users ----

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]*models.User{}}
}

func (r *memUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return common.NewConflictError("user already exists")
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.NewNotFoundError("user")
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.NewNotFoundError("user")
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (r *memUserRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (r *memUserRepo) SoftDelete(ctx context.Context, id uuid.UUID) error { return nil }

func (r *memUserRepo) List(ctx context.Context, filter models.UserFilter, limit, offset int) ([]*models.User, error) {
	return nil, nil
}

func (r *memUserRepo) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	return 0, nil
}

// ---- roles ----

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) WithTx(tx repositories.DBTX) repositories.RoleRepository { return m }

func (m *MockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Role, error) {
	args := m.Called(ctx, id, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) GetByName(ctx context.Context, name string, includeDeleted bool) (*models.Role, error) {
	args := m.Called(ctx, name, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoleRepository) CountHolders(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context, limit, offset int) ([]*models.Role, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRoleRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Create(ctx context.Context, permission *models.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Permission, error) {
	args := m.Called(ctx, id, includeDeleted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Update(ctx context.Context, permission *models.Permission) error {
	args := m.Called(ctx, permission)
	return args.Error(0)
}

func (m *MockPermissionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPermissionRepository) List(ctx context.Context, module string, limit, offset int) ([]*models.Permission, error) {
	args := m.Called(ctx, module, limit, offset)
	return args.Get(0).([]*models.Permission), args.Error(1)
}

func (m *MockPermissionRepository) Count(ctx context.Context, module string) (int64, error) {
	args := m.Called(ctx, module)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPermissionRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

type MockRolePermissionRepository struct {
	mock.Mock
}

func (m *MockRolePermissionRepository) WithTx(tx repositories.DBTX) repositories.RolePermissionRepository {
	return m
}

func (m *MockRolePermissionRepository) Replace(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	args := m.Called(ctx, roleID, permissionIDs)
	return args.Error(0)
}

func (m *MockRolePermissionRepository) ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.Permission, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]models.Permission), args.Error(1)
}

func (m *MockRolePermissionRepository) PermissionNames(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]string), args.Error(1)
}

// ---- notifier and storage ----

type recordingNotifier struct {
	mu      sync.Mutex
	created []*models.Order
	updated []models.OrderStatus
}

func (n *recordingNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, order)
}

func (n *recordingNotifier) OrderUpdated(ctx context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, order.Status)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PutObject(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, name, reader, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) RemoveObject(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockObjectStore) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
