package repositories

import (
	"context"
	"testing"
	"time"

	"dinerhub/internal/common"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     CartRepository
	ownerKey string
	skuID    uuid.UUID
	ctx      context.Context
}

func (s *CartRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewCartRepo(mock)
	s.ownerKey = "user:" + uuid.NewString()
	s.skuID = uuid.New()
	s.ctx = context.Background()
}

func (s *CartRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestCartRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CartRepoTestSuite))
}

func (s *CartRepoTestSuite) TestAddOrIncrement_MergesIntoExistingLine() {
	now := time.Now()
	itemID := uuid.New()

	s.mock.ExpectQuery(`INSERT INTO cart_items .+ ON CONFLICT \(owner_key, sku_id\)\s+DO UPDATE SET quantity = cart_items.quantity \+ EXCLUDED.quantity`).
		WithArgs(pgxmock.AnyArg(), s.ownerKey, s.skuID, 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "owner_key", "sku_id", "quantity", "created_at", "updated_at"}).
			AddRow(itemID, s.ownerKey, s.skuID, 5, now, now))

	item, err := s.repo.AddOrIncrement(s.ctx, s.ownerKey, s.skuID, 3)
	s.Require().NoError(err)
	s.Equal(5, item.Quantity)
	s.Equal(itemID, item.ID)
}

func (s *CartRepoTestSuite) TestSetQuantity_MissingLine() {
	s.mock.ExpectExec(`UPDATE cart_items SET quantity`).
		WithArgs(4, s.ownerKey, s.skuID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.repo.SetQuantity(s.ctx, s.ownerKey, s.skuID, 4)
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *CartRepoTestSuite) TestRemove() {
	s.mock.ExpectExec(`DELETE FROM cart_items WHERE owner_key = \$1 AND sku_id = \$2`).
		WithArgs(s.ownerKey, s.skuID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	s.NoError(s.repo.Remove(s.ctx, s.ownerKey, s.skuID))
}

func (s *CartRepoTestSuite) TestListLines_ScansAvailability() {
	now := time.Now()
	dishID := uuid.New()
	rows := pgxmock.NewRows([]string{
		"id", "owner_key", "sku_id", "quantity", "created_at", "updated_at",
		"dish_id", "name", "base_price", "images", "has_variants",
		"value", "price", "sku_images", "stock", "available",
	}).
		AddRow(uuid.New(), s.ownerKey, s.skuID, 2, now, now,
			dishID, "Milk tea", decimal.NewFromInt(30000), []string{"tea.png"}, true,
			"M / Ice", decimal.NewFromInt(35000), []string{}, 10, true).
		AddRow(uuid.New(), s.ownerKey, uuid.New(), 1, now, now,
			dishID, "Milk tea", decimal.NewFromInt(30000), []string{"tea.png"}, true,
			"L / Ice", decimal.NewFromInt(40000), []string{}, 0, false)

	s.mock.ExpectQuery(`SELECT .+ FROM cart_items ci\s+JOIN skus s`).
		WithArgs(s.ownerKey).
		WillReturnRows(rows)

	lines, err := s.repo.ListLines(s.ctx, s.ownerKey)
	s.Require().NoError(err)
	s.Require().Len(lines, 2)
	s.True(lines[0].Available)
	s.False(lines[1].Available)
	s.True(lines[0].SKUPrice.Equal(decimal.NewFromInt(35000)))
}

func (s *CartRepoTestSuite) TestListLines_EmptyCartIsNotNil() {
	s.mock.ExpectQuery(`FROM cart_items`).
		WithArgs(s.ownerKey).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	lines, err := s.repo.ListLines(s.ctx, s.ownerKey)
	s.NoError(err)
	s.NotNil(lines)
	s.Empty(lines)
}

func (s *CartRepoTestSuite) TestClear() {
	s.mock.ExpectExec(`DELETE FROM cart_items WHERE owner_key = \$1`).
		WithArgs(s.ownerKey).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	s.NoError(s.repo.Clear(s.ctx, s.ownerKey))
}

func (s *CartRepoTestSuite) TestQuantity() {
	s.mock.ExpectQuery(`SELECT COALESCE\(\(SELECT quantity FROM cart_items WHERE owner_key = \$1 AND sku_id = \$2\), 0\)`).
		WithArgs(s.ownerKey, s.skuID).
		WillReturnRows(pgxmock.NewRows([]string{"quantity"}).AddRow(4))

	qty, err := s.repo.Quantity(s.ctx, s.ownerKey, s.skuID)
	s.Require().NoError(err)
	s.Equal(4, qty)
}
