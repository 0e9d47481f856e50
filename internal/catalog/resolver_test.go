package catalog

import (
	"testing"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teaFixture struct {
	dish          *models.Dish
	size, ice     *models.Variant
	m, l, yes, no *models.VariantOption
	skuByCombo    map[string]*models.SKU
}

func newTeaFixture() *teaFixture {
	f := &teaFixture{skuByCombo: map[string]*models.SKU{}}
	dishID := uuid.New()
	f.size = &models.Variant{ID: uuid.New(), DishID: dishID, Name: "Size"}
	f.ice = &models.Variant{ID: uuid.New(), DishID: dishID, Name: "Ice"}
	f.m = &models.VariantOption{ID: uuid.New(), VariantID: f.size.ID, Value: "M"}
	f.l = &models.VariantOption{ID: uuid.New(), VariantID: f.size.ID, Value: "L"}
	f.yes = &models.VariantOption{ID: uuid.New(), VariantID: f.ice.ID, Value: "Yes"}
	f.no = &models.VariantOption{ID: uuid.New(), VariantID: f.ice.ID, Value: "No"}
	f.size.Options = []*models.VariantOption{f.m, f.l}
	f.ice.Options = []*models.VariantOption{f.yes, f.no}

	f.dish = &models.Dish{
		ID:        dishID,
		Name:      "Milk tea",
		BasePrice: decimal.NewFromInt(30000),
		Variants:  []*models.Variant{f.size, f.ice},
	}
	for _, size := range []*models.VariantOption{f.m, f.l} {
		for _, ice := range []*models.VariantOption{f.yes, f.no} {
			sku := &models.SKU{
				ID:        uuid.New(),
				DishID:    dishID,
				Value:     size.Value + "/" + ice.Value,
				Price:     decimal.NewFromInt(35000),
				Stock:     10,
				OptionIDs: []uuid.UUID{size.ID, ice.ID},
			}
			f.dish.SKUs = append(f.dish.SKUs, sku)
			f.skuByCombo[sku.Value] = sku
		}
	}
	return f
}

func TestResolveSKU(t *testing.T) {
	f := newTeaFixture()

	t.Run("partial selection returns nil", func(t *testing.T) {
		got := ResolveSKU(f.dish, map[uuid.UUID]uuid.UUID{f.size.ID: f.m.ID})
		assert.Nil(t, got)
	})

	t.Run("full selection returns the exact SKU", func(t *testing.T) {
		got := ResolveSKU(f.dish, map[uuid.UUID]uuid.UUID{f.size.ID: f.m.ID, f.ice.ID: f.yes.ID})
		require.NotNil(t, got)
		assert.Equal(t, f.skuByCombo["M/Yes"].ID, got.ID)
	})

	t.Run("option from the wrong variant returns nil", func(t *testing.T) {
		got := ResolveSKU(f.dish, map[uuid.UUID]uuid.UUID{f.size.ID: f.yes.ID, f.ice.ID: f.m.ID})
		assert.Nil(t, got)
	})

	t.Run("missing combination returns nil", func(t *testing.T) {
		sparse := *f.dish
		sparse.SKUs = []*models.SKU{f.skuByCombo["L/No"]}
		got := ResolveSKU(&sparse, map[uuid.UUID]uuid.UUID{f.size.ID: f.m.ID, f.ice.ID: f.yes.ID})
		assert.Nil(t, got)
	})

	t.Run("soft-deleted SKU is unavailable", func(t *testing.T) {
		deleted := *f.skuByCombo["L/Yes"]
		now := time.Now()
		deleted.DeletedAt = &now
		dish := *f.dish
		dish.SKUs = []*models.SKU{&deleted}
		got := ResolveSKU(&dish, map[uuid.UUID]uuid.UUID{f.size.ID: f.l.ID, f.ice.ID: f.yes.ID})
		assert.Nil(t, got)
	})
}

func TestResolveSKUWithoutVariants(t *testing.T) {
	defaultSKU := &models.SKU{ID: uuid.New(), Value: "Default", Price: decimal.NewFromInt(1), Stock: 3}
	dish := &models.Dish{ID: uuid.New(), BasePrice: decimal.NewFromInt(45000), SKUs: []*models.SKU{defaultSKU}}

	got := ResolveSKU(dish, nil)
	require.NotNil(t, got)
	assert.Equal(t, defaultSKU.ID, got.ID)

	assert.Nil(t, ResolveSKU(dish, map[uuid.UUID]uuid.UUID{uuid.New(): uuid.New()}))
	assert.True(t, UnitPrice(dish, got).Equal(decimal.NewFromInt(45000)), "variant-less dishes use the base price")
}

func TestUnitPriceUsesSKUForVariants(t *testing.T) {
	f := newTeaFixture()
	sku := f.skuByCombo["L/No"]
	sku.Price = decimal.NewFromInt(42000)
	assert.True(t, UnitPrice(f.dish, sku).Equal(decimal.NewFromInt(42000)))
}

func TestOptionKeyIsOrderIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.Equal(t, OptionKey([]uuid.UUID{a, b}), OptionKey([]uuid.UUID{b, a}))
	assert.Equal(t, "", OptionKey(nil))
}

func TestValidateSKUs(t *testing.T) {
	t.Run("valid set fills option keys", func(t *testing.T) {
		f := newTeaFixture()
		require.NoError(t, ValidateSKUs(f.dish))
		for _, sku := range f.dish.SKUs {
			assert.NotEmpty(t, sku.OptionKey)
		}
	})

	t.Run("duplicate combination", func(t *testing.T) {
		f := newTeaFixture()
		dup := *f.skuByCombo["M/Yes"]
		dup.ID = uuid.New()
		dup.OptionIDs = []uuid.UUID{f.yes.ID, f.m.ID}
		f.dish.SKUs = append(f.dish.SKUs, &dup)
		assert.ErrorIs(t, ValidateSKUs(f.dish), common.ErrValidation)
	})

	t.Run("two options of one variant", func(t *testing.T) {
		f := newTeaFixture()
		f.dish.SKUs[0].OptionIDs = []uuid.UUID{f.m.ID, f.l.ID}
		assert.ErrorIs(t, ValidateSKUs(f.dish), common.ErrValidation)
	})

	t.Run("missing a variant", func(t *testing.T) {
		f := newTeaFixture()
		f.dish.SKUs[0].OptionIDs = []uuid.UUID{f.m.ID}
		assert.ErrorIs(t, ValidateSKUs(f.dish), common.ErrValidation)
	})

	t.Run("variant-less dish takes one default SKU", func(t *testing.T) {
		dish := &models.Dish{SKUs: []*models.SKU{{Value: "Default"}}}
		require.NoError(t, ValidateSKUs(dish))

		dish.SKUs = append(dish.SKUs, &models.SKU{Value: "Second"})
		assert.ErrorIs(t, ValidateSKUs(dish), common.ErrValidation)
	})
}
