// Package catalog resolves variant selections to SKUs and prices them.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ResolveSKU returns the SKU whose option set equals the selections, or nil.
// A variant-less dish resolves to its default SKU (one without options).
// Partial selections never fall back to a closest match.
func ResolveSKU(dish *models.Dish, selections map[uuid.UUID]uuid.UUID) *models.SKU {
	if dish == nil {
		return nil
	}
	live := lo.Filter(dish.SKUs, func(s *models.SKU, _ int) bool { return s.DeletedAt == nil })

	if !dish.HasVariants() {
		if len(selections) > 0 {
			return nil
		}
		sku, ok := lo.Find(live, func(s *models.SKU) bool { return len(s.OptionIDs) == 0 })
		if !ok {
			return nil
		}
		return sku
	}

	if len(selections) != len(dish.Variants) {
		return nil
	}
	for variantID, optionID := range selections {
		v := dish.Variant(variantID)
		if v == nil || !v.HasOption(optionID) {
			return nil
		}
	}

	selected := lo.Values(selections)
	sku, ok := lo.Find(live, func(s *models.SKU) bool {
		return len(s.OptionIDs) == len(selected) && lo.Every(s.OptionIDs, selected)
	})
	if !ok {
		return nil
	}
	return sku
}

// UnitPrice is the SKU price for dishes with variants and the base price otherwise.
func UnitPrice(dish *models.Dish, sku *models.SKU) decimal.Decimal {
	return PriceFor(dish.HasVariants(), dish.BasePrice, sku.Price)
}

func PriceFor(hasVariants bool, basePrice, skuPrice decimal.Decimal) decimal.Decimal {
	if hasVariants {
		return skuPrice
	}
	return basePrice
}

// ImagesFor prefers SKU images and falls back to the dish's.
func ImagesFor(dishImages, skuImages []string) []string {
	if len(skuImages) > 0 {
		return skuImages
	}
	if dishImages == nil {
		return []string{}
	}
	return dishImages
}

// OptionKey is the canonical, order-independent key of an option combination.
func OptionKey(optionIDs []uuid.UUID) string {
	ids := lo.Map(optionIDs, func(id uuid.UUID, _ int) string { return id.String() })
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// ValidateSKUs checks that every SKU picks exactly one option per variant and
// that no two SKUs share a combination. It fills in each SKU's OptionKey.
func ValidateSKUs(dish *models.Dish) error {
	if len(dish.SKUs) == 0 {
		return common.NewValidationError("skus", "a dish needs at least one SKU")
	}

	optionVariant := make(map[uuid.UUID]uuid.UUID)
	for _, v := range dish.Variants {
		if len(v.Options) == 0 {
			return common.NewValidationError("variants", fmt.Sprintf("variant %q has no options", v.Name))
		}
		for _, o := range v.Options {
			optionVariant[o.ID] = v.ID
		}
	}

	seen := make(map[string]struct{}, len(dish.SKUs))
	for _, sku := range dish.SKUs {
		if len(sku.OptionIDs) != len(dish.Variants) {
			return common.NewValidationError("skus", fmt.Sprintf("SKU %q must select exactly one option per variant", sku.Value))
		}
		covered := make(map[uuid.UUID]struct{}, len(sku.OptionIDs))
		for _, optionID := range sku.OptionIDs {
			variantID, ok := optionVariant[optionID]
			if !ok {
				return common.NewValidationError("skus", fmt.Sprintf("SKU %q references an unknown option", sku.Value))
			}
			if _, dup := covered[variantID]; dup {
				return common.NewValidationError("skus", fmt.Sprintf("SKU %q selects two options of one variant", sku.Value))
			}
			covered[variantID] = struct{}{}
		}
		if sku.Stock < 0 {
			return common.NewValidationError("skus", fmt.Sprintf("SKU %q stock cannot be negative", sku.Value))
		}
		if sku.Price.IsNegative() {
			return common.NewValidationError("skus", fmt.Sprintf("SKU %q price cannot be negative", sku.Value))
		}

		sku.OptionKey = OptionKey(sku.OptionIDs)
		if _, dup := seen[sku.OptionKey]; dup {
			return common.NewValidationError("skus", fmt.Sprintf("SKU %q duplicates another option combination", sku.Value))
		}
		seen[sku.OptionKey] = struct{}{}
	}
	return nil
}
