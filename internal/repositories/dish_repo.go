package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type DishRepository interface {
	WithTx(tx DBTX) DishRepository
	// Create writes the dish with its translations, variants, options and SKUs.
	// Callers run it inside a transaction.
	Create(ctx context.Context, dish *models.Dish) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Dish, error)
	Update(ctx context.Context, dish *models.Dish) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.DishFilter, limit, offset int) ([]*models.Dish, error)
	Count(ctx context.Context, filter models.DishFilter) (int64, error)
	GetSKU(ctx context.Context, skuID uuid.UUID, includeDeleted bool) (*models.SKU, error)
	UpdateSKU(ctx context.Context, sku *models.SKU) error
	// DecrementStock takes qty units if available; false means not enough stock.
	DecrementStock(ctx context.Context, skuID uuid.UUID, qty int) (bool, error)
}

type dishRepo struct {
	db DBTX
}

func NewDishRepo(db DBTX) DishRepository {
	return &dishRepo{db: db}
}

func (r *dishRepo) WithTx(tx DBTX) DishRepository {
	return &dishRepo{db: tx}
}

const (
	dishColumns = `d.id, d.category_id, d.name, d.description, d.base_price, d.images, d.active, d.created_at, d.updated_at, d.deleted_at`
	skuColumns  = `id, dish_id, value, price, stock, images, option_key, created_at, updated_at, deleted_at`
)

func scanDish(row interface{ Scan(dest ...any) error }) (*models.Dish, error) {
	d := &models.Dish{}
	err := row.Scan(&d.ID, &d.CategoryID, &d.Name, &d.Description, &d.BasePrice, &d.Images, &d.Active, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	return d, err
}

func scanSKU(row interface{ Scan(dest ...any) error }) (*models.SKU, error) {
	s := &models.SKU{}
	err := row.Scan(&s.ID, &s.DishID, &s.Value, &s.Price, &s.Stock, &s.Images, &s.OptionKey, &s.CreatedAt, &s.UpdatedAt, &s.DeletedAt)
	return s, err
}

func (r *dishRepo) Create(ctx context.Context, dish *models.Dish) error {
	query := `
		INSERT INTO dishes (id, category_id, name, description, base_price, images, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, query, dish.ID, dish.CategoryID, dish.Name, dish.Description, dish.BasePrice, nonNil(dish.Images), dish.Active); err != nil {
		return common.TranslateDBError(err, "dish")
	}
	if err := r.insertTranslations(ctx, dish); err != nil {
		return err
	}

	for _, v := range dish.Variants {
		if _, err := r.db.Exec(ctx, `INSERT INTO variants (id, dish_id, name, position) VALUES ($1, $2, $3, $4)`,
			v.ID, dish.ID, v.Name, v.Position); err != nil {
			return common.TranslateDBError(err, "variant")
		}
		for _, o := range v.Options {
			if _, err := r.db.Exec(ctx, `INSERT INTO variant_options (id, variant_id, value, position) VALUES ($1, $2, $3, $4)`,
				o.ID, v.ID, o.Value, o.Position); err != nil {
				return common.TranslateDBError(err, "variant option")
			}
		}
	}

	for _, s := range dish.SKUs {
		query := `
			INSERT INTO skus (id, dish_id, value, price, stock, images, option_key, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		`
		if _, err := r.db.Exec(ctx, query, s.ID, dish.ID, s.Value, s.Price, s.Stock, nonNil(s.Images), s.OptionKey); err != nil {
			return common.TranslateDBError(err, "sku")
		}
		if len(s.OptionIDs) > 0 {
			if _, err := r.db.Exec(ctx, `INSERT INTO sku_options (sku_id, option_id) SELECT $1, unnest($2::uuid[])`,
				s.ID, s.OptionIDs); err != nil {
				return common.TranslateDBError(err, "sku option")
			}
		}
	}
	return nil
}

func (r *dishRepo) insertTranslations(ctx context.Context, dish *models.Dish) error {
	for _, t := range dish.Translations {
		query := `
			INSERT INTO dish_translations (dish_id, language, name, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (dish_id, language) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description
		`
		if _, err := r.db.Exec(ctx, query, dish.ID, t.Language, t.Name, t.Description); err != nil {
			return common.TranslateDBError(err, "dish translation")
		}
	}
	return nil
}

func (r *dishRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Dish, error) {
	query := `SELECT ` + dishColumns + ` FROM dishes d WHERE d.id = $1 AND ` + softDeleteClause("d.deleted_at", includeDeleted)
	dish, err := scanDish(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "dish")
	}
	if err := r.loadTranslations(ctx, dish); err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, dish); err != nil {
		return nil, err
	}
	if err := r.loadSKUs(ctx, dish, includeDeleted); err != nil {
		return nil, err
	}
	return dish, nil
}

func (r *dishRepo) loadTranslations(ctx context.Context, dish *models.Dish) error {
	rows, err := r.db.Query(ctx, `SELECT dish_id, language, name, description FROM dish_translations WHERE dish_id = $1`, dish.ID)
	if err != nil {
		return common.TranslateDBError(err, "dish translation")
	}
	defer rows.Close()
	for rows.Next() {
		var t models.DishTranslation
		if err := rows.Scan(&t.DishID, &t.Language, &t.Name, &t.Description); err != nil {
			return err
		}
		dish.Translations = append(dish.Translations, t)
	}
	return rows.Err()
}

func (r *dishRepo) loadVariants(ctx context.Context, dish *models.Dish) error {
	query := `
		SELECT v.id, v.dish_id, v.name, v.position, o.id, o.variant_id, o.value, o.position
		FROM variants v
		JOIN variant_options o ON o.variant_id = v.id
		WHERE v.dish_id = $1
		ORDER BY v.position, v.name, o.position, o.value
	`
	rows, err := r.db.Query(ctx, query, dish.ID)
	if err != nil {
		return common.TranslateDBError(err, "variant")
	}
	defer rows.Close()

	dish.Variants = []*models.Variant{}
	byID := map[uuid.UUID]*models.Variant{}
	for rows.Next() {
		var v models.Variant
		o := &models.VariantOption{}
		if err := rows.Scan(&v.ID, &v.DishID, &v.Name, &v.Position, &o.ID, &o.VariantID, &o.Value, &o.Position); err != nil {
			return err
		}
		existing, ok := byID[v.ID]
		if !ok {
			existing = &v
			byID[v.ID] = existing
			dish.Variants = append(dish.Variants, existing)
		}
		existing.Options = append(existing.Options, o)
	}
	return rows.Err()
}

func (r *dishRepo) loadSKUs(ctx context.Context, dish *models.Dish, includeDeleted bool) error {
	query := `SELECT ` + skuColumns + ` FROM skus WHERE dish_id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted) + ` ORDER BY value`
	rows, err := r.db.Query(ctx, query, dish.ID)
	if err != nil {
		return common.TranslateDBError(err, "sku")
	}
	dish.SKUs = []*models.SKU{}
	byID := map[uuid.UUID]*models.SKU{}
	for rows.Next() {
		s, err := scanSKU(rows)
		if err != nil {
			rows.Close()
			return err
		}
		byID[s.ID] = s
		dish.SKUs = append(dish.SKUs, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	optRows, err := r.db.Query(ctx, `
		SELECT so.sku_id, so.option_id
		FROM sku_options so
		JOIN skus s ON s.id = so.sku_id
		WHERE s.dish_id = $1
	`, dish.ID)
	if err != nil {
		return common.TranslateDBError(err, "sku option")
	}
	defer optRows.Close()
	for optRows.Next() {
		var skuID, optionID uuid.UUID
		if err := optRows.Scan(&skuID, &optionID); err != nil {
			return err
		}
		if s, ok := byID[skuID]; ok {
			s.OptionIDs = append(s.OptionIDs, optionID)
		}
	}
	return optRows.Err()
}

func (r *dishRepo) Update(ctx context.Context, dish *models.Dish) error {
	query := `
		UPDATE dishes
		SET category_id = $1, name = $2, description = $3, base_price = $4, images = $5, active = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, dish.CategoryID, dish.Name, dish.Description, dish.BasePrice, nonNil(dish.Images), dish.Active, dish.ID)
	if err != nil {
		return common.TranslateDBError(err, "dish")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("dish")
	}
	return r.insertTranslations(ctx, dish)
}

// SoftDelete marks the dish and its SKUs deleted. Order snapshots are unaffected.
func (r *dishRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE dishes SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return common.TranslateDBError(err, "dish")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("dish")
	}
	_, err = r.db.Exec(ctx, `UPDATE skus SET deleted_at = NOW(), updated_at = NOW() WHERE dish_id = $1 AND deleted_at IS NULL`, id)
	return common.TranslateDBError(err, "sku")
}

func dishConditions(filter models.DishFilter) *conditions {
	c := &conditions{}
	c.addRaw("d.deleted_at IS NULL")
	if filter.CategoryID != nil {
		c.add("d.category_id = $%d", *filter.CategoryID)
	}
	if filter.Active != nil {
		c.add("d.active = $%d", *filter.Active)
	}
	if q := common.SanitizeSearchQuery(filter.Search); q != "" {
		c.add("d.name ILIKE '%%' || $%d || '%%'", q)
	}
	return c
}

func (r *dishRepo) List(ctx context.Context, filter models.DishFilter, limit, offset int) ([]*models.Dish, error) {
	c := dishConditions(filter)
	pageClause, args := c.page(limit, offset)
	query := `
		SELECT ` + dishColumns + `
		FROM dishes d
		` + c.where() + `
		ORDER BY d.created_at DESC
		` + pageClause
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.TranslateDBError(err, "dish")
	}
	defer rows.Close()

	var dishes []*models.Dish
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, d)
	}
	return dishes, rows.Err()
}

func (r *dishRepo) Count(ctx context.Context, filter models.DishFilter) (int64, error) {
	c := dishConditions(filter)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM dishes d `+c.where(), c.args...).Scan(&total)
	return total, err
}

func (r *dishRepo) GetSKU(ctx context.Context, skuID uuid.UUID, includeDeleted bool) (*models.SKU, error) {
	query := `SELECT ` + skuColumns + ` FROM skus WHERE id = $1 AND ` + softDeleteClause("deleted_at", includeDeleted)
	s, err := scanSKU(r.db.QueryRow(ctx, query, skuID))
	if err != nil {
		return nil, common.TranslateDBError(err, "sku")
	}
	return s, nil
}

func (r *dishRepo) UpdateSKU(ctx context.Context, sku *models.SKU) error {
	query := `
		UPDATE skus
		SET price = $1, stock = $2, images = $3, updated_at = NOW()
		WHERE id = $4 AND dish_id = $5 AND deleted_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, sku.Price, sku.Stock, nonNil(sku.Images), sku.ID, sku.DishID)
	if err != nil {
		return common.TranslateDBError(err, "sku")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("sku")
	}
	return nil
}

func (r *dishRepo) DecrementStock(ctx context.Context, skuID uuid.UUID, qty int) (bool, error) {
	query := `
		UPDATE skus
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL AND stock >= $1
	`
	tag, err := r.db.Exec(ctx, query, qty, skuID)
	if err != nil {
		return false, common.TranslateDBError(err, "sku")
	}
	return tag.RowsAffected() == 1, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
