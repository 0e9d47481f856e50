package repositories

import (
	"context"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type AddressRepository interface {
	WithTx(tx DBTX) AddressRepository
	Create(ctx context.Context, address *models.Address) error
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Address, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type addressRepo struct {
	db DBTX
}

func NewAddressRepo(db DBTX) AddressRepository {
	return &addressRepo{db: db}
}

func (r *addressRepo) WithTx(tx DBTX) AddressRepository {
	return &addressRepo{db: tx}
}

const addressColumns = `id, user_id, label, recipient, phone, line, is_default, created_at`

func scanAddress(row interface{ Scan(dest ...any) error }) (*models.Address, error) {
	a := &models.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Recipient, &a.Phone, &a.Line, &a.IsDefault, &a.CreatedAt)
	return a, err
}

func (r *addressRepo) Create(ctx context.Context, address *models.Address) error {
	query := `
		INSERT INTO addresses (id, user_id, label, recipient, phone, line, is_default, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err := r.db.Exec(ctx, query, address.ID, address.UserID, address.Label, address.Recipient, address.Phone, address.Line, address.IsDefault)
	return common.TranslateDBError(err, "address")
}

// GetForUser only returns addresses owned by userID.
func (r *addressRepo) GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND user_id = $2`
	a, err := scanAddress(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, common.TranslateDBError(err, "address")
	}
	return a, nil
}

func (r *addressRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, common.TranslateDBError(err, "address")
	}
	defer rows.Close()

	var addresses []*models.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *addressRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}
