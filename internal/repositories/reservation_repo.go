package repositories

import (
	"context"
	"time"

	"dinerhub/internal/common"
	"dinerhub/internal/models"

	"github.com/google/uuid"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *models.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	Update(ctx context.Context, reservation *models.Reservation) error
	List(ctx context.Context, filter models.ReservationFilter, limit, offset int) ([]*models.Reservation, error)
	Count(ctx context.Context, filter models.ReservationFilter) (int64, error)
	HasOverlap(ctx context.Context, tableID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	// MarkNoShows flags confirmed or pending reservations that started before cutoff.
	MarkNoShows(ctx context.Context, cutoff time.Time) (int64, error)
}

type reservationRepo struct {
	db DBTX
}

func NewReservationRepo(db DBTX) ReservationRepository {
	return &reservationRepo{db: db}
}

const reservationColumns = `id, user_id, table_id, customer_name, phone, party_size, reserved_at, ends_at, status, note, created_at, updated_at`

func scanReservation(row interface{ Scan(dest ...any) error }) (*models.Reservation, error) {
	rv := &models.Reservation{}
	err := row.Scan(&rv.ID, &rv.UserID, &rv.TableID, &rv.CustomerName, &rv.Phone, &rv.PartySize,
		&rv.ReservedAt, &rv.EndsAt, &rv.Status, &rv.Note, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

func (r *reservationRepo) Create(ctx context.Context, rv *models.Reservation) error {
	query := `
		INSERT INTO reservations (id, user_id, table_id, customer_name, phone, party_size, reserved_at, ends_at, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, rv.ID, rv.UserID, rv.TableID, rv.CustomerName, rv.Phone, rv.PartySize,
		rv.ReservedAt, rv.EndsAt, rv.Status, rv.Note)
	return common.TranslateDBError(err, "reservation")
}

func (r *reservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	rv, err := scanReservation(r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	if err != nil {
		return nil, common.TranslateDBError(err, "reservation")
	}
	return rv, nil
}

func (r *reservationRepo) Update(ctx context.Context, rv *models.Reservation) error {
	query := `
		UPDATE reservations
		SET table_id = $1, customer_name = $2, phone = $3, party_size = $4, reserved_at = $5, ends_at = $6,
			status = $7, note = $8, updated_at = NOW()
		WHERE id = $9
	`
	tag, err := r.db.Exec(ctx, query, rv.TableID, rv.CustomerName, rv.Phone, rv.PartySize, rv.ReservedAt, rv.EndsAt,
		rv.Status, rv.Note, rv.ID)
	if err != nil {
		return common.TranslateDBError(err, "reservation")
	}
	if tag.RowsAffected() == 0 {
		return common.NewNotFoundError("reservation")
	}
	return nil
}

func reservationConditions(filter models.ReservationFilter) *conditions {
	c := &conditions{}
	c.addRaw("TRUE")
	if filter.UserID != nil {
		c.add("user_id = $%d", *filter.UserID)
	}
	if filter.TableID != nil {
		c.add("table_id = $%d", *filter.TableID)
	}
	if filter.Status != nil {
		c.add("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		c.add("reserved_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		c.add("reserved_at < $%d", *filter.To)
	}
	return c
}

func (r *reservationRepo) List(ctx context.Context, filter models.ReservationFilter, limit, offset int) ([]*models.Reservation, error) {
	c := reservationConditions(filter)
	pageClause, args := c.page(limit, offset)
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		` + c.where() + `
		ORDER BY reserved_at DESC
		` + pageClause
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.TranslateDBError(err, "reservation")
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		rv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, rv)
	}
	return reservations, rows.Err()
}

func (r *reservationRepo) Count(ctx context.Context, filter models.ReservationFilter) (int64, error) {
	c := reservationConditions(filter)
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations `+c.where(), c.args...).Scan(&total)
	return total, err
}

func (r *reservationRepo) HasOverlap(ctx context.Context, tableID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE table_id = $1
			  AND status IN ('PENDING', 'CONFIRMED', 'SEATED')
			  AND reserved_at < $3 AND ends_at > $2
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`
	var exists bool
	err := r.db.QueryRow(ctx, query, tableID, start, end, excludeID).Scan(&exists)
	return exists, err
}

func (r *reservationRepo) MarkNoShows(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'NO_SHOW', updated_at = NOW()
		WHERE status IN ('PENDING', 'CONFIRMED') AND reserved_at < $1
	`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, common.TranslateDBError(err, "reservation")
	}
	return tag.RowsAffected(), nil
}
