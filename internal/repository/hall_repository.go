package repository // repository holds data access logic for domain entities

import (
	"context" // context is used to manage deadlines and cancellation

	"github.com/iliyamo/club-event-engine/internal/model"
)

const hallColumns = `id, name, location, seating_capacity, created_at, updated_at`

// HallRepo provides methods to create, lock and retrieve halls.
type HallRepo struct {
	q querier // q is a pool or a transaction
}

// NewHallRepo constructs a HallRepo bound to q.
func NewHallRepo(q querier) *HallRepo {
	return &HallRepo{q: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHall(s rowScanner) (*model.Hall, error) {
	var h model.Hall
	if err := s.Scan(&h.ID, &h.Name, &h.Location, &h.SeatingCapacity, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a new hall and reads back the DB-default timestamps.
// A duplicate name yields ErrConflict.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (name, location, seating_capacity) VALUES (?, ?, ?)`
	res, err := r.q.ExecContext(ctx, qInsert, h.Name, h.Location, h.SeatingCapacity)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*h = *created
	return nil
}

// GetByID retrieves a hall by its ID.  It returns ErrNotFound when no row
// matches.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE id = ?`
	h, err := scanHall(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return h, nil
}

// Lock reads the hall row with FOR UPDATE.  Concurrent submissions and
// approvals for the same hall queue behind this lock.
func (r *HallRepo) Lock(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls WHERE id = ? FOR UPDATE`
	h, err := scanHall(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return h, nil
}

// List returns all halls ordered for best-fit selection.
func (r *HallRepo) List(ctx context.Context) ([]model.Hall, error) {
	const q = `SELECT ` + hallColumns + ` FROM halls ORDER BY seating_capacity ASC, id ASC`
	rows, err := r.q.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Hall, 0)
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCapacity applies a capacity correction.  MySQL reports zero
// affected rows when the value is unchanged, so callers lock the hall
// first to check existence.
func (r *HallRepo) UpdateCapacity(ctx context.Context, id uint64, capacity uint32) error {
	const q = `UPDATE halls SET seating_capacity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q.ExecContext(ctx, q, capacity, id)
	return err
}
