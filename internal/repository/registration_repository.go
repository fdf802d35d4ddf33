package repository

import (
	"context"

	"github.com/iliyamo/club-event-engine/internal/model"
)

const registrationColumns = `id, event_id, user_id, roll_number, notes, status, payment_status, registered_at, updated_at`

// acceptedIn is the SQL set of statuses that consume capacity.
const acceptedIn = `('REGISTERED', 'ATTENDED', 'NO_SHOW')`

// RegistrationRepo manages individual registrations.
type RegistrationRepo struct {
	q querier
}

// NewRegistrationRepo constructs a RegistrationRepo bound to q.
func NewRegistrationRepo(q querier) *RegistrationRepo {
	return &RegistrationRepo{q: q}
}

func scanRegistration(s rowScanner) (*model.Registration, error) {
	var r model.Registration
	if err := s.Scan(&r.ID, &r.EventID, &r.UserID, &r.RollNumber, &r.Notes, &r.Status, &r.PaymentStatus, &r.RegisteredAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a registration.  It must run inside the transaction that
// locked the event row and checked capacity.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	const q = `INSERT INTO registrations (event_id, user_id, roll_number, notes, status, payment_status) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, reg.EventID, reg.UserID, reg.RollNumber, reg.Notes, reg.Status, reg.PaymentStatus)
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
	stored, err := r.GetByID(ctx, uint64(id), false)
	if err != nil {
		return err
	}
	*reg = *stored
	return nil
}

// GetByID retrieves a registration, optionally locking it.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?` + lockClause(forUpdate)
	reg, err := scanRegistration(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return reg, nil
}

// UpdateStatus sets the status of one registration.
func (r *RegistrationRepo) UpdateStatus(ctx context.Context, id uint64, status model.RegistrationStatus) error {
	const q = `UPDATE registrations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q.ExecContext(ctx, q, status, id)
	return err
}

// FindActive returns the user's non-cancelled registration on the event.
func (r *RegistrationRepo) FindActive(ctx context.Context, eventID, userID uint64) (*model.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations
               WHERE event_id = ? AND user_id = ? AND status NOT IN ('CANCELLED', 'WITHDRAWN')
               ORDER BY id DESC LIMIT 1`
	reg, err := scanRegistration(r.q.QueryRowContext(ctx, q, eventID, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return reg, nil
}

// ListByEvent returns every registration of an event.
func (r *RegistrationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = ? ORDER BY registered_at ASC, id ASC`
	return r.list(ctx, q, eventID)
}

// ListByUser returns every registration of a user, newest first.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = ? ORDER BY registered_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

func (r *RegistrationRepo) list(ctx context.Context, q string, arg uint64) ([]model.Registration, error) {
	rows, err := r.q.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

// CountAccepted counts the registrations that hold a seat.
func (r *RegistrationRepo) CountAccepted(ctx context.Context, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status IN ` + acceptedIn
	var n int
	if err := r.q.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CancelRegistered cancels every REGISTERED row of an event.
func (r *RegistrationRepo) CancelRegistered(ctx context.Context, eventID uint64) (int64, error) {
	const q = `UPDATE registrations SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP
               WHERE event_id = ? AND status = 'REGISTERED'`
	res, err := r.q.ExecContext(ctx, q, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
