package repository

import (
	"context"

	"github.com/iliyamo/club-event-engine/internal/model"
)

const ideaColumns = `id, event_id, student_id, title, description, expected_outcome, status, created_at, updated_at`

// IdeaRepo manages persistence for ideas submitted to topics.
type IdeaRepo struct {
	q querier
}

// NewIdeaRepo constructs an IdeaRepo bound to q.
func NewIdeaRepo(q querier) *IdeaRepo {
	return &IdeaRepo{q: q}
}

func scanIdea(s rowScanner) (*model.Idea, error) {
	var i model.Idea
	if err := s.Scan(&i.ID, &i.EventID, &i.StudentID, &i.Title, &i.Description, &i.ExpectedOutcome, &i.Status, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts an idea and reads back the stored row.
func (r *IdeaRepo) Create(ctx context.Context, i *model.Idea) error {
	const q = `INSERT INTO ideas (event_id, student_id, title, description, expected_outcome, status) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q, i.EventID, i.StudentID, i.Title, i.Description, i.ExpectedOutcome, i.Status)
	if err != nil {
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
	*i = *stored
	return nil
}

// GetByID retrieves an idea, optionally locking it.
func (r *IdeaRepo) GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.Idea, error) {
	q := `SELECT ` + ideaColumns + ` FROM ideas WHERE id = ?` + lockClause(forUpdate)
	i, err := scanIdea(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return i, nil
}

// UpdateStatus sets the review status of an idea.
func (r *IdeaRepo) UpdateStatus(ctx context.Context, id uint64, status model.IdeaStatus) error {
	const q = `UPDATE ideas SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q.ExecContext(ctx, q, status, id)
	return err
}

// ListByEvent returns the ideas of a topic in submission order.
func (r *IdeaRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Idea, error) {
	const q = `SELECT ` + ideaColumns + ` FROM ideas WHERE event_id = ? ORDER BY created_at ASC, id ASC`
	rows, err := r.q.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Idea, 0)
	for rows.Next() {
		i, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// CountByStudent counts the ideas a student submitted to a topic.
func (r *IdeaRepo) CountByStudent(ctx context.Context, eventID, studentID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM ideas WHERE event_id = ? AND student_id = ?`
	var n int
	if err := r.q.QueryRowContext(ctx, q, eventID, studentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteByEvent removes every idea of a topic.
func (r *IdeaRepo) DeleteByEvent(ctx context.Context, eventID uint64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM ideas WHERE event_id = ?`, eventID)
	return err
}
