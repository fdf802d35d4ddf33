package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/club-event-engine/internal/model"
)

const eventColumns = `id, title, description, club_id, type, location, image_url, accepts_ideas,
	idea_submission_deadline, start_at, end_at, registration_deadline, hall_id, max_participants,
	registration_fee_cents, is_team_event, min_team_members, max_team_members, status, approval_status,
	rejection_reason, approved_by_id, approved_by_name, approval_date, source_idea_id, created_by,
	created_at, updated_at`

// EventRepo manages persistence for events and topics.
type EventRepo struct {
	q querier
}

// NewEventRepo constructs an EventRepo bound to q.
func NewEventRepo(q querier) *EventRepo {
	return &EventRepo{q: q}
}

func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		e                                   model.Event
		ideaDeadline, start, end, regClose  sql.NullTime
		approvalDate                        sql.NullTime
		hallID, maxP, minTeam, maxTeam      sql.NullInt64
		approvedByID, sourceIdea            sql.NullInt64
		rejection, approvedByName, location sql.NullString
		imageURL                            sql.NullString
	)
	err := s.Scan(
		&e.ID, &e.Title, &e.Description, &e.ClubID, &e.Type, &location, &imageURL, &e.AcceptsIdeas,
		&ideaDeadline, &start, &end, &regClose, &hallID, &maxP,
		&e.RegistrationFeeCents, &e.IsTeamEvent, &minTeam, &maxTeam, &e.Status, &e.ApprovalStatus,
		&rejection, &approvedByID, &approvedByName, &approvalDate, &sourceIdea, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Location = location.String
	e.ImageURL = imageURL.String
	e.IdeaSubmissionDeadline = timePtr(ideaDeadline)
	e.StartDateTime = timePtr(start)
	e.EndDateTime = timePtr(end)
	e.RegistrationDeadline = timePtr(regClose)
	e.HallID = u64Ptr(hallID)
	e.MaxParticipants = u32Ptr(maxP)
	e.MinTeamMembers = u32Ptr(minTeam)
	e.MaxTeamMembers = u32Ptr(maxTeam)
	e.RejectionReason = strPtr(rejection)
	e.ApprovedByID = u64Ptr(approvedByID)
	e.ApprovedByName = strPtr(approvedByName)
	e.ApprovalDate = timePtr(approvalDate)
	e.SourceIdeaID = u64Ptr(sourceIdea)
	return &e, nil
}

// Create inserts an event and reads back the stored row.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (title, description, club_id, type, location, image_url, accepts_ideas,
		idea_submission_deadline, start_at, end_at, registration_deadline, hall_id, max_participants,
		registration_fee_cents, is_team_event, min_team_members, max_team_members, status, approval_status,
		rejection_reason, approved_by_id, approved_by_name, approval_date, source_idea_id, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, q,
		e.Title, e.Description, e.ClubID, e.Type, e.Location, e.ImageURL, e.AcceptsIdeas,
		nullTime(e.IdeaSubmissionDeadline), nullTime(e.StartDateTime), nullTime(e.EndDateTime), nullTime(e.RegistrationDeadline),
		nullU64(e.HallID), nullU32(e.MaxParticipants),
		e.RegistrationFeeCents, e.IsTeamEvent, nullU32(e.MinTeamMembers), nullU32(e.MaxTeamMembers), e.Status, e.ApprovalStatus,
		nullString(e.RejectionReason), nullU64(e.ApprovedByID), nullString(e.ApprovedByName), nullTime(e.ApprovalDate),
		nullU64(e.SourceIdeaID), e.CreatedBy,
	)
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
	*e = *stored
	return nil
}

// GetByID retrieves an event.  When forUpdate is set the row stays locked
// until the transaction ends, which serializes registrations and state
// changes on the same event.
func (r *EventRepo) GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ?` + lockClause(forUpdate)
	e, err := scanEvent(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

// Update writes every mutable column of e.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET title = ?, description = ?, type = ?, location = ?, image_url = ?, accepts_ideas = ?,
		idea_submission_deadline = ?, start_at = ?, end_at = ?, registration_deadline = ?, hall_id = ?,
		max_participants = ?, registration_fee_cents = ?, is_team_event = ?, min_team_members = ?,
		max_team_members = ?, status = ?, approval_status = ?, rejection_reason = ?, approved_by_id = ?,
		approved_by_name = ?, approval_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	_, err := r.q.ExecContext(ctx, q,
		e.Title, e.Description, e.Type, e.Location, e.ImageURL, e.AcceptsIdeas,
		nullTime(e.IdeaSubmissionDeadline), nullTime(e.StartDateTime), nullTime(e.EndDateTime), nullTime(e.RegistrationDeadline),
		nullU64(e.HallID), nullU32(e.MaxParticipants), e.RegistrationFeeCents, e.IsTeamEvent, nullU32(e.MinTeamMembers),
		nullU32(e.MaxTeamMembers), e.Status, e.ApprovalStatus, nullString(e.RejectionReason), nullU64(e.ApprovedByID),
		nullString(e.ApprovedByName), nullTime(e.ApprovalDate),
		e.ID,
	)
	return err
}

// Delete removes an event row.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

// List returns events matching f ordered by start time, topics last.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, s)
		}
	}
	if f.ClubID != 0 {
		where = append(where, "club_id = ?")
		args = append(args, f.ClubID)
	}
	if f.AcceptsIdeas != nil {
		where = append(where, "accepts_ideas = ?")
		args = append(args, *f.AcceptsIdeas)
	}
	if f.StartFrom != nil {
		where = append(where, "start_at >= ?")
		args = append(args, f.StartFrom.UTC())
	}
	if f.StartBefore != nil {
		where = append(where, "start_at < ?")
		args = append(args, f.StartBefore.UTC())
	}
	q := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY start_at IS NULL, start_at ASC, id ASC"

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Bookings lists the events holding hallID during w.  The overlap test is
// half-open: an event ending exactly when w starts does not conflict.
func (r *EventRepo) Bookings(ctx context.Context, hallID uint64, w model.Window) ([]model.Booking, error) {
	const q = `SELECT id, hall_id, start_at, end_at, status
               FROM events
               WHERE hall_id = ?
                 AND status IN ('PUBLISHED', 'PENDING_APPROVAL')
                 AND NOT (end_at <= ? OR start_at >= ?)
               ORDER BY start_at ASC`
	rows, err := r.q.QueryContext(ctx, q, hallID, w.Start.UTC(), w.End.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.EventID, &b.HallID, &b.Window.Start, &b.Window.End, &b.Status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
