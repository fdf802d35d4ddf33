package repository

import (
	"context"

	"github.com/iliyamo/club-event-engine/internal/model"
)

const teamColumns = `id, event_id, team_name, leader_user_id, status, payment_status, registered_at, updated_at`

// TeamRepo manages team registrations and their member lists.
type TeamRepo struct {
	q querier
}

// NewTeamRepo constructs a TeamRepo bound to q.
func NewTeamRepo(q querier) *TeamRepo {
	return &TeamRepo{q: q}
}

func scanTeam(s rowScanner) (*model.TeamRegistration, error) {
	var t model.TeamRegistration
	if err := s.Scan(&t.ID, &t.EventID, &t.TeamName, &t.LeaderUserID, &t.Status, &t.PaymentStatus, &t.RegisteredAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts the team row and one team_members row per member,
// preserving member order.
func (r *TeamRepo) Create(ctx context.Context, t *model.TeamRegistration) error {
	const qTeam = `INSERT INTO team_registrations (event_id, team_name, leader_user_id, status, payment_status) VALUES (?, ?, ?, ?, ?)`
	res, err := r.q.ExecContext(ctx, qTeam, t.EventID, t.TeamName, t.LeaderUserID, t.Status, t.PaymentStatus)
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
	const qMember = `INSERT INTO team_members (team_id, position, name, email, roll_number) VALUES (?, ?, ?, ?, ?)`
	for pos, m := range t.Members {
		if _, err := r.q.ExecContext(ctx, qMember, id, pos, m.Name, m.Email, m.RollNumber); err != nil {
			return err
		}
	}
	stored, err := r.GetByID(ctx, uint64(id), false)
	if err != nil {
		return err
	}
	*t = *stored
	return nil
}

// GetByID retrieves a team with its members, optionally locking the team
// row.
func (r *TeamRepo) GetByID(ctx context.Context, id uint64, forUpdate bool) (*model.TeamRegistration, error) {
	q := `SELECT ` + teamColumns + ` FROM team_registrations WHERE id = ?` + lockClause(forUpdate)
	t, err := scanTeam(r.q.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	if t.Members, err = r.members(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TeamRepo) members(ctx context.Context, teamID uint64) ([]model.TeamMember, error) {
	const q = `SELECT name, email, roll_number FROM team_members WHERE team_id = ? ORDER BY position ASC`
	rows, err := r.q.QueryContext(ctx, q, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TeamMember, 0)
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.Name, &m.Email, &m.RollNumber); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateStatus sets the status of a team.
func (r *TeamRepo) UpdateStatus(ctx context.Context, id uint64, status model.RegistrationStatus) error {
	const q = `UPDATE team_registrations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.q.ExecContext(ctx, q, status, id)
	return err
}

// FindActiveByLeader returns the leader's accepted team on the event.
func (r *TeamRepo) FindActiveByLeader(ctx context.Context, eventID, leaderID uint64) (*model.TeamRegistration, error) {
	const q = `SELECT ` + teamColumns + ` FROM team_registrations
               WHERE event_id = ? AND leader_user_id = ? AND status IN ` + acceptedIn + `
               ORDER BY id DESC LIMIT 1`
	t, err := scanTeam(r.q.QueryRowContext(ctx, q, eventID, leaderID))
	if err != nil {
		return nil, notFound(err)
	}
	if t.Members, err = r.members(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListByEvent returns every team of an event with members.
func (r *TeamRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.TeamRegistration, error) {
	const q = `SELECT ` + teamColumns + ` FROM team_registrations WHERE event_id = ? ORDER BY registered_at ASC, id ASC`
	return r.list(ctx, q, eventID)
}

// ListByLeader returns every team led by a user, newest first.
func (r *TeamRepo) ListByLeader(ctx context.Context, leaderID uint64) ([]model.TeamRegistration, error) {
	const q = `SELECT ` + teamColumns + ` FROM team_registrations WHERE leader_user_id = ? ORDER BY registered_at DESC, id DESC`
	return r.list(ctx, q, leaderID)
}

func (r *TeamRepo) list(ctx context.Context, q string, arg uint64) ([]model.TeamRegistration, error) {
	rows, err := r.q.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	teams := make([]model.TeamRegistration, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		teams = append(teams, *t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	// members are loaded after the cursor is closed; a transaction cannot
	// run a second query while rows are still streaming
	for i := range teams {
		if teams[i].Members, err = r.members(ctx, teams[i].ID); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

// AcceptedRollNumbers returns the roll numbers held by accepted teams.
func (r *TeamRepo) AcceptedRollNumbers(ctx context.Context, eventID uint64) ([]string, error) {
	const q = `SELECT m.roll_number
               FROM team_members m
               JOIN team_registrations t ON t.id = m.team_id
               WHERE t.event_id = ? AND t.status IN ` + acceptedIn
	rows, err := r.q.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var roll string
		if err := rows.Scan(&roll); err != nil {
			return nil, err
		}
		out = append(out, roll)
	}
	return out, rows.Err()
}

// SumAcceptedMembers counts the seats held by accepted teams.
func (r *TeamRepo) SumAcceptedMembers(ctx context.Context, eventID uint64) (int, error) {
	const q = `SELECT COUNT(*)
               FROM team_members m
               JOIN team_registrations t ON t.id = m.team_id
               WHERE t.event_id = ? AND t.status IN ` + acceptedIn
	var n int
	if err := r.q.QueryRowContext(ctx, q, eventID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CancelRegistered cancels every REGISTERED team of an event.
func (r *TeamRepo) CancelRegistered(ctx context.Context, eventID uint64) (int64, error) {
	const q = `UPDATE team_registrations SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP
               WHERE event_id = ? AND status = 'REGISTERED'`
	res, err := r.q.ExecContext(ctx, q, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
