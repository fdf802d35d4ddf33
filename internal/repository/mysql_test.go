package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/club-event-engine/internal/model"
)

func newMock(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLStore(db), mock
}

func hallRows() *sqlmock.Rows {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "name", "location", "seating_capacity", "created_at", "updated_at"}).
		AddRow(1, "Main", "North wing", 120, now, now)
}

func TestHallLockUsesForUpdateInsideTransaction(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM halls WHERE id = \? FOR UPDATE`).WithArgs(1).WillReturnRows(hallRows())
	mock.ExpectCommit()

	err := store.Write(context.Background(), func(tx Tx) error {
		h, err := tx.Halls().Lock(context.Background(), 1)
		if err != nil {
			return err
		}
		if h.SeatingCapacity != 120 || h.Name != "Main" {
			t.Fatalf("hall = %+v", h)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWriteRollsBackWhenCallbackFails(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	if err := store.Write(context.Background(), func(Tx) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHallGetByIDMapsNoRows(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM halls WHERE id = \?`).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "location", "seating_capacity", "created_at", "updated_at"}))

	if _, err := NewHallRepo(store.DB()).GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBookingsQueryUsesHalfOpenOverlap(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	start := time.Date(2030, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	mock.ExpectQuery(`FROM events\s+WHERE hall_id = \?\s+AND status IN \('PUBLISHED', 'PENDING_APPROVAL'\)\s+AND NOT \(end_at <= \? OR start_at >= \?\)`).
		WithArgs(4, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hall_id", "start_at", "end_at", "status"}).
			AddRow(11, 4, start.Add(-time.Hour), start.Add(time.Hour), "PUBLISHED"))

	got, err := NewEventRepo(store.DB()).Bookings(context.Background(), 4, model.Window{Start: start, End: end})
	if err != nil {
		t.Fatalf("Bookings: %v", err)
	}
	if len(got) != 1 || got[0].EventID != 11 || got[0].Status != model.EventPublished {
		t.Fatalf("bookings = %+v", got)
	}
}

func TestRegistrationCreateMapsDuplicateKey(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO registrations`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	reg := &model.Registration{EventID: 1, UserID: 2, Status: model.RegRegistered, PaymentStatus: model.PaymentNotRequired}
	if err := NewRegistrationRepo(store.DB()).Create(context.Background(), reg); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCountAcceptedFiltersStatuses(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registrations WHERE event_id = \? AND status IN \('REGISTERED', 'ATTENDED', 'NO_SHOW'\)`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewRegistrationRepo(store.DB()).CountAccepted(context.Background(), 3)
	if err != nil || n != 7 {
		t.Fatalf("CountAccepted = %d, %v; want 7", n, err)
	}
}

func TestEventGetByIDLocksWhenRequested(t *testing.T) {
	t.Parallel()

	store, mock := newMock(t)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "title", "description", "club_id", "type", "location", "image_url", "accepts_ideas",
		"idea_submission_deadline", "start_at", "end_at", "registration_deadline", "hall_id", "max_participants",
		"registration_fee_cents", "is_team_event", "min_team_members", "max_team_members", "status", "approval_status",
		"rejection_reason", "approved_by_id", "approved_by_name", "approval_date", "source_idea_id", "created_by",
		"created_at", "updated_at"}
	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \? FOR UPDATE`).WithArgs(5).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			5, "Hack Night", "", 2, "HACKATHON", nil, nil, false,
			nil, now.Add(time.Hour), now.Add(3*time.Hour), nil, 1, 40,
			0, true, 3, 5, "PUBLISHED", "APPROVED",
			nil, 9, "Dean", now, nil, 7,
			now, now,
		))

	e, err := NewEventRepo(store.DB()).GetByID(context.Background(), 5, true)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if e.HallID == nil || *e.HallID != 1 || e.MaxParticipants == nil || *e.MaxParticipants != 40 {
		t.Fatalf("event = %+v", e)
	}
	if e.RejectionReason != nil || e.ApprovedByName == nil || *e.ApprovedByName != "Dean" {
		t.Fatalf("approval fields = %v %v", e.RejectionReason, e.ApprovedByName)
	}
	if !e.IsTeamEvent || *e.MinTeamMembers != 3 {
		t.Fatalf("team fields = %v %v", e.IsTeamEvent, e.MinTeamMembers)
	}
}
