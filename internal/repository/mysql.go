package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// querier is satisfied by both *sql.DB and *sql.Tx so repositories can
// run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MySQLStore implements Store on top of a MySQL connection pool.  Row
// locks taken with SELECT ... FOR UPDATE last until the surrounding
// transaction commits or rolls back.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore wraps an open pool.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	if db == nil {
		panic("nil db passed to NewMySQLStore")
	}
	return &MySQLStore{db: db}
}

// DB exposes the underlying pool for health checks.
func (s *MySQLStore) DB() *sql.DB { return s.db }

// Read runs fn in a read-only transaction.
func (s *MySQLStore) Read(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// Write runs fn in a read-write transaction.
func (s *MySQLStore) Write(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, nil, fn)
}

func (s *MySQLStore) run(ctx context.Context, opts *sql.TxOptions, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&mysqlTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type mysqlTx struct {
	q querier
}

func (t *mysqlTx) Halls() HallRepository                 { return NewHallRepo(t.q) }
func (t *mysqlTx) Events() EventRepository               { return NewEventRepo(t.q) }
func (t *mysqlTx) Ideas() IdeaRepository                 { return NewIdeaRepo(t.q) }
func (t *mysqlTx) Registrations() RegistrationRepository { return NewRegistrationRepo(t.q) }
func (t *mysqlTx) Teams() TeamRepository                 { return NewTeamRepo(t.q) }

// isDuplicate reports a unique key violation (MySQL error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func lockClause(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullU64(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func u64Ptr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func nullU32(v *uint32) any {
	if v == nil {
		return nil
	}
	return *v
}

func u32Ptr(n sql.NullInt64) *uint32 {
	if !n.Valid {
		return nil
	}
	v := uint32(n.Int64)
	return &v
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
