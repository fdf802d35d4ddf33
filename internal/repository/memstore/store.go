// Package memstore is an in-memory repository.Store.  Writes are fully
// serialized behind one mutex and applied to a private copy of the state
// that replaces the live state only when the unit of work succeeds.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

type state struct {
	halls   map[uint64]model.Hall
	events  map[uint64]model.Event
	ideas   map[uint64]model.Idea
	regs    map[uint64]model.Registration
	teams   map[uint64]model.TeamRegistration
	nextIDs map[string]uint64
}

func newState() *state {
	return &state{
		halls:   map[uint64]model.Hall{},
		events:  map[uint64]model.Event{},
		ideas:   map[uint64]model.Idea{},
		regs:    map[uint64]model.Registration{},
		teams:   map[uint64]model.TeamRegistration{},
		nextIDs: map[string]uint64{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.halls {
		c.halls[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.ideas {
		c.ideas[k] = v
	}
	for k, v := range s.regs {
		c.regs[k] = v
	}
	for k, v := range s.teams {
		v.Members = append([]model.TeamMember(nil), v.Members...)
		c.teams[k] = v
	}
	for k, v := range s.nextIDs {
		c.nextIDs[k] = v
	}
	return c
}

func (s *state) nextID(kind string) uint64 {
	s.nextIDs[kind]++
	return s.nextIDs[kind]
}

// Store implements repository.Store in memory.
type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

// New returns an empty Store.  now stamps created and updated times; nil
// uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{state: newState(), now: now}
}

// Read runs fn against the live state under a shared lock.
func (s *Store) Read(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{st: s.state, now: s.now, readOnly: true})
}

// Write runs fn against a copy of the state under the exclusive lock and
// publishes the copy when fn returns nil.
func (s *Store) Write(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(&memTx{st: work, now: s.now}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memTx struct {
	st       *state
	now      func() time.Time
	readOnly bool
}

func (t *memTx) Halls() repository.HallRepository                 { return hallRepo{t} }
func (t *memTx) Events() repository.EventRepository               { return eventRepo{t} }
func (t *memTx) Ideas() repository.IdeaRepository                 { return ideaRepo{t} }
func (t *memTx) Registrations() repository.RegistrationRepository { return registrationRepo{t} }
func (t *memTx) Teams() repository.TeamRepository                 { return teamRepo{t} }

func (t *memTx) writable() error {
	if t.readOnly {
		return repository.ErrReadOnly
	}
	return nil
}
