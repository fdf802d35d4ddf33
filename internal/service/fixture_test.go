package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/allocation"
	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/hall"
	"github.com/iliyamo/club-event-engine/internal/lifecycle"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/proposal"
	"github.com/iliyamo/club-event-engine/internal/queue"
	"github.com/iliyamo/club-event-engine/internal/repository/memstore"
)

var (
	clubAdmin  = model.Caller{UserID: 100, Role: model.RoleClubAdmin, Name: "Coding Club"}
	superAdmin = model.Caller{UserID: 1, Role: model.RoleSuperAdmin, Name: "Dr. Rao"}
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []queue.Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n queue.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingNotifier) kinds() []queue.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]queue.Kind, 0, len(r.got))
	for _, n := range r.got {
		out = append(out, n.Kind)
	}
	return out
}

type fixture struct {
	clock  *testClock
	notes  *recordingNotifier
	store  *memstore.Store
	halls  *hall.Registry
	events *EventService
	regs   *RegistrationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{t: time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)}
	notes := &recordingNotifier{}
	log := zerolog.Nop()
	store := memstore.New(clock.Now)
	halls := hall.NewRegistry(store, &log)
	resolver := allocation.NewResolver(halls, time.Second, allocation.DefaultOptimalExcess)
	events := NewEventService(store, resolver, notes, &log, EventOptions{
		Policy: proposal.NewPolicy(proposal.DefaultGrace, time.UTC),
		Now:    clock.Now,
	})
	return &fixture{
		clock:  clock,
		notes:  notes,
		store:  store,
		halls:  halls,
		events: events,
		regs:   NewRegistrationService(store, &log, clock.Now),
	}
}

func (f *fixture) hall(t *testing.T, name string, capacity uint32) *model.Hall {
	t.Helper()
	h, err := f.halls.CreateHall(context.Background(), name, "Main Block", capacity)
	if err != nil {
		t.Fatalf("CreateHall(%s): %v", name, err)
	}
	return h
}

// draft creates a DRAFT event starting startIn from now and lasting 2h.
func (f *fixture) draft(t *testing.T, startIn time.Duration, team bool, minTeam, maxTeam uint32) *model.Event {
	t.Helper()
	start := f.clock.Now().Add(startIn)
	end := start.Add(2 * time.Hour)
	in := EventInput{
		Title:         "Hack Night",
		ClubID:        7,
		Type:          model.TypeHackathon,
		StartDateTime: &start,
		EndDateTime:   &end,
		IsTeamEvent:   team,
	}
	if team {
		in.MinTeamMembers, in.MaxTeamMembers = u32(minTeam), u32(maxTeam)
	}
	e, err := f.events.CreateEvent(context.Background(), clubAdmin, in)
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return e
}

func (f *fixture) submission(h *model.Hall, startIn time.Duration, max uint32) lifecycle.Submission {
	start := f.clock.Now().Add(startIn)
	end := start.Add(2 * time.Hour)
	return lifecycle.Submission{HallID: u64(h.ID), StartDateTime: &start, EndDateTime: &end, MaxParticipants: u32(max)}
}

// published runs an event through submit and approve.
func (f *fixture) published(t *testing.T, h *model.Hall, startIn time.Duration, max uint32, team bool, minTeam, maxTeam uint32) *model.Event {
	t.Helper()
	ctx := context.Background()
	e := f.draft(t, startIn, team, minTeam, maxTeam)
	if _, err := f.events.SubmitForApproval(ctx, clubAdmin, e.ID, f.submission(h, startIn, max)); err != nil {
		t.Fatalf("SubmitForApproval: %v", err)
	}
	e, err := f.events.Approve(ctx, superAdmin, e.ID, "")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	return e
}

func wantCode(t *testing.T, err error, code apperr.Code) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", code)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != code {
		t.Fatalf("err = %v (%s), want %s", err, apperr.CodeOf(err), code)
	}
	return ae
}

func u64(v uint64) *uint64 { return &v }
func u32(v uint32) *uint32 { return &v }

func student(id uint64) model.Caller {
	return model.Caller{UserID: id, Role: model.RoleStudent}
}
