package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

type hallRepo struct{ t *memTx }

func (r hallRepo) List(_ context.Context) ([]model.Hall, error) {
	out := make([]model.Hall, 0, len(r.t.st.halls))
	for _, h := range r.t.st.halls {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatingCapacity != out[j].SeatingCapacity {
			return out[i].SeatingCapacity < out[j].SeatingCapacity
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r hallRepo) GetByID(_ context.Context, id uint64) (*model.Hall, error) {
	h, ok := r.t.st.halls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &h, nil
}

// Lock is GetByID: the store-wide write lock already serializes writers.
func (r hallRepo) Lock(ctx context.Context, id uint64) (*model.Hall, error) {
	return r.GetByID(ctx, id)
}

func (r hallRepo) Create(_ context.Context, h *model.Hall) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	for _, existing := range r.t.st.halls {
		if strings.EqualFold(existing.Name, h.Name) {
			return repository.ErrConflict
		}
	}
	now := r.t.now().UTC()
	h.ID = r.t.st.nextID("hall")
	h.CreatedAt, h.UpdatedAt = now, now
	r.t.st.halls[h.ID] = *h
	return nil
}

func (r hallRepo) UpdateCapacity(_ context.Context, id uint64, capacity uint32) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	h, ok := r.t.st.halls[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.SeatingCapacity = capacity
	h.UpdatedAt = r.t.now().UTC()
	r.t.st.halls[id] = h
	return nil
}

type eventRepo struct{ t *memTx }

func (r eventRepo) Create(_ context.Context, e *model.Event) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	now := r.t.now().UTC()
	e.ID = r.t.st.nextID("event")
	e.CreatedAt, e.UpdatedAt = now, now
	r.t.st.events[e.ID] = *e
	return nil
}

func (r eventRepo) GetByID(_ context.Context, id uint64, _ bool) (*model.Event, error) {
	e, ok := r.t.st.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r eventRepo) Update(_ context.Context, e *model.Event) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, ok := r.t.st.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	e.UpdatedAt = r.t.now().UTC()
	r.t.st.events[e.ID] = *e
	return nil
}

func (r eventRepo) Delete(_ context.Context, id uint64) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, ok := r.t.st.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.t.st.events, id)
	return nil
}

func (r eventRepo) List(_ context.Context, f repository.EventFilter) ([]model.Event, error) {
	out := make([]model.Event, 0)
	for _, e := range r.t.st.events {
		if matchEvent(e, f) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].StartDateTime, out[j].StartDateTime
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchEvent(e model.Event, f repository.EventFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if e.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ClubID != 0 && e.ClubID != f.ClubID {
		return false
	}
	if f.AcceptsIdeas != nil && e.AcceptsIdeas != *f.AcceptsIdeas {
		return false
	}
	if f.StartFrom != nil && (e.StartDateTime == nil || e.StartDateTime.Before(*f.StartFrom)) {
		return false
	}
	if f.StartBefore != nil && (e.StartDateTime == nil || !e.StartDateTime.Before(*f.StartBefore)) {
		return false
	}
	return true
}

func (r eventRepo) Bookings(_ context.Context, hallID uint64, w model.Window) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for _, e := range r.t.st.events {
		if e.HallID == nil || *e.HallID != hallID || !e.Status.HoldsHall() {
			continue
		}
		ew, ok := e.Window()
		if !ok || !ew.Overlaps(w) {
			continue
		}
		out = append(out, model.Booking{EventID: e.ID, HallID: hallID, Window: ew, Status: e.Status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start.Before(out[j].Window.Start) })
	return out, nil
}

type ideaRepo struct{ t *memTx }

func (r ideaRepo) Create(_ context.Context, i *model.Idea) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	now := r.t.now().UTC()
	i.ID = r.t.st.nextID("idea")
	i.CreatedAt, i.UpdatedAt = now, now
	r.t.st.ideas[i.ID] = *i
	return nil
}

func (r ideaRepo) GetByID(_ context.Context, id uint64, _ bool) (*model.Idea, error) {
	i, ok := r.t.st.ideas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &i, nil
}

func (r ideaRepo) UpdateStatus(_ context.Context, id uint64, status model.IdeaStatus) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	i, ok := r.t.st.ideas[id]
	if !ok {
		return repository.ErrNotFound
	}
	i.Status = status
	i.UpdatedAt = r.t.now().UTC()
	r.t.st.ideas[id] = i
	return nil
}

func (r ideaRepo) ListByEvent(_ context.Context, eventID uint64) ([]model.Idea, error) {
	out := make([]model.Idea, 0)
	for _, i := range r.t.st.ideas {
		if i.EventID == eventID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r ideaRepo) CountByStudent(_ context.Context, eventID, studentID uint64) (int, error) {
	n := 0
	for _, i := range r.t.st.ideas {
		if i.EventID == eventID && i.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (r ideaRepo) DeleteByEvent(_ context.Context, eventID uint64) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	for id, i := range r.t.st.ideas {
		if i.EventID == eventID {
			delete(r.t.st.ideas, id)
		}
	}
	return nil
}

type registrationRepo struct{ t *memTx }

func (r registrationRepo) Create(_ context.Context, reg *model.Registration) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	now := r.t.now().UTC()
	reg.ID = r.t.st.nextID("registration")
	reg.RegisteredAt, reg.UpdatedAt = now, now
	r.t.st.regs[reg.ID] = *reg
	return nil
}

func (r registrationRepo) GetByID(_ context.Context, id uint64, _ bool) (*model.Registration, error) {
	reg, ok := r.t.st.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &reg, nil
}

func (r registrationRepo) UpdateStatus(_ context.Context, id uint64, status model.RegistrationStatus) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	reg, ok := r.t.st.regs[id]
	if !ok {
		return repository.ErrNotFound
	}
	reg.Status = status
	reg.UpdatedAt = r.t.now().UTC()
	r.t.st.regs[id] = reg
	return nil
}

func (r registrationRepo) FindActive(_ context.Context, eventID, userID uint64) (*model.Registration, error) {
	for _, reg := range r.t.st.regs {
		if reg.EventID == eventID && reg.UserID == userID &&
			reg.Status != model.RegCancelled && reg.Status != model.RegWithdrawn {
			return &reg, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r registrationRepo) ListByEvent(_ context.Context, eventID uint64) ([]model.Registration, error) {
	return r.filter(func(reg model.Registration) bool { return reg.EventID == eventID }, false), nil
}

func (r registrationRepo) ListByUser(_ context.Context, userID uint64) ([]model.Registration, error) {
	return r.filter(func(reg model.Registration) bool { return reg.UserID == userID }, true), nil
}

func (r registrationRepo) filter(keep func(model.Registration) bool, newestFirst bool) []model.Registration {
	out := make([]model.Registration, 0)
	for _, reg := range r.t.st.regs {
		if keep(reg) {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r registrationRepo) CountAccepted(_ context.Context, eventID uint64) (int, error) {
	n := 0
	for _, reg := range r.t.st.regs {
		if reg.EventID == eventID && reg.Status.Accepted() {
			n++
		}
	}
	return n, nil
}

func (r registrationRepo) CancelRegistered(_ context.Context, eventID uint64) (int64, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}
	var n int64
	now := r.t.now().UTC()
	for id, reg := range r.t.st.regs {
		if reg.EventID == eventID && reg.Status == model.RegRegistered {
			reg.Status = model.RegCancelled
			reg.UpdatedAt = now
			r.t.st.regs[id] = reg
			n++
		}
	}
	return n, nil
}

type teamRepo struct{ t *memTx }

func (r teamRepo) Create(_ context.Context, team *model.TeamRegistration) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	now := r.t.now().UTC()
	team.ID = r.t.st.nextID("team")
	team.RegisteredAt, team.UpdatedAt = now, now
	stored := *team
	stored.Members = append([]model.TeamMember(nil), team.Members...)
	r.t.st.teams[team.ID] = stored
	return nil
}

func (r teamRepo) GetByID(_ context.Context, id uint64, _ bool) (*model.TeamRegistration, error) {
	team, ok := r.t.st.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	team.Members = append([]model.TeamMember(nil), team.Members...)
	return &team, nil
}

func (r teamRepo) UpdateStatus(_ context.Context, id uint64, status model.RegistrationStatus) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	team, ok := r.t.st.teams[id]
	if !ok {
		return repository.ErrNotFound
	}
	team.Status = status
	team.UpdatedAt = r.t.now().UTC()
	r.t.st.teams[id] = team
	return nil
}

func (r teamRepo) FindActiveByLeader(ctx context.Context, eventID, leaderID uint64) (*model.TeamRegistration, error) {
	for id, team := range r.t.st.teams {
		if team.EventID == eventID && team.LeaderUserID == leaderID && team.Status.Accepted() {
			return r.GetByID(ctx, id, false)
		}
	}
	return nil, repository.ErrNotFound
}

func (r teamRepo) ListByEvent(_ context.Context, eventID uint64) ([]model.TeamRegistration, error) {
	return r.filter(func(t model.TeamRegistration) bool { return t.EventID == eventID }, false), nil
}

func (r teamRepo) ListByLeader(_ context.Context, leaderID uint64) ([]model.TeamRegistration, error) {
	return r.filter(func(t model.TeamRegistration) bool { return t.LeaderUserID == leaderID }, true), nil
}

func (r teamRepo) filter(keep func(model.TeamRegistration) bool, newestFirst bool) []model.TeamRegistration {
	out := make([]model.TeamRegistration, 0)
	for _, team := range r.t.st.teams {
		if keep(team) {
			team.Members = append([]model.TeamMember(nil), team.Members...)
			out = append(out, team)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r teamRepo) AcceptedRollNumbers(_ context.Context, eventID uint64) ([]string, error) {
	out := make([]string, 0)
	for _, team := range r.t.st.teams {
		if team.EventID != eventID || !team.Status.Accepted() {
			continue
		}
		for _, m := range team.Members {
			out = append(out, m.RollNumber)
		}
	}
	return out, nil
}

func (r teamRepo) SumAcceptedMembers(_ context.Context, eventID uint64) (int, error) {
	n := 0
	for _, team := range r.t.st.teams {
		if team.EventID == eventID && team.Status.Accepted() {
			n += len(team.Members)
		}
	}
	return n, nil
}

func (r teamRepo) CancelRegistered(_ context.Context, eventID uint64) (int64, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}
	var n int64
	now := r.t.now().UTC()
	for id, team := range r.t.st.teams {
		if team.EventID == eventID && team.Status == model.RegRegistered {
			team.Status = model.RegCancelled
			team.UpdatedAt = now
			r.t.st.teams[id] = team
			n++
		}
	}
	return n, nil
}
