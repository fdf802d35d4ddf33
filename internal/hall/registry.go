// Package hall is the registry of physical halls and their bookings.  It is
// the read side the allocation resolver consults and the write side super
// admins use to maintain hall data.
package hall

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/repository"
)

// Registry serves hall data from a repository.Store.
type Registry struct {
	store repository.Store
	log   *zerolog.Logger
}

// NewRegistry constructs a Registry and panics if a dependency is nil.
func NewRegistry(store repository.Store, log *zerolog.Logger) *Registry {
	if store == nil || log == nil {
		panic("nil dependency passed to hall.NewRegistry")
	}
	return &Registry{store: store, log: log}
}

// ListHalls returns every hall, smallest first.
func (r *Registry) ListHalls(ctx context.Context) ([]model.Hall, error) {
	var out []model.Hall
	err := r.store.Read(ctx, func(tx repository.Tx) error {
		halls, err := tx.Halls().List(ctx)
		out = halls
		return err
	})
	if err != nil {
		return nil, r.storeErr(err, "list halls")
	}
	return out, nil
}

// BookingsForHall returns the PUBLISHED and PENDING_APPROVAL events holding
// hallID whose window overlaps w.
func (r *Registry) BookingsForHall(ctx context.Context, hallID uint64, w model.Window) ([]model.Booking, error) {
	if !w.Valid() {
		return nil, apperr.Validation("window", "start must be before end")
	}
	var out []model.Booking
	err := r.store.Read(ctx, func(tx repository.Tx) error {
		b, err := tx.Events().Bookings(ctx, hallID, w)
		out = b
		return err
	})
	if err != nil {
		return nil, r.storeErr(err, "list bookings")
	}
	return out, nil
}

// GetHall loads one hall.
func (r *Registry) GetHall(ctx context.Context, id uint64) (*model.Hall, error) {
	var out *model.Hall
	err := r.store.Read(ctx, func(tx repository.Tx) error {
		h, err := tx.Halls().GetByID(ctx, id)
		out = h
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("hall", id)
	}
	if err != nil {
		return nil, r.storeErr(err, "get hall")
	}
	return out, nil
}

// CreateHall registers a hall.  Names are unique.
func (r *Registry) CreateHall(ctx context.Context, name, location string, capacity uint32) (*model.Hall, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if capacity == 0 {
		return nil, apperr.Validation("seating_capacity", "seating capacity must be greater than zero")
	}
	h := &model.Hall{Name: name, Location: strings.TrimSpace(location), SeatingCapacity: capacity}
	err := r.store.Write(ctx, func(tx repository.Tx) error {
		return tx.Halls().Create(ctx, h)
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperr.WithMetadata(apperr.CodeValidation, "a hall with this name already exists",
			map[string]string{"field": "name"})
	}
	if err != nil {
		return nil, r.storeErr(err, "create hall")
	}
	r.log.Info().Uint64("hall_id", h.ID).Uint32("seating_capacity", h.SeatingCapacity).Msg("hall created")
	return h, nil
}

// CorrectCapacity fixes a hall's seating capacity.  Existing bookings are
// not re-checked; approvals compare against the capacity at approval time.
func (r *Registry) CorrectCapacity(ctx context.Context, id uint64, capacity uint32) (*model.Hall, error) {
	if capacity == 0 {
		return nil, apperr.Validation("seating_capacity", "seating capacity must be greater than zero")
	}
	var out *model.Hall
	err := r.store.Write(ctx, func(tx repository.Tx) error {
		h, err := tx.Halls().Lock(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Halls().UpdateCapacity(ctx, id, capacity); err != nil {
			return err
		}
		h.SeatingCapacity = capacity
		out = h
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("hall", id)
	}
	if err != nil {
		return nil, r.storeErr(err, "update hall capacity")
	}
	r.log.Info().Uint64("hall_id", id).Uint32("seating_capacity", capacity).Msg("hall capacity corrected")
	return out, nil
}

func (r *Registry) storeErr(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if cerr := apperr.FromContext(err, op+" timed out"); cerr != err {
		return cerr
	}
	r.log.Error().Err(err).Str("op", op).Msg("hall store failure")
	return apperr.Unavailable(op+" failed", err)
}
