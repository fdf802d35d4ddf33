// Package allocation suggests the best-fit hall for a requested capacity
// and time window.  The resolver only reads; a hall is committed inside the
// approval transaction.
package allocation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

// DefaultOptimalExcess is the largest spare capacity still reported as an
// optimal fit.
const DefaultOptimalExcess = 20

// Registry is the read side of the hall registry.
type Registry interface {
	ListHalls(ctx context.Context) ([]model.Hall, error)
	BookingsForHall(ctx context.Context, hallID uint64, window model.Window) ([]model.Booking, error)
}

// Fit classifies the spare capacity of a suggestion.
type Fit string

const (
	FitOptimal   Fit = "OPTIMAL"
	FitOversized Fit = "OVERSIZED"
)

// Reason explains an empty suggestion.
type Reason string

const (
	ReasonNoCapacity Reason = "NO_HALL_MEETS_CAPACITY"
	ReasonAllBooked  Reason = "ALL_CAPABLE_HALLS_BOOKED"
)

// NoHallAvailable is returned inside a Suggestion when nothing fits.
type NoHallAvailable struct {
	Reason          Reason `json:"reason"`
	TotalHalls      int    `json:"total_halls"`
	CapacityMatches int    `json:"capacity_matches"`
	Message         string `json:"message"`
}

// Suggestion is the resolver outcome.  Hall is nil when NoHall is set.
type Suggestion struct {
	Hall       *model.Hall      `json:"hall,omitempty"`
	Candidates []model.Hall     `json:"candidates"`
	Excess     uint32           `json:"excess"`
	Fit        Fit              `json:"fit,omitempty"`
	Message    string           `json:"message,omitempty"`
	NoHall     *NoHallAvailable `json:"no_hall,omitempty"`
}

// Request is a capacity and window to place.
type Request struct {
	Capacity uint32
	Window   model.Window
}

// Resolver computes hall suggestions against a Registry.
type Resolver struct {
	registry      Registry
	timeout       time.Duration
	optimalExcess uint32
}

// NewResolver builds a Resolver.  timeout bounds every registry call when
// the caller's context carries no deadline of its own.
func NewResolver(registry Registry, timeout time.Duration, optimalExcess uint32) *Resolver {
	if registry == nil {
		panic("nil registry passed to NewResolver")
	}
	return &Resolver{registry: registry, timeout: timeout, optimalExcess: optimalExcess}
}

// Suggest returns the smallest free hall that fits req together with every
// other free candidate, sorted by capacity then id.
func (r *Resolver) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	if req.Capacity == 0 {
		return Suggestion{}, apperr.Validation("capacity", "capacity must be greater than zero")
	}
	if !req.Window.Valid() {
		return Suggestion{}, apperr.Validation("end_date_time", "start must be before end")
	}
	if _, ok := ctx.Deadline(); !ok && r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	halls, err := r.registry.ListHalls(ctx)
	if err != nil {
		return Suggestion{}, unavailable("list halls", err)
	}

	capable := make([]model.Hall, 0, len(halls))
	for _, h := range halls {
		if h.SeatingCapacity >= req.Capacity {
			capable = append(capable, h)
		}
	}

	free := make([]model.Hall, 0, len(capable))
	for _, h := range capable {
		bookings, err := r.registry.BookingsForHall(ctx, h.ID, req.Window)
		if err != nil {
			return Suggestion{}, unavailable(fmt.Sprintf("bookings for hall %d", h.ID), err)
		}
		if !Conflicts(bookings, req.Window, 0) {
			free = append(free, h)
		}
	}
	SortBestFit(free)

	if len(free) == 0 {
		return Suggestion{Candidates: free, NoHall: noHall(len(halls), len(capable))}, nil
	}
	best := free[0]
	excess := best.SeatingCapacity - req.Capacity
	s := Suggestion{Hall: &best, Candidates: free, Excess: excess, Fit: r.classify(excess)}
	s.Message = fitMessage(s.Fit, best, excess)
	return s, nil
}

// Conflicts reports whether any booking other than excludeEventID holds the
// hall during w.
func Conflicts(bookings []model.Booking, w model.Window, excludeEventID uint64) bool {
	for _, b := range bookings {
		if b.EventID == excludeEventID && excludeEventID != 0 {
			continue
		}
		if !b.Status.HoldsHall() {
			continue
		}
		if b.Window.Overlaps(w) {
			return true
		}
	}
	return false
}

// SortBestFit orders halls by capacity ascending, then id ascending.
func SortBestFit(halls []model.Hall) {
	sort.SliceStable(halls, func(i, j int) bool {
		if halls[i].SeatingCapacity != halls[j].SeatingCapacity {
			return halls[i].SeatingCapacity < halls[j].SeatingCapacity
		}
		return halls[i].ID < halls[j].ID
	})
}

func (r *Resolver) classify(excess uint32) Fit {
	if excess <= r.optimalExcess {
		return FitOptimal
	}
	return FitOversized
}

func fitMessage(fit Fit, h model.Hall, excess uint32) string {
	if fit == FitOptimal {
		return fmt.Sprintf("Optimal fit: %s with %d spare seats", h.Name, excess)
	}
	return fmt.Sprintf("%s is larger than needed by %d seats", h.Name, excess)
}

func noHall(total, capable int) *NoHallAvailable {
	if capable == 0 {
		return &NoHallAvailable{
			Reason:     ReasonNoCapacity,
			TotalHalls: total,
			Message:    "no hall meets capacity",
		}
	}
	return &NoHallAvailable{
		Reason:          ReasonAllBooked,
		TotalHalls:      total,
		CapacityMatches: capable,
		Message:         fmt.Sprintf("%d halls meet capacity but all are booked", capable),
	}
}

func unavailable(op string, err error) error {
	if ae := apperr.FromContext(err, "hall registry timed out: "+op); ae != err {
		return ae
	}
	return apperr.Unavailable("hall registry failed: "+op, err)
}
