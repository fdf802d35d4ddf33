package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/club-event-engine/internal/apperr"
	"github.com/iliyamo/club-event-engine/internal/model"
)

type fakeRegistry struct {
	halls    []model.Hall
	bookings map[uint64][]model.Booking
	listErr  error
	block    bool
}

func (f *fakeRegistry) ListHalls(ctx context.Context) ([]model.Hall, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return append([]model.Hall(nil), f.halls...), f.listErr
}

func (f *fakeRegistry) BookingsForHall(_ context.Context, hallID uint64, _ model.Window) ([]model.Booking, error) {
	return f.bookings[hallID], nil
}

func window(day int, fromHour, toHour int) model.Window {
	return model.Window{
		Start: time.Date(2030, 4, day, fromHour, 0, 0, 0, time.UTC),
		End:   time.Date(2030, 4, day, toHour, 0, 0, 0, time.UTC),
	}
}

func TestSuggestPicksSmallestSufficientHall(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{halls: []model.Hall{
		{ID: 2, Name: "Hall B", SeatingCapacity: 200},
		{ID: 1, Name: "Hall A", SeatingCapacity: 50},
	}}
	r := NewResolver(reg, time.Second, DefaultOptimalExcess)

	got, err := r.Suggest(context.Background(), Request{Capacity: 40, Window: window(1, 10, 12)})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.Hall == nil || got.Hall.ID != 1 {
		t.Fatalf("suggested hall = %+v, want Hall A", got.Hall)
	}
	if got.Excess != 10 || got.Fit != FitOptimal {
		t.Fatalf("excess=%d fit=%s, want 10 OPTIMAL", got.Excess, got.Fit)
	}
	if len(got.Candidates) != 2 || got.Candidates[1].ID != 2 {
		t.Fatalf("candidates = %+v", got.Candidates)
	}
}

func TestSuggestSkipsOverlappingBookings(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{
		halls: []model.Hall{{ID: 1, SeatingCapacity: 50}, {ID: 2, SeatingCapacity: 200}},
		bookings: map[uint64][]model.Booking{
			1: {{EventID: 9, HallID: 1, Window: window(1, 11, 13), Status: model.EventPendingApproval}},
		},
	}
	r := NewResolver(reg, time.Second, DefaultOptimalExcess)

	got, err := r.Suggest(context.Background(), Request{Capacity: 40, Window: window(1, 10, 12)})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.Hall == nil || got.Hall.ID != 2 {
		t.Fatalf("suggested hall = %+v, want hall 2", got.Hall)
	}
	if got.Fit != FitOversized {
		t.Fatalf("fit = %s, want OVERSIZED", got.Fit)
	}
}

func TestSuggestTouchingWindowsDoNotConflict(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{
		halls: []model.Hall{{ID: 1, SeatingCapacity: 50}},
		bookings: map[uint64][]model.Booking{
			1: {{EventID: 9, HallID: 1, Window: window(1, 8, 10), Status: model.EventPublished}},
		},
	}
	got, err := NewResolver(reg, 0, DefaultOptimalExcess).Suggest(context.Background(), Request{Capacity: 10, Window: window(1, 10, 12)})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.Hall == nil {
		t.Fatalf("expected hall, got %+v", got.NoHall)
	}
}

func TestSuggestTieBreaksByID(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{halls: []model.Hall{{ID: 7, SeatingCapacity: 60}, {ID: 3, SeatingCapacity: 60}}}
	got, err := NewResolver(reg, 0, DefaultOptimalExcess).Suggest(context.Background(), Request{Capacity: 60, Window: window(2, 9, 10)})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.Hall.ID != 3 {
		t.Fatalf("hall = %d, want 3", got.Hall.ID)
	}
}

func TestSuggestReportsNoHallReasons(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{
		halls: []model.Hall{{ID: 1, SeatingCapacity: 50}, {ID: 2, SeatingCapacity: 80}},
		bookings: map[uint64][]model.Booking{
			2: {{EventID: 4, HallID: 2, Window: window(3, 9, 18), Status: model.EventPublished}},
		},
	}
	r := NewResolver(reg, 0, DefaultOptimalExcess)

	got, err := r.Suggest(context.Background(), Request{Capacity: 500, Window: window(3, 10, 11)})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.Hall != nil || got.NoHall == nil || got.NoHall.Reason != ReasonNoCapacity {
		t.Fatalf("expected no-capacity result, got %+v", got)
	}

	got, err = r.Suggest(context.Background(), Request{Capacity: 60, Window: window(3, 10, 11)})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.NoHall == nil || got.NoHall.Reason != ReasonAllBooked || got.NoHall.CapacityMatches != 1 {
		t.Fatalf("expected all-booked result, got %+v", got.NoHall)
	}
	if got.NoHall.Message != "1 halls meet capacity but all are booked" {
		t.Fatalf("message = %q", got.NoHall.Message)
	}
}

func TestSuggestIgnoresReleasedBookings(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{
		halls: []model.Hall{{ID: 1, SeatingCapacity: 50}},
		bookings: map[uint64][]model.Booking{
			1: {{EventID: 5, HallID: 1, Window: window(4, 10, 12), Status: model.EventCancelled}},
		},
	}
	got, err := NewResolver(reg, 0, DefaultOptimalExcess).Suggest(context.Background(), Request{Capacity: 10, Window: window(4, 10, 12)})
	if err != nil || got.Hall == nil {
		t.Fatalf("expected cancelled booking to be ignored, got %+v err=%v", got, err)
	}
}

func TestSuggestValidatesInput(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeRegistry{}, 0, DefaultOptimalExcess)
	if _, err := r.Suggest(context.Background(), Request{Capacity: 0, Window: window(1, 10, 12)}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("zero capacity err = %v", err)
	}
	if _, err := r.Suggest(context.Background(), Request{Capacity: 5, Window: window(1, 12, 10)}); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Fatalf("inverted window err = %v", err)
	}
}

func TestSuggestTimeoutSurfacesUnavailable(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeRegistry{block: true}, 10*time.Millisecond, DefaultOptimalExcess)
	_, err := r.Suggest(context.Background(), Request{Capacity: 5, Window: window(1, 10, 12)})
	if !apperr.Retryable(err) {
		t.Fatalf("err = %v, want retryable Unavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause, got %v", err)
	}
}

func TestSuggestRegistryFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	r := NewResolver(&fakeRegistry{listErr: errors.New("connection refused")}, 0, DefaultOptimalExcess)
	_, err := r.Suggest(context.Background(), Request{Capacity: 5, Window: window(1, 10, 12)})
	if apperr.CodeOf(err) != apperr.CodeUnavailable {
		t.Fatalf("err = %v, want Unavailable", err)
	}
}

func TestConflictsExcludesSelf(t *testing.T) {
	t.Parallel()

	b := []model.Booking{{EventID: 3, Window: window(1, 10, 12), Status: model.EventPendingApproval}}
	if Conflicts(b, window(1, 11, 12), 3) {
		t.Fatal("event must not conflict with itself")
	}
	if !Conflicts(b, window(1, 11, 12), 4) {
		t.Fatal("expected conflict with another event")
	}
}
